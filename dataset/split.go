package dataset

import (
	"math/rand"
	"sort"
)

// SplitRandom 随机切分评分为训练/测试两份，testFrac 是测试集占比。
// 固定 seed 下结果可复现；输入切片不被修改。
func SplitRandom(ratings []Rating, testFrac float64, seed int64) (train, test []Rating) {
	if testFrac < 0 {
		testFrac = 0
	}
	if testFrac > 1 {
		testFrac = 1
	}

	shuffled := make([]Rating, len(ratings))
	copy(shuffled, ratings)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTest := int(float64(len(shuffled)) * testFrac)
	test = shuffled[:nTest]
	train = shuffled[nTest:]
	return train, test
}

// SplitByTime 按时间切分：最新的 testFrac 部分作为测试集。
// 更贴近线上分布（用过去预测未来）；时间戳相同的观测按 (user, movie) 排序保证确定性。
func SplitByTime(ratings []Rating, testFrac float64) (train, test []Rating) {
	if testFrac < 0 {
		testFrac = 0
	}
	if testFrac > 1 {
		testFrac = 1
	}

	ordered := make([]Rating, len(ratings))
	copy(ordered, ratings)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.MovieID < b.MovieID
	})

	nTest := int(float64(len(ordered)) * testFrac)
	cut := len(ordered) - nTest
	train = ordered[:cut]
	test = ordered[cut:]
	return train, test
}
