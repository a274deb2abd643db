package rank

// 置信度相关的命名常量。阈值全部显式命名，测试可以精确断言边界行为。
const (
	// DefaultFullTrustRatings 是评分量项饱和的评分数：
	// 用户评分达到该数量后，数据量不再增加置信度。
	DefaultFullTrustRatings = 50

	// DefaultVolumeFloor 是零历史用户的评分量项下限。
	// 冷启动用户的置信度上限为 DefaultVolumeFloor（一致度为 1 时），
	// 必然低于 DefaultHighConfidence，不会被误标为高置信。
	DefaultVolumeFloor = 0.1

	// DefaultHighConfidence 是“高置信”阈值，explain 层据此选择措辞。
	DefaultHighConfidence = 0.7

	// DefaultLowAgreement 是 CF 与内容信号的一致度下限：
	// 低于它视为信号冲突，打 score_conflict 标签并触发解释层提示语。
	DefaultLowAgreement = 0.5
)

// Confidence 是置信度的纯函数实现：
//
//	confidence = volume(ratingCount) × agreement
//
// volume 随评分数单调不减，在 fullTrust 处饱和为 1，零历史时取 floor；
// agreement 是两路信号的一致度 [0,1]。两个自变量都单调递增。
func Confidence(ratingCount int, agreement float64, fullTrust int, floor float64) float64 {
	if fullTrust <= 0 {
		fullTrust = DefaultFullTrustRatings
	}
	if floor < 0 {
		floor = 0
	}
	if floor > 1 {
		floor = 1
	}
	if agreement < 0 {
		agreement = 0
	}
	if agreement > 1 {
		agreement = 1
	}

	frac := float64(ratingCount) / float64(fullTrust)
	if frac > 1 {
		frac = 1
	}
	volume := floor + (1-floor)*frac
	return volume * agreement
}

// Agreement 返回 CF 预测（评分域）与内容相似度（[0,1]）的一致度：
// 两者都映射到 [0,1] 后取 1 − 差的绝对值。
func Agreement(cfNorm, contentScore float64) float64 {
	diff := cfNorm - contentScore
	if diff < 0 {
		diff = -diff
	}
	a := 1 - diff
	if a < 0 {
		a = 0
	}
	return a
}
