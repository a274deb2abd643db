// Package cf 实现带偏置的矩阵分解（biased MF，Funk-SVD 风格）：
//
//	pred = globalMean + userBias[u] + itemBias[i] + dot(P[u], Q[i])
//
// 训练用 SGD 逐观测更新，离线执行；Fit 返回后模型不可变，
// 可被任意数量的并发请求共享调用 Predict。
package cf

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/reelsense/cinekit/core"
	"github.com/reelsense/cinekit/dataset"
)

// Config 是训练超参。所有字段都有默认值，见 DefaultConfig。
type Config struct {
	Factors           int     // 隐向量维度 k
	Epochs            int     // 训练轮数
	LearningRate      float64 // 初始学习率
	LearningRateDecay float64 // 每轮学习率衰减系数，(0,1]，1 表示不衰减
	Regularization    float64 // L2 正则系数（同时作用于偏置与因子）
	InitStdDev        float64 // 因子初始化的标准差，N(0, InitStdDev)
	Seed              int64   // 随机种子：初始化与 shuffle 都由它决定，固定则训练可复现
}

// DefaultConfig 返回默认训练超参。
func DefaultConfig() Config {
	return Config{
		Factors:           50,
		Epochs:            20,
		LearningRate:      0.005,
		LearningRateDecay: 1.0,
		Regularization:    0.02,
		InitStdDev:        0.1,
		Seed:              42,
	}
}

// Model 是训练完成后的隐因子模型。
//
// 因子采用扁平 arena 布局（len = n*k，第 i 个向量为 [i*k, (i+1)*k)）：
// Fit 期间对 arena 的独占可变访问结束后，整块转为只读共享。
type Model struct {
	cfg Config

	userIdx map[int64]int
	itemIdx map[int64]int

	userFactors []float64
	itemFactors []float64
	userBias    []float64
	itemBias    []float64
	globalMean  float64

	epochRMSE []float64
	fitted    bool
}

// New 创建未训练的模型。
func New(cfg Config) *Model {
	if cfg.Factors <= 0 {
		cfg.Factors = DefaultConfig().Factors
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = DefaultConfig().Epochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultConfig().LearningRate
	}
	if cfg.LearningRateDecay <= 0 || cfg.LearningRateDecay > 1 {
		cfg.LearningRateDecay = 1.0
	}
	if cfg.Regularization < 0 {
		cfg.Regularization = DefaultConfig().Regularization
	}
	if cfg.InitStdDev <= 0 {
		cfg.InitStdDev = DefaultConfig().InitStdDev
	}
	return &Model{cfg: cfg}
}

// Config 返回训练配置。
func (m *Model) Config() Config { return m.cfg }

// Fit 在给定评分上训练模型。
//
// 训练过程中若出现 NaN/±Inf（数值发散），立即返回 TRAINING_DIVERGENCE，
// 本轮训练作废；是否重试由调用方决定，模型内部不做静默恢复。
func (m *Model) Fit(ratings []dataset.Rating) error {
	if len(ratings) == 0 {
		return core.NewDomainError(core.ModuleCF, core.ErrorCodeInvalidInput, "cf: no ratings to fit")
	}

	// ID → 下标映射，按首次出现顺序，保证同一输入下训练可复现
	m.userIdx = make(map[int64]int)
	m.itemIdx = make(map[int64]int)
	for _, r := range ratings {
		if _, ok := m.userIdx[r.UserID]; !ok {
			m.userIdx[r.UserID] = len(m.userIdx)
		}
		if _, ok := m.itemIdx[r.MovieID]; !ok {
			m.itemIdx[r.MovieID] = len(m.itemIdx)
		}
	}
	nUsers := len(m.userIdx)
	nItems := len(m.itemIdx)
	k := m.cfg.Factors

	var total float64
	for _, r := range ratings {
		total += r.Value
	}
	m.globalMean = total / float64(len(ratings))

	rng := rand.New(rand.NewSource(m.cfg.Seed))
	m.userFactors = make([]float64, nUsers*k)
	m.itemFactors = make([]float64, nItems*k)
	for i := range m.userFactors {
		m.userFactors[i] = rng.NormFloat64() * m.cfg.InitStdDev
	}
	for i := range m.itemFactors {
		m.itemFactors[i] = rng.NormFloat64() * m.cfg.InitStdDev
	}
	m.userBias = make([]float64, nUsers)
	m.itemBias = make([]float64, nItems)

	lr := m.cfg.LearningRate
	reg := m.cfg.Regularization
	m.epochRMSE = m.epochRMSE[:0]

	pu := make([]float64, k) // 临时保存更新前的用户因子
	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		perm := rng.Perm(len(ratings))
		var sqErr float64

		for _, idx := range perm {
			r := ratings[idx]
			u := m.userIdx[r.UserID]
			i := m.itemIdx[r.MovieID]
			uf := m.userFactors[u*k : (u+1)*k]
			itf := m.itemFactors[i*k : (i+1)*k]

			pred := m.globalMean + m.userBias[u] + m.itemBias[i] + dot(uf, itf)
			if math.IsNaN(pred) || math.IsInf(pred, 0) {
				m.fitted = false
				return core.NewDomainError(core.ModuleCF, core.ErrorCodeTrainingDivergence,
					fmt.Sprintf("cf: training diverged at epoch %d (user=%d movie=%d)", epoch+1, r.UserID, r.MovieID))
			}
			err := r.Value - pred
			sqErr += err * err

			m.userBias[u] += lr * (err - reg*m.userBias[u])
			m.itemBias[i] += lr * (err - reg*m.itemBias[i])

			copy(pu, uf)
			for f := 0; f < k; f++ {
				uf[f] += lr * (err*itf[f] - reg*uf[f])
				itf[f] += lr * (err*pu[f] - reg*itf[f])
			}
		}

		rmse := math.Sqrt(sqErr / float64(len(ratings)))
		if math.IsNaN(rmse) || math.IsInf(rmse, 0) {
			m.fitted = false
			return core.NewDomainError(core.ModuleCF, core.ErrorCodeTrainingDivergence,
				fmt.Sprintf("cf: training diverged at epoch %d", epoch+1))
		}
		m.epochRMSE = append(m.epochRMSE, rmse)

		lr *= m.cfg.LearningRateDecay
	}

	m.fitted = true
	return nil
}

// Fitted 返回模型是否已训练。
func (m *Model) Fitted() bool { return m.fitted }

// EpochRMSE 返回每轮的训练 RMSE（观测训练收敛用）。
func (m *Model) EpochRMSE() []float64 { return m.epochRMSE }

// GlobalMean 返回训练集全局均分。
func (m *Model) GlobalMean() float64 { return m.globalMean }

// KnownUser 判断用户是否在训练集中出现过。
func (m *Model) KnownUser(userID int64) bool {
	_, ok := m.userIdx[userID]
	return ok
}

// KnownItem 判断物品是否在训练集中出现过。
func (m *Model) KnownItem(movieID int64) bool {
	_, ok := m.itemIdx[movieID]
	return ok
}

// Predict 预测用户对物品的评分，裁剪到 [0.5, 5.0]。
//
// 冷启动兜底（显式规则，不 panic）：
//   - 用户未知：globalMean + itemBias
//   - 物品未知：globalMean + userBias
//   - 都未知： globalMean
func (m *Model) Predict(userID, movieID int64) float64 {
	u, uOK := m.userIdx[userID]
	i, iOK := m.itemIdx[movieID]
	k := m.cfg.Factors

	var pred float64
	switch {
	case uOK && iOK:
		pred = m.globalMean + m.userBias[u] + m.itemBias[i] +
			dot(m.userFactors[u*k:(u+1)*k], m.itemFactors[i*k:(i+1)*k])
	case uOK:
		pred = m.globalMean + m.userBias[u]
	case iOK:
		pred = m.globalMean + m.itemBias[i]
	default:
		pred = m.globalMean
	}
	return core.ClipRating(pred)
}

// Evaluate 在留出集上计算 RMSE 与 MAE。
func (m *Model) Evaluate(test []dataset.Rating) (rmse, mae float64) {
	if len(test) == 0 {
		return 0, 0
	}
	var sqSum, absSum float64
	for _, r := range test {
		diff := m.Predict(r.UserID, r.MovieID) - r.Value
		sqSum += diff * diff
		absSum += math.Abs(diff)
	}
	n := float64(len(test))
	return math.Sqrt(sqSum / n), absSum / n
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
