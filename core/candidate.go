package core

// Candidate 是单次请求内的打分记录：CF 预测、内容相似、融合分与置信度。
// 请求结束即丢弃，不回写任何模型状态。
//
// 取值域约定：
//   - CFScore / HybridScore：评分域 [0.5, 5.0]
//   - ContentScore / Fused / Confidence：[0, 1]
//
// Fused 是融合后的 [0,1] 排序值，HybridScore 是它映射回评分域的展示值；
// 排序与 MMR 都使用 Fused，对外展示使用 HybridScore。
type Candidate struct {
	MovieID      int64   `json:"movie_id"`
	CFScore      float64 `json:"cf_score"`
	ContentScore float64 `json:"content_score"`
	Fused        float64 `json:"fused"`
	HybridScore  float64 `json:"hybrid_score"`
	Confidence   float64 `json:"confidence"`

	// CFWeight / ContentWeight 记录打分时生效的权重，
	// 使 explain 的 advanced 级别可以完全由 Candidate 还原，无需回查配置。
	CFWeight      float64 `json:"cf_weight"`
	ContentWeight float64 `json:"content_weight"`

	// Agreement 是 CF 与内容信号的一致度 [0,1]，低一致度会触发解释层的提示语。
	Agreement float64 `json:"agreement"`
}

// 评分域边界：所有 CF 预测与混合分都会被裁剪到该区间。
const (
	MinRating = 0.5
	MaxRating = 5.0
)

// ClipRating 将分数裁剪到评分域 [0.5, 5.0]。
func ClipRating(v float64) float64 {
	if v < MinRating {
		return MinRating
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}

// NormalizeRating 将评分域的分数线性映射到 [0,1]。
func NormalizeRating(v float64) float64 {
	return (ClipRating(v) - MinRating) / (MaxRating - MinRating)
}

// DenormalizeRating 将 [0,1] 的融合值映射回评分域。
func DenormalizeRating(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return MinRating + v*(MaxRating-MinRating)
}
