package core

// UserProfile 是用户画像：由 RatingStore 在训练期物化，服务期只读。
//
// 设计要点：
//  维度            作用
//  评分统计        置信度计算 / 冷启动判定
//  偏好流派        simple 级解释 / 多样性对照
//  高分历史        内容相似度的锚点（content_score 的参照集）
type UserProfile struct {
	UserID int64

	// 评分统计
	RatingCount int     // 评分总数，0 表示冷启动用户
	MeanRating  float64 // 平均评分

	// FavoriteGenres 是用户偏好流派：该流派下的平均评分（仅保留达到阈值的流派）
	// key: genre，value: 平均评分
	FavoriteGenres map[string]float64

	// TopRated 是用户历史高分物品（按评分降序，同分按 ID 升序），
	// 内容信号以它们为参照计算相似度。
	TopRated []int64

	// Rated 是用户已评分的全部物品及分值，召回阶段据此排除已看内容。
	Rated map[int64]float64
}

// NewUserProfile 创建一个空画像（冷启动用户）。
func NewUserProfile(userID int64) *UserProfile {
	return &UserProfile{
		UserID:         userID,
		FavoriteGenres: make(map[string]float64),
		Rated:          make(map[int64]float64),
	}
}

// IsColdStart 判断是否为无历史用户。
func (p *UserProfile) IsColdStart() bool {
	return p == nil || p.RatingCount == 0
}

// HasRated 判断用户是否已评分过某物品。
func (p *UserProfile) HasRated(movieID int64) bool {
	if p == nil || p.Rated == nil {
		return false
	}
	_, ok := p.Rated[movieID]
	return ok
}

// FavoriteGenre 返回评分最高的偏好流派；并列时取字典序最小的，保证确定性。
func (p *UserProfile) FavoriteGenre() (string, bool) {
	if p == nil || len(p.FavoriteGenres) == 0 {
		return "", false
	}
	best := ""
	bestScore := -1.0
	for g, s := range p.FavoriteGenres {
		if s > bestScore || (s == bestScore && g < best) {
			best = g
			bestScore = s
		}
	}
	return best, true
}
