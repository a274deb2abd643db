package cf

import "github.com/reelsense/cinekit/core"

// Snapshot 是模型参数的可序列化快照，用于离线训练进程与服务进程之间
// 经由制品存储（store 包）传递模型。
type Snapshot struct {
	Config      Config        `json:"config"`
	GlobalMean  float64       `json:"global_mean"`
	UserIndex   map[int64]int `json:"user_index"`
	ItemIndex   map[int64]int `json:"item_index"`
	UserFactors []float64     `json:"user_factors"`
	ItemFactors []float64     `json:"item_factors"`
	UserBias    []float64     `json:"user_bias"`
	ItemBias    []float64     `json:"item_bias"`
	EpochRMSE   []float64     `json:"epoch_rmse,omitempty"`
}

// Snapshot 导出已训练模型的参数快照。未训练模型返回 nil。
func (m *Model) Snapshot() *Snapshot {
	if !m.fitted {
		return nil
	}
	return &Snapshot{
		Config:      m.cfg,
		GlobalMean:  m.globalMean,
		UserIndex:   m.userIdx,
		ItemIndex:   m.itemIdx,
		UserFactors: m.userFactors,
		ItemFactors: m.itemFactors,
		UserBias:    m.userBias,
		ItemBias:    m.itemBias,
		EpochRMSE:   m.epochRMSE,
	}
}

// Restore 从快照恢复模型参数，恢复后模型可直接服务。
func Restore(s *Snapshot) (*Model, error) {
	if s == nil {
		return nil, core.NewDomainError(core.ModuleCF, core.ErrorCodeInvalidInput, "cf: nil snapshot")
	}
	k := s.Config.Factors
	if k <= 0 ||
		len(s.UserFactors) != len(s.UserIndex)*k ||
		len(s.ItemFactors) != len(s.ItemIndex)*k ||
		len(s.UserBias) != len(s.UserIndex) ||
		len(s.ItemBias) != len(s.ItemIndex) {
		return nil, core.NewDomainError(core.ModuleCF, core.ErrorCodeInvalidInput, "cf: snapshot dimensions inconsistent")
	}

	m := New(s.Config)
	m.globalMean = s.GlobalMean
	m.userIdx = s.UserIndex
	m.itemIdx = s.ItemIndex
	m.userFactors = s.UserFactors
	m.itemFactors = s.ItemFactors
	m.userBias = s.UserBias
	m.itemBias = s.ItemBias
	m.epochRMSE = s.EpochRMSE
	m.fitted = true
	return m, nil
}
