package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - 模型错误：UNKNOWN_ENTITY, TRAINING_DIVERGENCE
//   - 重排错误：INSUFFICIENT_CANDIDATES, CONSTRAINT_INFEASIBLE
//   - 存储错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "TRAINING_DIVERGENCE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "cf", "content", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 推荐领域错误代码
	ErrorCodeUnknownEntity          = "UNKNOWN_ENTITY"          // 用户/物品不在训练集中（冷启动兜底的信号，不是 crash）
	ErrorCodeTrainingDivergence     = "TRAINING_DIVERGENCE"     // 训练出现 NaN/Inf，本轮训练失败
	ErrorCodeInsufficientCandidates = "INSUFFICIENT_CANDIDATES" // 可用候选少于请求数量
	ErrorCodeConstraintInfeasible   = "CONSTRAINT_INFEASIBLE"   // 多样性约束无法同时满足
)

// 模块名称常量
const (
	ModuleDataset = "dataset" // 评分/物品数据
	ModuleCF      = "cf"      // 协同过滤模型
	ModuleContent = "content" // 内容模型
	ModuleRank    = "rank"    // 混合打分
	ModuleRerank  = "rerank"  // 多样性重排
	ModuleStore   = "store"   // 模型制品存储
	ModuleService = "service" // 服务门面
)

func codeIs(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return codeIs(err, ErrorCodeNotFound)
}

// IsUnknownEntity 检查错误是否为 UNKNOWN_ENTITY
func IsUnknownEntity(err error) bool {
	return codeIs(err, ErrorCodeUnknownEntity)
}

// IsTrainingDivergence 检查错误是否为 TRAINING_DIVERGENCE
func IsTrainingDivergence(err error) bool {
	return codeIs(err, ErrorCodeTrainingDivergence)
}

// IsConstraintInfeasible 检查错误是否为 CONSTRAINT_INFEASIBLE
func IsConstraintInfeasible(err error) bool {
	return codeIs(err, ErrorCodeConstraintInfeasible)
}

// NewNotFoundError 创建 NOT_FOUND 错误
func NewNotFoundError(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeNotFound, message)
}

// NewUnknownEntityError 创建 UNKNOWN_ENTITY 错误
func NewUnknownEntityError(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeUnknownEntity, message)
}
