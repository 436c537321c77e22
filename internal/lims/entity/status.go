package entity

// Status 状态字典（样品/检测/批次共用）
type Status struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	Name       string `json:"name" gorm:"size:50;not null;uniqueIndex:idx_status_type_name"`
	StatusType string `json:"status_type" gorm:"size:20;not null;uniqueIndex:idx_status_type_name"` // sample/test/batch
	Active     bool   `json:"active" gorm:"default:true"`
}

func (Status) TableName() string {
	return "lims_statuses"
}

// 状态类别
const (
	StatusTypeSample = "sample"
	StatusTypeTest   = "test"
	StatusTypeBatch  = "batch"
)

// 样品状态
const (
	SampleStatusReceived = "Received"
	SampleStatusDisposed = "Disposed"
)

// 检测状态
const (
	TestStatusInProcess  = "In Process"
	TestStatusInAnalysis = "In Analysis"
	TestStatusComplete   = "Complete"
)

// 批次状态
const (
	BatchStatusCreated   = "Created"
	BatchStatusInProcess = "In Process"
	BatchStatusCompleted = "Completed"
)

// ValidTestTransitions 合法的检测状态流转（单向，不可回退）
var ValidTestTransitions = map[string][]string{
	TestStatusInProcess:  {TestStatusInAnalysis, TestStatusComplete},
	TestStatusInAnalysis: {TestStatusComplete},
}

// ValidBatchTransitions 合法的批次状态流转
var ValidBatchTransitions = map[string][]string{
	BatchStatusCreated:   {BatchStatusInProcess, BatchStatusCompleted},
	BatchStatusInProcess: {BatchStatusCompleted},
}

// DefaultStatuses 初始状态字典（启动时按名称幂等种子）
func DefaultStatuses() []Status {
	return []Status{
		{Name: SampleStatusReceived, StatusType: StatusTypeSample, Active: true},
		{Name: SampleStatusDisposed, StatusType: StatusTypeSample, Active: true},
		{Name: TestStatusInProcess, StatusType: StatusTypeTest, Active: true},
		{Name: TestStatusInAnalysis, StatusType: StatusTypeTest, Active: true},
		{Name: TestStatusComplete, StatusType: StatusTypeTest, Active: true},
		{Name: BatchStatusCreated, StatusType: StatusTypeBatch, Active: true},
		{Name: BatchStatusInProcess, StatusType: StatusTypeBatch, Active: true},
		{Name: BatchStatusCompleted, StatusType: StatusTypeBatch, Active: true},
	}
}
