package entity

import "time"

// Result 检测结果：一个（检测，分析物）测量值。
// 同一（检测，分析物）至多一条 active 记录为权威值，重复录入原地更新。
type Result struct {
	ID              string   `json:"id" gorm:"primaryKey;size:32"`
	TestID          string   `json:"test_id" gorm:"size:32;not null;index:idx_result_test_analyte"`
	AnalyteID       string   `json:"analyte_id" gorm:"size:32;not null;index:idx_result_test_analyte"`
	RawResult       string   `json:"raw_result" gorm:"size:100"`
	ReportedResult  string   `json:"reported_result" gorm:"size:100"`
	Qualifiers      string   `json:"qualifiers" gorm:"size:50"` // 限定符，如 <、>、ND
	CalculatedValue *float64 `json:"calculated_value"`
	Active          bool     `json:"active" gorm:"default:true"`

	EnteredBy string    `json:"entered_by" gorm:"size:32"`
	EnteredAt time.Time `json:"entered_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Result) TableName() string {
	return "lims_results"
}
