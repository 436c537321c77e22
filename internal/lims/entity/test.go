package entity

import "time"

// Test 检测：一个（样品，分析方法）配对
type Test struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	SampleID     string     `json:"sample_id" gorm:"size:32;not null;index"`
	AnalysisID   string     `json:"analysis_id" gorm:"size:32;not null;index"`
	StatusID     string     `json:"status_id" gorm:"size:32;not null"`
	TechnicianID *string    `json:"technician_id" gorm:"size:32"`
	ReviewDate   *time.Time `json:"review_date"`
	Active       bool       `json:"active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sample   *Sample   `json:"sample,omitempty" gorm:"foreignKey:SampleID"`
	Analysis *Analysis `json:"analysis,omitempty" gorm:"foreignKey:AnalysisID"`
	Status   *Status   `json:"status,omitempty" gorm:"foreignKey:StatusID"`
	Results  []Result  `json:"results,omitempty" gorm:"foreignKey:TestID"`
}

func (Test) TableName() string {
	return "lims_tests"
}
