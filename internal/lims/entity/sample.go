package entity

import "time"

// Sample 样品
type Sample struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	Name           string     `json:"name" gorm:"size:100;uniqueIndex;not null"`
	SampleType     string     `json:"sample_type" gorm:"size:50"`
	Matrix         string     `json:"matrix" gorm:"size:50"` // 基质：水/土壤/血清等
	QCType         string     `json:"qc_type" gorm:"size:20"` // 空值表示普通样品
	StatusID       string     `json:"status_id" gorm:"size:32;not null"`
	ProjectID      string     `json:"project_id" gorm:"size:32;not null;index"`
	ParentSampleID *string    `json:"parent_sample_id" gorm:"size:32"` // 衍生/分装样的母样
	Temperature    *float64   `json:"temperature"`
	DueDate        *time.Time `json:"due_date"`      // 缺省时回退项目交期
	DateSampled    *time.Time `json:"date_sampled"`  // 与分析货架期共同决定过期
	Notes          string     `json:"notes" gorm:"size:500"`
	Active         bool       `json:"active" gorm:"default:true"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Status  *Status  `json:"status,omitempty" gorm:"foreignKey:StatusID"`
	Tests   []Test   `json:"tests,omitempty" gorm:"foreignKey:SampleID"`
}

func (Sample) TableName() string {
	return "lims_samples"
}

// QC类型
const (
	QCTypeBlank     = "blank"
	QCTypeSpike     = "spike"
	QCTypeDuplicate = "duplicate"
	QCTypeControl   = "control"
)

// IsQC 是否QC样品
func (s *Sample) IsQC() bool {
	return s.QCType != ""
}
