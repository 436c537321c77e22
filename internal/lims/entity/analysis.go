package entity

import "time"

// Analyte 分析物（可测量的物质/属性）
type Analyte struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	Name   string `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Units  string `json:"units" gorm:"size:20"`
	Active bool   `json:"active" gorm:"default:true"`
}

func (Analyte) TableName() string {
	return "lims_analytes"
}

// Analysis 分析方法
type Analysis struct {
	ID            string `json:"id" gorm:"primaryKey;size:32"`
	Name          string `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description   string `json:"description" gorm:"size:500"`
	ShelfLifeDays *int   `json:"shelf_life_days"` // 采样后N天视为过期
	Active        bool   `json:"active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Analytes []AnalysisAnalyte `json:"analytes,omitempty" gorm:"foreignKey:AnalysisID"`
}

func (Analysis) TableName() string {
	return "lims_analyses"
}

// AnalysisAnalyte 分析物校验规则（复合主键，无独立ID）
type AnalysisAnalyte struct {
	AnalysisID   string   `json:"analysis_id" gorm:"primaryKey;size:32"`
	AnalyteID    string   `json:"analyte_id" gorm:"primaryKey;size:32"`
	DataType     string   `json:"data_type" gorm:"size:10;default:numeric"` // numeric/text
	LowValue     *float64 `json:"low_value"`  // 闭区间下界
	HighValue    *float64 `json:"high_value"` // 闭区间上界
	SigFigs      *int     `json:"sig_figs"`
	IsRequired   bool     `json:"is_required" gorm:"default:true"`
	DisplayOrder int      `json:"display_order"`
	DefaultValue string   `json:"default_value" gorm:"size:50"`

	Analyte *Analyte `json:"analyte,omitempty" gorm:"foreignKey:AnalyteID"`
}

func (AnalysisAnalyte) TableName() string {
	return "lims_analysis_analytes"
}

// 分析物数据类型
const (
	DataTypeNumeric = "numeric"
	DataTypeText    = "text"
)
