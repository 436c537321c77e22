package entity

import "time"

// Project 项目（样品归属单位，承载客户与默认交期）
type Project struct {
	ID       string     `json:"id" gorm:"primaryKey;size:32"`
	Name     string     `json:"name" gorm:"size:100;uniqueIndex;not null"`
	ClientID string     `json:"client_id" gorm:"size:32;index"`
	DueDate  *time.Time `json:"due_date"` // 样品无交期时回退到此
	Notes    string     `json:"notes" gorm:"size:500"`
	Active   bool       `json:"active" gorm:"default:true"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "lims_projects"
}

// ProjectMember 项目成员（访问控制依据）
type ProjectMember struct {
	ProjectID string    `json:"project_id" gorm:"primaryKey;size:32"`
	UserID    string    `json:"user_id" gorm:"primaryKey;size:32"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMember) TableName() string {
	return "lims_project_members"
}
