package entity

import "time"

// Batch 测试批次：一组一起上机的容器
type Batch struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	Name      string     `json:"name" gorm:"size:100;uniqueIndex;not null"`
	BatchType string     `json:"batch_type" gorm:"size:50"`
	StatusID  string     `json:"status_id" gorm:"size:32;not null"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Notes     string     `json:"notes" gorm:"size:500"`
	Active    bool       `json:"active" gorm:"default:true"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Status     *Status          `json:"status,omitempty" gorm:"foreignKey:StatusID"`
	Containers []BatchContainer `json:"containers,omitempty" gorm:"foreignKey:BatchID"`
}

func (Batch) TableName() string {
	return "lims_batches"
}

// BatchContainer 批次-容器关联（位置无序，position仅作标注）
type BatchContainer struct {
	BatchID     string `json:"batch_id" gorm:"primaryKey;size:32"`
	ContainerID string `json:"container_id" gorm:"primaryKey;size:32"`
	Position    string `json:"position" gorm:"size:20"`
	Notes       string `json:"notes" gorm:"size:200"`

	CreatedAt time.Time `json:"created_at"`

	Container *Container `json:"container,omitempty" gorm:"foreignKey:ContainerID"`
}

func (BatchContainer) TableName() string {
	return "lims_batch_containers"
}
