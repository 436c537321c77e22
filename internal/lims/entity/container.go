package entity

import "time"

// ContainerType 容器类型字典
type ContainerType struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	Name   string `json:"name" gorm:"size:50;uniqueIndex;not null"`
	Active bool   `json:"active" gorm:"default:true"`
}

func (ContainerType) TableName() string {
	return "lims_container_types"
}

// Container 容器
type Container struct {
	ID                string   `json:"id" gorm:"primaryKey;size:32"`
	Name              string   `json:"name" gorm:"size:100;uniqueIndex;not null"`
	ContainerTypeID   string   `json:"container_type_id" gorm:"size:32;not null"`
	ParentContainerID *string  `json:"parent_container_id" gorm:"size:32"`
	Concentration     *float64 `json:"concentration"`
	ConcentrationUnit string   `json:"concentration_unit" gorm:"size:20"`
	Amount            *float64 `json:"amount"`
	AmountUnit        string   `json:"amount_unit" gorm:"size:20"`
	Active            bool     `json:"active" gorm:"default:true"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContainerType *ContainerType `json:"container_type,omitempty" gorm:"foreignKey:ContainerTypeID"`
	Contents      []Contents     `json:"contents,omitempty" gorm:"foreignKey:ContainerID"`
}

func (Container) TableName() string {
	return "lims_containers"
}

// Contents 容器-样品关联（多对多，自带浓度/数量）
type Contents struct {
	ContainerID   string   `json:"container_id" gorm:"primaryKey;size:32"`
	SampleID      string   `json:"sample_id" gorm:"primaryKey;size:32"`
	Concentration *float64 `json:"concentration"`
	Amount        *float64 `json:"amount"`

	CreatedAt time.Time `json:"created_at"`

	Sample *Sample `json:"sample,omitempty" gorm:"foreignKey:SampleID"`
}

func (Contents) TableName() string {
	return "lims_contents"
}
