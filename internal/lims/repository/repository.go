package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories LIMS仓库集合
type Repositories struct {
	Status    *StatusRepository
	Project   *ProjectRepository
	Sample    *SampleRepository
	Container *ContainerRepository
	Analysis  *AnalysisRepository
	Test      *TestRepository
	Result    *ResultRepository
	Batch     *BatchRepository
}

// NewRepositories 创建LIMS仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Status:    NewStatusRepository(db),
		Project:   NewProjectRepository(db),
		Sample:    NewSampleRepository(db),
		Container: NewContainerRepository(db),
		Analysis:  NewAnalysisRepository(db),
		Test:      NewTestRepository(db),
		Result:    NewResultRepository(db),
		Batch:     NewBatchRepository(db),
	}
}
