package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"gorm.io/gorm"
)

// SampleRepository 样品仓库
type SampleRepository struct {
	db *gorm.DB
}

func NewSampleRepository(db *gorm.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Create 创建样品
func (r *SampleRepository) Create(ctx context.Context, s *entity.Sample) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// FindByID 根据ID查询样品
func (r *SampleRepository) FindByID(ctx context.Context, id string) (*entity.Sample, error) {
	var s entity.Sample
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Status").
		Where("id = ? AND active = ?", id, true).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// SampleListFilter 样品列表过滤条件
type SampleListFilter struct {
	ProjectID string
	QCOnly    bool
}

// List 分页列出样品
func (r *SampleRepository) List(ctx context.Context, filter SampleListFilter, page, pageSize int) ([]entity.Sample, int64, error) {
	var items []entity.Sample
	var total int64

	q := r.db.WithContext(ctx).Model(&entity.Sample{}).Where("active = ?", true)
	if filter.ProjectID != "" {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.QCOnly {
		q = q.Where("qc_type <> ''")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Status").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// SoftDelete 软删除样品
func (r *SampleRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Sample{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EligibleFilter 待测样品筛选条件
type EligibleFilter struct {
	AnalysisIDs []string
	ProjectID   string
}

// FindEligible 查询待测候选样品：活跃、带活跃检测，可按项目/分析方法过滤。
// 排序与过期计算在service层完成，这里只取候选集。
func (r *SampleRepository) FindEligible(ctx context.Context, filter EligibleFilter) ([]entity.Sample, error) {
	q := r.db.WithContext(ctx).
		Model(&entity.Sample{}).
		Distinct("lims_samples.*").
		Joins("JOIN lims_tests t ON t.sample_id = lims_samples.id AND t.active = true").
		Where("lims_samples.active = ?", true)

	if filter.ProjectID != "" {
		q = q.Where("lims_samples.project_id = ?", filter.ProjectID)
	}
	if len(filter.AnalysisIDs) > 0 {
		q = q.Where("t.analysis_id IN ?", filter.AnalysisIDs)
	}

	var items []entity.Sample
	err := q.Preload("Project").
		Preload("Tests", "active = ?", true).
		Preload("Tests.Analysis").
		Find(&items).Error
	return items, err
}
