package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"gorm.io/gorm"
)

// AnalysisRepository 分析方法仓库
type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create 创建分析方法（含规则）
func (r *AnalysisRepository) Create(ctx context.Context, a *entity.Analysis) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// FindByID 根据ID查询分析方法
func (r *AnalysisRepository) FindByID(ctx context.Context, id string) (*entity.Analysis, error) {
	var a entity.Analysis
	err := r.db.WithContext(ctx).
		Preload("Analytes", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order")
		}).
		Preload("Analytes.Analyte").
		Where("id = ? AND active = ?", id, true).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByIDs 批量查询活跃分析方法
func (r *AnalysisRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Analysis, error) {
	var items []entity.Analysis
	err := r.db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&items).Error
	return items, err
}

// List 列出活跃分析方法
func (r *AnalysisRepository) List(ctx context.Context) ([]entity.Analysis, error) {
	var items []entity.Analysis
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name").
		Find(&items).Error
	return items, err
}

// FindRulesByAnalysisIDs 批量加载分析物校验规则
func (r *AnalysisRepository) FindRulesByAnalysisIDs(ctx context.Context, analysisIDs []string) ([]entity.AnalysisAnalyte, error) {
	var rules []entity.AnalysisAnalyte
	err := r.db.WithContext(ctx).
		Preload("Analyte").
		Where("analysis_id IN ?", analysisIDs).
		Order("analysis_id, display_order").
		Find(&rules).Error
	return rules, err
}

// CreateAnalyte 创建分析物
func (r *AnalysisRepository) CreateAnalyte(ctx context.Context, a *entity.Analyte) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ListAnalytes 列出活跃分析物
func (r *AnalysisRepository) ListAnalytes(ctx context.Context) ([]entity.Analyte, error) {
	var items []entity.Analyte
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&items).Error
	return items, err
}
