package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"gorm.io/gorm"
)

// TestRepository 检测仓库
type TestRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{db: db}
}

// Create 创建检测
func (r *TestRepository) Create(ctx context.Context, t *entity.Test) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// FindByID 根据ID查询检测
func (r *TestRepository) FindByID(ctx context.Context, id string) (*entity.Test, error) {
	var t entity.Test
	err := r.db.WithContext(ctx).
		Preload("Analysis").
		Preload("Status").
		Where("id = ? AND active = ?", id, true).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListBySample 列出样品的检测
func (r *TestRepository) ListBySample(ctx context.Context, sampleID string) ([]entity.Test, error) {
	var items []entity.Test
	err := r.db.WithContext(ctx).
		Preload("Analysis").
		Preload("Status").
		Where("sample_id = ? AND active = ?", sampleID, true).
		Order("created_at").
		Find(&items).Error
	return items, err
}
