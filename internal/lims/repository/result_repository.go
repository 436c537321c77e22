package repository

import (
	"context"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"gorm.io/gorm"
)

// ResultRepository 结果仓库
type ResultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// ListByTest 列出检测的活跃结果
func (r *ResultRepository) ListByTest(ctx context.Context, testID string) ([]entity.Result, error) {
	var items []entity.Result
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND active = ?", testID, true).
		Order("analyte_id").
		Find(&items).Error
	return items, err
}
