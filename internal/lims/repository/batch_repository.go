package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"gorm.io/gorm"
)

// BatchRepository 批次仓库
type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// FindByID 根据ID查询批次（含容器关联）
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*entity.Batch, error) {
	var b entity.Batch
	err := r.db.WithContext(ctx).
		Preload("Status").
		Preload("Containers").
		Preload("Containers.Container").
		Preload("Containers.Container.Contents").
		Where("id = ? AND active = ?", id, true).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List 分页列出批次
func (r *BatchRepository) List(ctx context.Context, page, pageSize int) ([]entity.Batch, int64, error) {
	var items []entity.Batch
	var total int64

	q := r.db.WithContext(ctx).Model(&entity.Batch{}).Where("active = ?", true)
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

// SoftDelete 软删除批次
func (r *BatchRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Batch{}).
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
