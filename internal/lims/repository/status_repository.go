package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusRepository 状态字典仓库
type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// FindByID 根据ID查询状态
func (r *StatusRepository) FindByID(ctx context.Context, id string) (*entity.Status, error) {
	var st entity.Status
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// FindByName 按类别+名称查询状态
func (r *StatusRepository) FindByName(ctx context.Context, statusType, name string) (*entity.Status, error) {
	var st entity.Status
	err := r.db.WithContext(ctx).
		Where("status_type = ? AND name = ?", statusType, name).
		First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// ListByType 按类别列出活跃状态
func (r *StatusRepository) ListByType(ctx context.Context, statusType string) ([]entity.Status, error) {
	var items []entity.Status
	err := r.db.WithContext(ctx).
		Where("status_type = ? AND active = ?", statusType, true).
		Order("name").
		Find(&items).Error
	return items, err
}

// SeedDefaults 幂等写入初始状态字典
func (r *StatusRepository) SeedDefaults(ctx context.Context) error {
	for _, st := range entity.DefaultStatuses() {
		var existing entity.Status
		err := r.db.WithContext(ctx).
			Where("status_type = ? AND name = ?", st.StatusType, st.Name).
			First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		st.ID = uuid.New().String()[:32]
		if err := r.db.WithContext(ctx).Create(&st).Error; err != nil {
			return err
		}
	}
	return nil
}
