package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"gorm.io/gorm"
)

// ContainerRepository 容器仓库
type ContainerRepository struct {
	db *gorm.DB
}

func NewContainerRepository(db *gorm.DB) *ContainerRepository {
	return &ContainerRepository{db: db}
}

// Create 创建容器
func (r *ContainerRepository) Create(ctx context.Context, c *entity.Container) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// FindByID 根据ID查询容器
func (r *ContainerRepository) FindByID(ctx context.Context, id string) (*entity.Container, error) {
	var c entity.Container
	err := r.db.WithContext(ctx).
		Preload("ContainerType").
		Preload("Contents").
		Where("id = ? AND active = ?", id, true).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindActiveByIDs 批量查询活跃容器，保持调用方传入顺序
func (r *ContainerRepository) FindActiveByIDs(ctx context.Context, ids []string) ([]entity.Container, error) {
	var items []entity.Container
	err := r.db.WithContext(ctx).
		Preload("Contents").
		Where("id IN ? AND active = ?", ids, true).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[string]entity.Container, len(items))
	for _, c := range items {
		byID[c.ID] = c
	}
	ordered := make([]entity.Container, 0, len(items))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// List 分页列出容器
func (r *ContainerRepository) List(ctx context.Context, page, pageSize int) ([]entity.Container, int64, error) {
	var items []entity.Container
	var total int64

	q := r.db.WithContext(ctx).Model(&entity.Container{}).Where("active = ?", true)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("ContainerType").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// AddContents 添加容器-样品关联
func (r *ContainerRepository) AddContents(ctx context.Context, c *entity.Contents) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// FindSamplesByContainerIDs 查询一组容器所装的全部样品（去重）
func (r *ContainerRepository) FindSamplesByContainerIDs(ctx context.Context, containerIDs []string) ([]entity.Sample, error) {
	var samples []entity.Sample
	err := r.db.WithContext(ctx).
		Model(&entity.Sample{}).
		Distinct("lims_samples.*").
		Joins("JOIN lims_contents ct ON ct.sample_id = lims_samples.id").
		Where("ct.container_id IN ? AND lims_samples.active = ?", containerIDs, true).
		Order("lims_samples.id").
		Preload("Project").
		Preload("Tests", "active = ?", true).
		Preload("Tests.Analysis").
		Find(&samples).Error
	return samples, err
}

// FindTypeByID 根据ID查询容器类型
func (r *ContainerRepository) FindTypeByID(ctx context.Context, id string) (*entity.ContainerType, error) {
	var ct entity.ContainerType
	err := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&ct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ct, nil
}

// FirstActiveType 第一个活跃容器类型（QC默认容器类型的兜底）
func (r *ContainerRepository) FirstActiveType(ctx context.Context) (*entity.ContainerType, error) {
	var ct entity.ContainerType
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name").
		First(&ct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ct, nil
}

// CreateType 创建容器类型
func (r *ContainerRepository) CreateType(ctx context.Context, ct *entity.ContainerType) error {
	return r.db.WithContext(ctx).Create(ct).Error
}

// ListTypes 列出活跃容器类型
func (r *ContainerRepository) ListTypes(ctx context.Context) ([]entity.ContainerType, error) {
	var items []entity.ContainerType
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&items).Error
	return items, err
}
