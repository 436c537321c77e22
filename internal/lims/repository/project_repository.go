package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"gorm.io/gorm"
)

// ProjectRepository 项目仓库
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID 根据ID查询项目
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.Project, error) {
	var p entity.Project
	err := r.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List 分页列出项目
func (r *ProjectRepository) List(ctx context.Context, page, pageSize int) ([]entity.Project, int64, error) {
	var items []entity.Project
	var total int64

	q := r.db.WithContext(ctx).Model(&entity.Project{}).Where("active = ?", true)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// AddMember 添加项目成员
func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID string) error {
	m := &entity.ProjectMember{ProjectID: projectID, UserID: userID}
	return r.db.WithContext(ctx).FirstOrCreate(m, *m).Error
}

// IsMember 用户是否为项目成员
func (r *ProjectRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}
