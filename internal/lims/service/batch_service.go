package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/lims/internal/config"
	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/lims/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchService 批次组装：兼容性校验 + QC配置 + 原子落库
type BatchService struct {
	repos         *repository.Repositories
	db            *gorm.DB
	compatibility *CompatibilityService
	namer         NameGenerator
}

func NewBatchService(
	repos *repository.Repositories,
	db *gorm.DB,
	compatibility *CompatibilityService,
	namer NameGenerator,
) *BatchService {
	return &BatchService{repos: repos, db: db, compatibility: compatibility, namer: namer}
}

// QCAdditionRequest QC样品添加请求
type QCAdditionRequest struct {
	QCType string `json:"qc_type" binding:"required"` // blank/spike/duplicate/control
	Notes  string `json:"notes"`
}

// CreateBatchRequest 创建批次请求
type CreateBatchRequest struct {
	Name         string              `json:"name"`
	BatchType    string              `json:"batch_type"`
	StatusID     string              `json:"status_id"` // 缺省为 Created
	ContainerIDs []string            `json:"container_ids"`
	QCAdditions  []QCAdditionRequest `json:"qc_additions"`
	Notes        string              `json:"notes"`
}

// CreateBatch 组装批次。步骤2-6任一失败不留下任何批次/关联/QC实体，
// 全部写入在同一事务内提交。
func (s *BatchService) CreateBatch(ctx context.Context, userID string, req CreateBatchRequest, policy config.QCPolicy) (*entity.Batch, error) {
	// 1. 批次命名：命名服务失败时回退随机token，决不因命名失败拒绝建批
	name := req.Name
	if name == "" {
		generated, err := s.namer.GenerateName(ctx, "batch")
		if err != nil || generated == "" {
			generated = fallbackBatchName()
		}
		name = generated
	}

	// 2. 兼容性与访问权校验（与试算接口同一逻辑路径），发生在任何写入之前
	var compat *CompatibilityResult
	if len(req.ContainerIDs) > 0 {
		var err error
		compat, err = s.compatibility.Validate(ctx, userID, req.ContainerIDs)
		if err != nil {
			return nil, err
		}
		if !compat.Compatible {
			return nil, &ValidationError{Message: compat.Reason}
		}
	}

	// 3. 校验声明的批次状态
	status, err := s.resolveBatchStatus(ctx, req.StatusID)
	if err != nil {
		return nil, err
	}

	// QC策略：该批次类型强制QC时必须声明QC添加
	if policy.QCRequired(req.BatchType) && len(req.QCAdditions) == 0 {
		return nil, newValidationError("批次类型 %s 必须添加QC样品", req.BatchType)
	}

	// QC配置（仅构造实体，落库在事务内）
	var qcSets []qcProvisionSet
	if len(req.QCAdditions) > 0 {
		if compat == nil {
			return nil, newValidationError("添加QC样品时必须提供容器")
		}
		qcSets, err = s.provisionQCSamples(ctx, name, compat, req.QCAdditions, userID)
		if err != nil {
			return nil, err
		}
	}

	batch := &entity.Batch{
		ID:        newID(),
		Name:      name,
		BatchType: req.BatchType,
		StatusID:  status.ID,
		StartDate: time.Now(),
		Notes:     req.Notes,
		Active:    true,
		CreatedBy: userID,
	}

	// 4-7. 单事务落库：批次、容器关联、QC实体
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return err
		}

		for _, id := range uniqueStrings(req.ContainerIDs) {
			bc := &entity.BatchContainer{BatchID: batch.ID, ContainerID: id}
			if err := tx.Create(bc).Error; err != nil {
				return fmt.Errorf("创建批次容器关联失败: %w", err)
			}
		}

		for _, set := range qcSets {
			if err := tx.Create(set.Sample).Error; err != nil {
				return fmt.Errorf("创建QC样品失败: %w", err)
			}
			if err := tx.Create(set.Container).Error; err != nil {
				return fmt.Errorf("创建QC容器失败: %w", err)
			}
			if err := tx.Create(set.Contents).Error; err != nil {
				return fmt.Errorf("创建QC容器内容失败: %w", err)
			}
			bc := &entity.BatchContainer{BatchID: batch.ID, ContainerID: set.Container.ID}
			if err := tx.Create(bc).Error; err != nil {
				return fmt.Errorf("创建QC批次关联失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Entity: "批次", Name: name}
		}
		return nil, fmt.Errorf("创建批次失败: %w", err)
	}

	return s.Get(ctx, batch.ID)
}

// resolveBatchStatus 校验声明状态存在且活跃；缺省回退 Created
func (s *BatchService) resolveBatchStatus(ctx context.Context, statusID string) (*entity.Status, error) {
	if statusID == "" {
		status, err := s.repos.Status.FindByName(ctx, entity.StatusTypeBatch, entity.BatchStatusCreated)
		if err != nil {
			return nil, fmt.Errorf("批次初始状态未配置: %w", err)
		}
		return status, nil
	}

	status, err := s.repos.Status.FindByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newValidationError("批次状态不存在: %s", statusID)
		}
		return nil, err
	}
	if status.StatusType != entity.StatusTypeBatch || !status.Active {
		return nil, newValidationError("批次状态无效: %s", statusID)
	}
	return status, nil
}

// Get 查询批次
func (s *BatchService) Get(ctx context.Context, id string) (*entity.Batch, error) {
	b, err := s.repos.Batch.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "批次", IDs: []string{id}}
		}
		return nil, err
	}
	return b, nil
}

// List 分页列出批次
func (s *BatchService) List(ctx context.Context, page, pageSize int) ([]entity.Batch, int64, error) {
	return s.repos.Batch.List(ctx, page, pageSize)
}

// Delete 软删除批次
func (s *BatchService) Delete(ctx context.Context, id string) error {
	err := s.repos.Batch.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: "批次", IDs: []string{id}}
	}
	return err
}

// fallbackBatchName 命名服务不可用时的唯一兜底名
func fallbackBatchName() string {
	return "B-" + uuid.New().String()[:8]
}
