package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/lims/repository"
)

// qcProvisionSet 一次QC添加合成的实体组（未落库）
type qcProvisionSet struct {
	Sample    *entity.Sample
	Container *entity.Container
	Contents  *entity.Contents
}

// provisionQCSamples 按QC添加请求合成QC样品/容器/内容记录。
// 参考样品取第一个容器中的样品，从参考样品继承类型/基质/温度/交期/项目。
func (s *BatchService) provisionQCSamples(
	ctx context.Context,
	batchName string,
	compat *CompatibilityResult,
	additions []QCAdditionRequest,
	userID string,
) ([]qcProvisionSet, error) {
	reference, err := firstReferenceSample(compat)
	if err != nil {
		return nil, err
	}
	if reference.SampleType == "" || reference.Matrix == "" || reference.ProjectID == "" {
		return nil, newValidationError("参考样品 %s 缺少类型/基质/项目，无法继承", reference.Name)
	}

	containerTypeID, err := s.resolveQCContainerType(ctx, compat.Containers())
	if err != nil {
		return nil, err
	}

	received, err := s.repos.Status.FindByName(ctx, entity.StatusTypeSample, entity.SampleStatusReceived)
	if err != nil {
		return nil, fmt.Errorf("样品初始状态未配置: %w", err)
	}

	sets := make([]qcProvisionSet, 0, len(additions))
	for i, add := range additions {
		name := fmt.Sprintf("QC-%s-%d", batchName, i+1)

		sample := &entity.Sample{
			ID:          newID(),
			Name:        name,
			SampleType:  reference.SampleType,
			Matrix:      reference.Matrix,
			QCType:      add.QCType,
			StatusID:    received.ID,
			ProjectID:   reference.ProjectID,
			Temperature: reference.Temperature,
			DueDate:     reference.DueDate,
			Notes:       add.Notes,
			Active:      true,
			CreatedBy:   userID,
		}
		container := &entity.Container{
			ID:              newID(),
			Name:            name,
			ContainerTypeID: containerTypeID,
			Active:          true,
			CreatedBy:       userID,
		}
		contents := &entity.Contents{
			ContainerID: container.ID,
			SampleID:    sample.ID,
		}
		sets = append(sets, qcProvisionSet{Sample: sample, Container: container, Contents: contents})
	}
	return sets, nil
}

// firstReferenceSample 第一个容器中的参考样品。
// 混装容器（一器多样）时取样品ID最小者，保证结果可复现。
func firstReferenceSample(compat *CompatibilityResult) (*entity.Sample, error) {
	containers := compat.Containers()
	if len(containers) == 0 {
		return nil, newValidationError("没有可用的参考样品：未提供容器")
	}

	first := containers[0]
	if len(first.Contents) == 0 {
		return nil, newValidationError("没有可用的参考样品：容器 %s 为空", first.Name)
	}

	var refID string
	for _, c := range first.Contents {
		if refID == "" || c.SampleID < refID {
			refID = c.SampleID
		}
	}
	samples := compat.Samples()
	for i := range samples {
		if samples[i].ID == refID {
			return &samples[i], nil
		}
	}
	return nil, newValidationError("没有可用的参考样品：容器内样品已停用")
}

// resolveQCContainerType QC容器类型：优先第一个容器的类型，兜底第一个活跃类型
func (s *BatchService) resolveQCContainerType(ctx context.Context, containers []entity.Container) (string, error) {
	if len(containers) > 0 {
		ct, err := s.repos.Container.FindTypeByID(ctx, containers[0].ContainerTypeID)
		if err == nil {
			return ct.ID, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
	}

	ct, err := s.repos.Container.FirstActiveType(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", newValidationError("没有可用的容器类型")
		}
		return "", err
	}
	return ct.ID, nil
}
