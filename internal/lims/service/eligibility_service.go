package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/lims/repository"
)

// EligibilityService 待测样品排序：按过期与交期紧迫度排序
type EligibilityService struct {
	sampleRepo *repository.SampleRepository
}

func NewEligibilityService(sampleRepo *repository.SampleRepository) *EligibilityService {
	return &EligibilityService{sampleRepo: sampleRepo}
}

// EligibleFilter 待测查询条件
type EligibleFilter struct {
	AnalysisIDs    []string
	ProjectID      string
	IncludeExpired bool
}

// EligibleSample 候选样品及其紧迫度
type EligibleSample struct {
	Sample              entity.Sample `json:"sample"`
	ShelfLifeDays       *int          `json:"shelf_life_days"`
	DaysUntilDue        *int          `json:"days_until_due"`
	DaysUntilExpiration *int          `json:"days_until_expiration"`
	IsOverdue           bool          `json:"is_overdue"`
	IsExpired           bool          `json:"is_expired"`
}

// EligibleSamplesResult 待测查询结果
type EligibleSamplesResult struct {
	Samples      []EligibleSample `json:"samples"`
	Total        int              `json:"total"`
	ExpiredCount int              `json:"expired_count"`
	OverdueCount int              `json:"overdue_count"`
	Warnings     []string         `json:"warnings"`
}

// EligibleSamples 查询并排序待测样品。排序后再分页；
// 未设 IncludeExpired 时过期样品剔除出结果但仍计入统计。
func (s *EligibilityService) EligibleSamples(ctx context.Context, filter EligibleFilter, page, pageSize int) (*EligibleSamplesResult, error) {
	candidates, err := s.sampleRepo.FindEligible(ctx, repository.EligibleFilter{
		AnalysisIDs: filter.AnalysisIDs,
		ProjectID:   filter.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("查询候选样品失败: %w", err)
	}

	now := time.Now()
	ranked := make([]EligibleSample, 0, len(candidates))
	result := &EligibleSamplesResult{}

	for i := range candidates {
		es := computeUrgency(&candidates[i], filter.AnalysisIDs, now)
		if es.IsExpired {
			result.ExpiredCount++
		}
		if es.IsOverdue {
			result.OverdueCount++
		}
		if es.IsExpired && !filter.IncludeExpired {
			continue
		}
		ranked = append(ranked, es)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return moreUrgent(&ranked[i], &ranked[j])
	})

	result.Total = len(ranked)
	if result.ExpiredCount > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d个样品已过期", result.ExpiredCount))
	}
	if result.OverdueCount > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d个样品已逾期", result.OverdueCount))
	}

	// 排序后分页
	start := (page - 1) * pageSize
	if start >= len(ranked) {
		result.Samples = []EligibleSample{}
		return result, nil
	}
	end := start + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}
	result.Samples = ranked[start:end]
	return result, nil
}

// UrgencyWarnings 为一组样品生成过期/逾期告警（兼容性校验复用）
func (s *EligibilityService) UrgencyWarnings(samples []entity.Sample, now time.Time) []string {
	var warnings []string
	for i := range samples {
		es := computeUrgency(&samples[i], nil, now)
		if es.IsExpired {
			warnings = append(warnings, fmt.Sprintf("样品 %s 已过期", samples[i].Name))
		} else if es.IsOverdue {
			warnings = append(warnings, fmt.Sprintf("样品 %s 已逾期", samples[i].Name))
		}
	}
	return warnings
}

// computeUrgency 计算单个样品的紧迫度。
// 货架期取活跃检测所属分析方法（按需过滤）中的最小值；
// 交期缺省回退项目交期；任一输入缺失时对应天数为空。
func computeUrgency(sample *entity.Sample, analysisIDs []string, now time.Time) EligibleSample {
	es := EligibleSample{Sample: *sample}

	wanted := make(map[string]bool, len(analysisIDs))
	for _, id := range analysisIDs {
		wanted[id] = true
	}

	for _, t := range sample.Tests {
		if !t.Active || t.Analysis == nil || t.Analysis.ShelfLifeDays == nil {
			continue
		}
		if len(wanted) > 0 && !wanted[t.AnalysisID] {
			continue
		}
		if es.ShelfLifeDays == nil || *t.Analysis.ShelfLifeDays < *es.ShelfLifeDays {
			days := *t.Analysis.ShelfLifeDays
			es.ShelfLifeDays = &days
		}
	}

	dueDate := sample.DueDate
	if dueDate == nil && sample.Project != nil {
		dueDate = sample.Project.DueDate
	}
	if dueDate != nil {
		d := daysBetween(now, *dueDate)
		es.DaysUntilDue = &d
		es.IsOverdue = d < 0
	}

	if sample.DateSampled != nil && es.ShelfLifeDays != nil {
		expiration := sample.DateSampled.AddDate(0, 0, *es.ShelfLifeDays)
		d := daysBetween(now, expiration)
		es.DaysUntilExpiration = &d
		es.IsExpired = d < 0
	}

	return es
}

// moreUrgent 排序比较：过期天数升序、空值最后；同值按交期天数升序、空值最后
func moreUrgent(a, b *EligibleSample) bool {
	if c := compareNullableDays(a.DaysUntilExpiration, b.DaysUntilExpiration); c != 0 {
		return c < 0
	}
	return compareNullableDays(a.DaysUntilDue, b.DaysUntilDue) < 0
}

// compareNullableDays 空值视为最大（排最后）
func compareNullableDays(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

// daysBetween 按日历日计算天数差（to早于from时为负）。
// 归一化到UTC零点再相减，夏令时23/25小时的日子不会少算或多算一天。
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f) / (24 * time.Hour))
}
