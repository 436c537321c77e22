package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/lims/repository"
)

// CompatibilityService 跨项目组批兼容性判定。
// 试算接口与建批强制校验走同一条路径，保证试算结果始终真实。
type CompatibilityService struct {
	containerRepo *repository.ContainerRepository
	analysisRepo  *repository.AnalysisRepository
	access        ProjectAccessChecker
	eligibility   *EligibilityService
}

func NewCompatibilityService(
	containerRepo *repository.ContainerRepository,
	analysisRepo *repository.AnalysisRepository,
	access ProjectAccessChecker,
	eligibility *EligibilityService,
) *CompatibilityService {
	return &CompatibilityService{
		containerRepo: containerRepo,
		analysisRepo:  analysisRepo,
		access:        access,
		eligibility:   eligibility,
	}
}

// CompatibilityResult 兼容性判定结果
type CompatibilityResult struct {
	Compatible        bool     `json:"compatible"`
	SharedAnalysisIDs []string `json:"shared_analysis_ids"`
	ProjectIDs        []string `json:"project_ids"`
	Reason            string   `json:"reason,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`

	// 建批复用：已解析的容器与样品，避免二次查询
	containers []entity.Container
	samples    []entity.Sample
}

// Containers 已解析的容器（按调用方传入顺序）
func (r *CompatibilityResult) Containers() []entity.Container {
	return r.containers
}

// Samples 已解析的样品（按ID升序）
func (r *CompatibilityResult) Samples() []entity.Sample {
	return r.samples
}

// Validate 兼容性判定：
// 1) 解析全部容器，缺失即NotFound；
// 2) 经contents解析去重样品，为空即校验失败；
// 3) 解析样品项目并逐一校验访问权；
// 4) 求所有样品活跃分析方法集合的交集，非空即兼容。
func (s *CompatibilityService) Validate(ctx context.Context, userID string, containerIDs []string) (*CompatibilityResult, error) {
	if len(containerIDs) == 0 {
		return nil, newValidationError("容器列表不能为空")
	}

	containers, err := s.containerRepo.FindActiveByIDs(ctx, containerIDs)
	if err != nil {
		return nil, fmt.Errorf("查询容器失败: %w", err)
	}
	if len(containers) != len(uniqueStrings(containerIDs)) {
		found := make(map[string]bool, len(containers))
		for _, c := range containers {
			found[c.ID] = true
		}
		var missing []string
		for _, id := range uniqueStrings(containerIDs) {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, &NotFoundError{Entity: "容器", IDs: missing}
	}

	samples, err := s.containerRepo.FindSamplesByContainerIDs(ctx, containerIDs)
	if err != nil {
		return nil, fmt.Errorf("查询容器内样品失败: %w", err)
	}
	if len(samples) == 0 {
		return nil, newValidationError("容器中没有样品")
	}

	projectSet := make(map[string]bool)
	for _, sm := range samples {
		projectSet[sm.ProjectID] = true
	}
	projectIDs := sortedKeys(projectSet)

	var denied []string
	for _, pid := range projectIDs {
		ok, err := s.access.HasProjectAccess(ctx, userID, pid)
		if err != nil {
			return nil, fmt.Errorf("项目访问校验失败: %w", err)
		}
		if !ok {
			denied = append(denied, pid)
		}
	}
	if len(denied) > 0 {
		return nil, &ForbiddenError{ProjectIDs: denied}
	}

	// 每个样品的活跃分析方法集合
	perSample := make([]map[string]bool, len(samples))
	allAnalyses := make(map[string]bool)
	for i, sm := range samples {
		set := make(map[string]bool)
		for _, t := range sm.Tests {
			if t.Active {
				set[t.AnalysisID] = true
				allAnalyses[t.AnalysisID] = true
			}
		}
		perSample[i] = set
	}

	shared := intersect(perSample)

	result := &CompatibilityResult{
		Compatible:        len(shared) > 0,
		SharedAnalysisIDs: sortedKeys(shared),
		ProjectIDs:        projectIDs,
		Warnings:          s.eligibility.UrgencyWarnings(samples, time.Now()),
		containers:        containers,
		samples:           samples,
	}

	if !result.Compatible {
		result.Reason = s.explainIncompatibility(ctx, samples, perSample, allAnalyses)
	}
	return result, nil
}

// explainIncompatibility 生成不兼容说明，点名无交集的分析方法
func (s *CompatibilityService) explainIncompatibility(ctx context.Context, samples []entity.Sample, perSample []map[string]bool, allAnalyses map[string]bool) string {
	names := make(map[string]string)
	if len(allAnalyses) > 0 {
		analyses, err := s.analysisRepo.FindByIDs(ctx, sortedKeys(allAnalyses))
		if err == nil {
			for _, a := range analyses {
				names[a.ID] = a.Name
			}
		}
	}

	var parts []string
	for i, sm := range samples {
		var list []string
		for _, id := range sortedKeys(perSample[i]) {
			if n, ok := names[id]; ok {
				list = append(list, n)
			} else {
				list = append(list, id)
			}
		}
		if len(list) == 0 {
			parts = append(parts, fmt.Sprintf("%s: 无活跃检测", sm.Name))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", sm.Name, strings.Join(list, "/")))
		}
	}
	return "样品之间没有共同的分析方法：" + strings.Join(parts, "；")
}

// intersect 求各样品分析方法集合的交集
func intersect(sets []map[string]bool) map[string]bool {
	if len(sets) == 0 {
		return map[string]bool{}
	}
	out := make(map[string]bool)
	for id := range sets[0] {
		inAll := true
		for _, set := range sets[1:] {
			if !set[id] {
				inAll = false
				break
			}
		}
		if inAll {
			out[id] = true
		}
	}
	return out
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
