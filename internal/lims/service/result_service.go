package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bitfantasy/lims/internal/config"
	"github.com/bitfantasy/lims/internal/lims/entity"
	"gorm.io/gorm"
)

// ResultService 批量结果录入与裁决引擎
type ResultService struct {
	db *gorm.DB
}

func NewResultService(db *gorm.DB) *ResultService {
	return &ResultService{db: db}
}

// AnalyteResultEntry 单个分析物结果
type AnalyteResultEntry struct {
	AnalyteID      string `json:"analyte_id" binding:"required"`
	RawResult      string `json:"raw_result"`
	ReportedResult string `json:"reported_result"`
	Qualifiers     string `json:"qualifiers"`
}

// TestResultEntry 单个检测的结果提交
type TestResultEntry struct {
	TestID         string               `json:"test_id" binding:"required"`
	AnalyteResults []AnalyteResultEntry `json:"analyte_results" binding:"required"`
}

// EnterResultsResponse 结果录入响应
type EnterResultsResponse struct {
	Batch    *entity.Batch `json:"batch"`
	Warnings []string      `json:"warnings,omitempty"`
}

// EnterBatchResults 批量录入结果并级联状态。
// 整个流程单事务执行：校验错误全量累积；任一行失败全部回滚，
// 不存在部分写入。(检测，分析物)原地更新，重复提交幂等。
func (s *ResultService) EnterBatchResults(
	ctx context.Context,
	userID, batchID string,
	entries []TestResultEntry,
	policy config.QCPolicy,
) (*EnterResultsResponse, error) {
	if len(entries) == 0 {
		return nil, newValidationError("结果列表不能为空")
	}

	resp := &EnterResultsResponse{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 解析批次
		var batch entity.Batch
		if err := tx.Where("id = ? AND active = ?", batchID, true).First(&batch).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "批次", IDs: []string{batchID}}
			}
			return err
		}

		// 2. 批次可达的样品与检测，界定合法检测集合
		var containerIDs []string
		if err := tx.Model(&entity.BatchContainer{}).
			Where("batch_id = ?", batch.ID).
			Pluck("container_id", &containerIDs).Error; err != nil {
			return err
		}

		var samples []entity.Sample
		if len(containerIDs) > 0 {
			if err := tx.Model(&entity.Sample{}).
				Distinct("lims_samples.*").
				Joins("JOIN lims_contents ct ON ct.sample_id = lims_samples.id").
				Where("ct.container_id IN ? AND lims_samples.active = ?", containerIDs, true).
				Find(&samples).Error; err != nil {
				return err
			}
		}

		sampleIDs := make([]string, 0, len(samples))
		sampleByID := make(map[string]*entity.Sample, len(samples))
		for i := range samples {
			sampleIDs = append(sampleIDs, samples[i].ID)
			sampleByID[samples[i].ID] = &samples[i]
		}

		var tests []entity.Test
		if len(sampleIDs) > 0 {
			if err := tx.Where("sample_id IN ? AND active = ?", sampleIDs, true).
				Find(&tests).Error; err != nil {
				return err
			}
		}
		testByID := make(map[string]*entity.Test, len(tests))
		for i := range tests {
			testByID[tests[i].ID] = &tests[i]
		}

		var faults []ResultFault
		for _, entry := range entries {
			if _, ok := testByID[entry.TestID]; !ok {
				faults = append(faults, ResultFault{
					TestID: entry.TestID,
					Error:  "检测不属于该批次",
				})
			}
		}
		if len(faults) > 0 {
			return &ValidationError{Message: "存在不属于该批次的检测", Faults: faults}
		}

		// 3. 按分析方法加载规则并逐行校验，错误累积不短路
		analysisIDSet := make(map[string]bool)
		for _, entry := range entries {
			analysisIDSet[testByID[entry.TestID].AnalysisID] = true
		}
		var rules []entity.AnalysisAnalyte
		if err := tx.Where("analysis_id IN ?", sortedKeys(analysisIDSet)).
			Find(&rules).Error; err != nil {
			return err
		}
		rulesByAnalysis := make(map[string]map[string]*entity.AnalysisAnalyte)
		for i := range rules {
			r := &rules[i]
			if rulesByAnalysis[r.AnalysisID] == nil {
				rulesByAnalysis[r.AnalysisID] = make(map[string]*entity.AnalysisAnalyte)
			}
			rulesByAnalysis[r.AnalysisID][r.AnalyteID] = r
		}

		for _, entry := range entries {
			analysisRules := rulesByAnalysis[testByID[entry.TestID].AnalysisID]
			for _, ar := range entry.AnalyteResults {
				if msg := validateAnalyteResult(analysisRules[ar.AnalyteID], ar); msg != "" {
					faults = append(faults, ResultFault{
						TestID:    entry.TestID,
						AnalyteID: ar.AnalyteID,
						Error:     msg,
					})
				}
			}
		}

		// 4. 任一行出错，整体回滚
		if len(faults) > 0 {
			return &ValidationError{Message: "结果校验失败", Faults: faults}
		}

		// 5. 逐行upsert：已有活跃结果原地更新，否则新建
		submittedTestIDs := make([]string, 0, len(entries))
		for _, entry := range entries {
			submittedTestIDs = append(submittedTestIDs, entry.TestID)
		}
		var existing []entity.Result
		if err := tx.Where("test_id IN ? AND active = ?", submittedTestIDs, true).
			Find(&existing).Error; err != nil {
			return err
		}
		existingByKey := make(map[string]*entity.Result, len(existing))
		for i := range existing {
			existingByKey[existing[i].TestID+"/"+existing[i].AnalyteID] = &existing[i]
		}

		now := time.Now()
		for _, entry := range entries {
			for _, ar := range entry.AnalyteResults {
				key := entry.TestID + "/" + ar.AnalyteID
				if res, ok := existingByKey[key]; ok {
					res.RawResult = ar.RawResult
					res.ReportedResult = ar.ReportedResult
					res.Qualifiers = ar.Qualifiers
					res.EnteredBy = userID
					res.EnteredAt = now
					if err := tx.Save(res).Error; err != nil {
						return fmt.Errorf("更新结果失败: %w", err)
					}
				} else {
					res := &entity.Result{
						ID:             newID(),
						TestID:         entry.TestID,
						AnalyteID:      ar.AnalyteID,
						RawResult:      ar.RawResult,
						ReportedResult: ar.ReportedResult,
						Qualifiers:     ar.Qualifiers,
						Active:         true,
						EnteredBy:      userID,
						EnteredAt:      now,
					}
					if err := tx.Create(res).Error; err != nil {
						return fmt.Errorf("创建结果失败: %w", err)
					}
					existingByKey[key] = res
				}
			}
		}

		// 6. 检测完成判定：全部已配置分析物均有活跃结果则转Complete（单向，幂等）
		var completeStatus entity.Status
		if err := tx.Where("status_type = ? AND name = ?", entity.StatusTypeTest, entity.TestStatusComplete).
			First(&completeStatus).Error; err != nil {
			return fmt.Errorf("检测完成状态未配置: %w", err)
		}

		// 所有可达检测的活跃结果覆盖情况（含本次提交）
		allTestIDs := make([]string, 0, len(tests))
		for _, t := range tests {
			allTestIDs = append(allTestIDs, t.ID)
		}
		coveredAnalytes := make(map[string]map[string]bool)
		if len(allTestIDs) > 0 {
			var allResults []entity.Result
			if err := tx.Where("test_id IN ? AND active = ?", allTestIDs, true).
				Find(&allResults).Error; err != nil {
				return err
			}
			for _, r := range allResults {
				if coveredAnalytes[r.TestID] == nil {
					coveredAnalytes[r.TestID] = make(map[string]bool)
				}
				coveredAnalytes[r.TestID][r.AnalyteID] = true
			}
		}

		for _, entry := range entries {
			t := testByID[entry.TestID]
			if t.StatusID == completeStatus.ID {
				continue
			}
			analysisRules := rulesByAnalysis[t.AnalysisID]
			if len(analysisRules) == 0 {
				continue
			}
			covered := coveredAnalytes[t.ID]
			done := true
			for analyteID := range analysisRules {
				if !covered[analyteID] {
					done = false
					break
				}
			}
			if done {
				if err := tx.Model(&entity.Test{}).
					Where("id = ?", t.ID).
					Update("status_id", completeStatus.ID).Error; err != nil {
					return fmt.Errorf("更新检测状态失败: %w", err)
				}
				t.StatusID = completeStatus.ID
			}
		}

		// 7. QC裁决：批次内QC检测无任何活跃结果即QC失败
		var qcFailures []QCFailure
		for _, t := range tests {
			sm := sampleByID[t.SampleID]
			if sm == nil || !sm.IsQC() {
				continue
			}
			if len(coveredAnalytes[t.ID]) == 0 {
				qcFailures = append(qcFailures, QCFailure{
					TestID:   t.ID,
					SampleID: sm.ID,
					Reason:   fmt.Sprintf("QC样品 %s 的检测没有结果", sm.Name),
				})
			}
		}
		if len(qcFailures) > 0 {
			if policy.FailureBlocksBatch {
				// 策略开启：连同已校验的普通结果一起回滚
				return &ValidationError{Message: "QC失败，批次结果被拒绝", QCFailures: qcFailures}
			}
			for _, f := range qcFailures {
				resp.Warnings = append(resp.Warnings, f.Reason)
			}
		}

		// 8. 批次完成判定：可达检测全部Complete则批次转Completed并记录结束时间
		allComplete := len(tests) > 0
		for _, t := range tests {
			if t.StatusID != completeStatus.ID {
				allComplete = false
				break
			}
		}
		if allComplete {
			var batchCompleted entity.Status
			if err := tx.Where("status_type = ? AND name = ?", entity.StatusTypeBatch, entity.BatchStatusCompleted).
				First(&batchCompleted).Error; err != nil {
				return fmt.Errorf("批次完成状态未配置: %w", err)
			}
			if batch.StatusID != batchCompleted.ID {
				if err := tx.Model(&entity.Batch{}).
					Where("id = ?", batch.ID).
					Updates(map[string]interface{}{
						"status_id": batchCompleted.ID,
						"end_date":  now,
					}).Error; err != nil {
					return fmt.Errorf("更新批次状态失败: %w", err)
				}
			}
		}

		// 9. 提交后返回最新批次
		var refreshed entity.Batch
		if err := tx.Preload("Status").
			Preload("Containers").
			Preload("Containers.Container").
			Where("id = ?", batch.ID).
			First(&refreshed).Error; err != nil {
			return err
		}
		resp.Batch = &refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// validateAnalyteResult 校验单个分析物结果，返回错误信息（空串表示通过）
func validateAnalyteResult(rule *entity.AnalysisAnalyte, entry AnalyteResultEntry) string {
	if rule == nil {
		return "分析物未配置"
	}

	if rule.IsRequired && entry.RawResult == "" && entry.ReportedResult == "" {
		return "必填分析物缺少结果"
	}

	if rule.DataType != entity.DataTypeNumeric {
		return ""
	}

	var rawValue *float64
	if entry.RawResult != "" {
		v, err := strconv.ParseFloat(entry.RawResult, 64)
		if err != nil {
			return fmt.Sprintf("原始值不是数字: %s", entry.RawResult)
		}
		rawValue = &v
	}
	if entry.ReportedResult != "" {
		if _, err := strconv.ParseFloat(entry.ReportedResult, 64); err != nil {
			return fmt.Sprintf("报告值不是数字: %s", entry.ReportedResult)
		}
	}

	// 闭区间范围校验作用于原始值
	if rawValue != nil {
		if rule.LowValue != nil && *rawValue < *rule.LowValue {
			return fmt.Sprintf("原始值 %s 低于下限 %g", entry.RawResult, *rule.LowValue)
		}
		if rule.HighValue != nil && *rawValue > *rule.HighValue {
			return fmt.Sprintf("原始值 %s 超出上限 %g", entry.RawResult, *rule.HighValue)
		}
	}
	return ""
}
