package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/xuri/excelize/v2"
)

var worksheetHeaders = []string{
	"容器", "位置", "样品", "QC类型", "分析方法", "分析物", "单位", "允许范围", "原始值", "报告值", "限定符",
}

// ExportWorksheet 导出批次台面工作表：容器×样品×分析物展开为行，
// 结果列留空供人工填写。
func (s *BatchService) ExportWorksheet(ctx context.Context, batchID string) (*excelize.File, string, error) {
	batch, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, "", err
	}

	containerIDs := make([]string, 0, len(batch.Containers))
	positionByContainer := make(map[string]string, len(batch.Containers))
	nameByContainer := make(map[string]string, len(batch.Containers))
	for _, bc := range batch.Containers {
		containerIDs = append(containerIDs, bc.ContainerID)
		positionByContainer[bc.ContainerID] = bc.Position
		if bc.Container != nil {
			nameByContainer[bc.ContainerID] = bc.Container.Name
		}
	}

	type worksheetRow struct {
		containerID string
		sample      *entity.Sample
		analysis    *entity.Analysis
		rule        *entity.AnalysisAnalyte
	}
	var rows []worksheetRow

	if len(containerIDs) > 0 {
		samples, err := s.repos.Container.FindSamplesByContainerIDs(ctx, containerIDs)
		if err != nil {
			return nil, "", fmt.Errorf("查询批次样品失败: %w", err)
		}

		analysisIDSet := make(map[string]bool)
		for _, sm := range samples {
			for _, t := range sm.Tests {
				if t.Active {
					analysisIDSet[t.AnalysisID] = true
				}
			}
		}
		rules, err := s.repos.Analysis.FindRulesByAnalysisIDs(ctx, sortedKeys(analysisIDSet))
		if err != nil {
			return nil, "", fmt.Errorf("查询分析物规则失败: %w", err)
		}
		rulesByAnalysis := make(map[string][]entity.AnalysisAnalyte)
		for _, r := range rules {
			rulesByAnalysis[r.AnalysisID] = append(rulesByAnalysis[r.AnalysisID], r)
		}

		// 容器内样品归属：一个样品可能装于多个容器，逐容器展开
		samplesByContainer := make(map[string][]*entity.Sample)
		// 通过批次容器的contents关系展开
		for _, bc := range batch.Containers {
			if bc.Container == nil {
				continue
			}
			for _, ct := range bc.Container.Contents {
				for i := range samples {
					if samples[i].ID == ct.SampleID {
						samplesByContainer[bc.ContainerID] = append(samplesByContainer[bc.ContainerID], &samples[i])
					}
				}
			}
		}

		for _, cid := range containerIDs {
			for _, sm := range samplesByContainer[cid] {
				for i := range sm.Tests {
					t := &sm.Tests[i]
					if !t.Active || t.Analysis == nil {
						continue
					}
					analysisRules := rulesByAnalysis[t.AnalysisID]
					if len(analysisRules) == 0 {
						rows = append(rows, worksheetRow{containerID: cid, sample: sm, analysis: t.Analysis})
						continue
					}
					for j := range analysisRules {
						rows = append(rows, worksheetRow{
							containerID: cid,
							sample:      sm,
							analysis:    t.Analysis,
							rule:        &analysisRules[j],
						})
					}
				}
			}
		}
	}

	f := excelize.NewFile()
	sheet := "Worksheet"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range worksheetHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, row := range rows {
		r := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), nameByContainer[row.containerID])
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), positionByContainer[row.containerID])
		f.SetCellValue(sheet, fmt.Sprintf("C%d", r), row.sample.Name)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", r), row.sample.QCType)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", r), row.analysis.Name)
		if row.rule != nil {
			if row.rule.Analyte != nil {
				f.SetCellValue(sheet, fmt.Sprintf("F%d", r), row.rule.Analyte.Name)
				f.SetCellValue(sheet, fmt.Sprintf("G%d", r), row.rule.Analyte.Units)
			}
			f.SetCellValue(sheet, fmt.Sprintf("H%d", r), formatRange(row.rule))
		}
	}

	colWidths := []float64{16, 8, 20, 10, 20, 18, 8, 14, 12, 12, 10}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("Worksheet_%s.xlsx", batch.Name)
	return f, filename, nil
}

// formatRange 允许范围展示，如 [0, 14]
func formatRange(rule *entity.AnalysisAnalyte) string {
	if rule.LowValue == nil && rule.HighValue == nil {
		return ""
	}
	low, high := "-", "-"
	if rule.LowValue != nil {
		low = fmt.Sprintf("%g", *rule.LowValue)
	}
	if rule.HighValue != nil {
		high = fmt.Sprintf("%g", *rule.HighValue)
	}
	return fmt.Sprintf("[%s, %s]", low, high)
}
