package service

import (
	"strings"
	"testing"

	"github.com/bitfantasy/lims/internal/lims/entity"
)

func floatPtr(v float64) *float64 { return &v }

func TestValidateAnalyteResult(t *testing.T) {
	numericRule := &entity.AnalysisAnalyte{
		AnalysisID: "a1", AnalyteID: "an1",
		DataType:   entity.DataTypeNumeric,
		LowValue:   floatPtr(0),
		HighValue:  floatPtr(100),
		IsRequired: true,
	}
	textRule := &entity.AnalysisAnalyte{
		AnalysisID: "a1", AnalyteID: "an2",
		DataType:   entity.DataTypeText,
		IsRequired: false,
	}

	cases := []struct {
		name    string
		rule    *entity.AnalysisAnalyte
		entry   AnalyteResultEntry
		wantErr string
	}{
		{
			name:    "unconfigured analyte rejected",
			rule:    nil,
			entry:   AnalyteResultEntry{AnalyteID: "ghost", RawResult: "1"},
			wantErr: "分析物未配置",
		},
		{
			name:    "required analyte with no values",
			rule:    numericRule,
			entry:   AnalyteResultEntry{AnalyteID: "an1"},
			wantErr: "必填",
		},
		{
			name:  "valid numeric within range",
			rule:  numericRule,
			entry: AnalyteResultEntry{AnalyteID: "an1", RawResult: "42.5", ReportedResult: "42"},
		},
		{
			name:  "boundary values are inclusive",
			rule:  numericRule,
			entry: AnalyteResultEntry{AnalyteID: "an1", RawResult: "100"},
		},
		{
			name:    "raw value not numeric",
			rule:    numericRule,
			entry:   AnalyteResultEntry{AnalyteID: "an1", RawResult: "abc"},
			wantErr: "原始值不是数字",
		},
		{
			name:    "reported value not numeric",
			rule:    numericRule,
			entry:   AnalyteResultEntry{AnalyteID: "an1", RawResult: "5", ReportedResult: "n/a"},
			wantErr: "报告值不是数字",
		},
		{
			name:    "below range",
			rule:    numericRule,
			entry:   AnalyteResultEntry{AnalyteID: "an1", RawResult: "-0.1"},
			wantErr: "低于下限",
		},
		{
			name:    "above range",
			rule:    numericRule,
			entry:   AnalyteResultEntry{AnalyteID: "an1", RawResult: "100.01"},
			wantErr: "超出上限",
		},
		{
			name:  "required satisfied by reported value alone",
			rule:  numericRule,
			entry: AnalyteResultEntry{AnalyteID: "an1", ReportedResult: "3"},
		},
		{
			name:  "text analyte accepts any value",
			rule:  textRule,
			entry: AnalyteResultEntry{AnalyteID: "an2", RawResult: "positive"},
		},
		{
			name:  "optional text analyte accepts empty",
			rule:  textRule,
			entry: AnalyteResultEntry{AnalyteID: "an2"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := validateAnalyteResult(tc.rule, tc.entry)
			if tc.wantErr == "" {
				if msg != "" {
					t.Errorf("Expected pass, got error: %s", msg)
				}
				return
			}
			if !strings.Contains(msg, tc.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tc.wantErr, msg)
			}
		})
	}
}

func TestValidateAnalyteResultNoRangeRule(t *testing.T) {
	// 未配置上下界时任意数值通过
	rule := &entity.AnalysisAnalyte{
		AnalysisID: "a1", AnalyteID: "an1",
		DataType: entity.DataTypeNumeric,
	}
	if msg := validateAnalyteResult(rule, AnalyteResultEntry{AnalyteID: "an1", RawResult: "-99999"}); msg != "" {
		t.Errorf("Expected pass without range bounds, got %s", msg)
	}
}
