package service

import (
	"fmt"
	"strings"
)

// NotFoundError 引用的实体不存在或已停用
type NotFoundError struct {
	Entity string
	IDs    []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s不存在: %s", e.Entity, strings.Join(e.IDs, ", "))
}

// ForbiddenError 项目访问被拒绝
type ForbiddenError struct {
	ProjectIDs []string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("无权访问项目: %s", strings.Join(e.ProjectIDs, ", "))
}

// ConflictError 名称唯一性冲突
type ConflictError struct {
	Entity string
	Name   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s名称已存在: %s", e.Entity, e.Name)
}

// ResultFault 单行结果校验错误
type ResultFault struct {
	TestID    string `json:"test_id"`
	AnalyteID string `json:"analyte_id,omitempty"`
	Error     string `json:"error"`
}

// QCFailure QC失败：QC检测无任何活跃结果
type QCFailure struct {
	TestID   string `json:"test_id"`
	SampleID string `json:"sample_id"`
	Reason   string `json:"reason"`
}

// ValidationError 业务校验错误。行级错误全量累积后一次返回，
// 不逐条短路；出现即整体回滚，不存在部分写入。
type ValidationError struct {
	Message    string        `json:"message"`
	Faults     []ResultFault `json:"errors,omitempty"`
	QCFailures []QCFailure   `json:"qc_failures,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Faults) > 0 {
		return fmt.Sprintf("%s（%d处错误）", e.Message, len(e.Faults))
	}
	if len(e.QCFailures) > 0 {
		return fmt.Sprintf("%s（%d项QC失败）", e.Message, len(e.QCFailures))
	}
	return e.Message
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
