package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/lims/internal/config"
	"github.com/bitfantasy/lims/internal/lims/service"
	"github.com/gin-gonic/gin"
)

// Handlers LIMS处理器集合
type Handlers struct {
	Project   *ProjectHandler
	Sample    *SampleHandler
	Container *ContainerHandler
	Analysis  *AnalysisHandler
	Batch     *BatchHandler
	Result    *ResultHandler
	Lookup    *LookupHandler
}

// NewHandlers 创建LIMS处理器集合
func NewHandlers(svc *service.Services, policy config.PolicyProvider, lookup *LookupHandler) *Handlers {
	return &Handlers{
		Project:   NewProjectHandler(svc.Project),
		Sample:    NewSampleHandler(svc.Sample, svc.Test, svc.Eligibility),
		Container: NewContainerHandler(svc.Container),
		Analysis:  NewAnalysisHandler(svc.Analysis),
		Batch:     NewBatchHandler(svc.Batch, svc.Compatibility, policy),
		Result:    NewResultHandler(svc.Result, policy),
		Lookup:    lookup,
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError 按服务层错误分类映射响应。
// ValidationError 携带行级错误/QC失败明细，放入data供客户端一次性修正。
func ServiceError(c *gin.Context, err error) {
	var notFound *service.NotFoundError
	var forbidden *service.ForbiddenError
	var conflict *service.ConflictError
	var validation *service.ValidationError

	switch {
	case errors.As(err, &notFound):
		NotFound(c, notFound.Error())
	case errors.As(err, &forbidden):
		Forbidden(c, forbidden.Error())
	case errors.As(err, &conflict):
		Conflict(c, conflict.Error())
	case errors.As(err, &validation):
		data := gin.H{}
		if len(validation.Faults) > 0 {
			data["errors"] = validation.Faults
		}
		if len(validation.QCFailures) > 0 {
			data["qc_failures"] = validation.QCFailures
		}
		ErrorWithData(c, 42200, validation.Message, data)
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      int(total),
		TotalPages: totalPages,
	}
}
