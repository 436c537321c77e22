package handler

import (
	"github.com/bitfantasy/lims/internal/lims/service"
	"github.com/gin-gonic/gin"
)

// AnalysisHandler 分析方法接口
type AnalysisHandler struct {
	svc *service.AnalysisService
}

func NewAnalysisHandler(svc *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

// Create POST /analyses
func (h *AnalysisHandler) Create(c *gin.Context) {
	var req service.CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	analysis, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, analysis)
}

// List GET /analyses
func (h *AnalysisHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// Get GET /analyses/:id
func (h *AnalysisHandler) Get(c *gin.Context) {
	analysis, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, analysis)
}

// CreateAnalyte POST /analytes
func (h *AnalysisHandler) CreateAnalyte(c *gin.Context) {
	var req service.CreateAnalyteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	analyte, err := h.svc.CreateAnalyte(c.Request.Context(), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, analyte)
}

// ListAnalytes GET /analytes
func (h *AnalysisHandler) ListAnalytes(c *gin.Context) {
	items, err := h.svc.ListAnalytes(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}
