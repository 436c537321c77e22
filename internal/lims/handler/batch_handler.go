package handler

import (
	"github.com/bitfantasy/lims/internal/config"
	"github.com/bitfantasy/lims/internal/lims/service"
	"github.com/gin-gonic/gin"
)

// BatchHandler 批次接口
type BatchHandler struct {
	svc    *service.BatchService
	compat *service.CompatibilityService
	policy config.PolicyProvider
}

func NewBatchHandler(svc *service.BatchService, compat *service.CompatibilityService, policy config.PolicyProvider) *BatchHandler {
	return &BatchHandler{svc: svc, compat: compat, policy: policy}
}

// Create POST /batches
func (h *BatchHandler) Create(c *gin.Context) {
	var req service.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	batch, err := h.svc.CreateBatch(c.Request.Context(), GetUserID(c), req, h.policy.QCPolicy())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, batch)
}

// List GET /batches
func (h *BatchHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, batch)
}

// Delete DELETE /batches/:id
func (h *BatchHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ValidateCompatibility POST /batches/validate-compatibility
// 建批前试算，不产生任何写入
func (h *BatchHandler) ValidateCompatibility(c *gin.Context) {
	var req struct {
		ContainerIDs []string `json:"container_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.compat.Validate(c.Request.Context(), GetUserID(c), req.ContainerIDs)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// Worksheet GET /batches/:id/worksheet
func (h *BatchHandler) Worksheet(c *gin.Context) {
	f, filename, err := h.svc.ExportWorksheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
