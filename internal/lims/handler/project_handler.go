package handler

import (
	"github.com/bitfantasy/lims/internal/lims/service"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目接口
type ProjectHandler struct {
	svc *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// Create POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	p, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, p)
}

// List GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, p)
}

// AddMember POST /projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.svc.AddMember(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"added": true})
}
