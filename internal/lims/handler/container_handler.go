package handler

import (
	"github.com/bitfantasy/lims/internal/lims/service"
	"github.com/gin-gonic/gin"
)

// ContainerHandler 容器接口
type ContainerHandler struct {
	svc *service.ContainerService
}

func NewContainerHandler(svc *service.ContainerService) *ContainerHandler {
	return &ContainerHandler{svc: svc}
}

// Create POST /containers
func (h *ContainerHandler) Create(c *gin.Context) {
	var req service.CreateContainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	container, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, container)
}

// List GET /containers
func (h *ContainerHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /containers/:id
func (h *ContainerHandler) Get(c *gin.Context) {
	container, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, container)
}

// AddContents POST /containers/:id/contents
func (h *ContainerHandler) AddContents(c *gin.Context) {
	var req service.AddContentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	contents, err := h.svc.AddContents(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, contents)
}

// CreateType POST /container-types
func (h *ContainerHandler) CreateType(c *gin.Context) {
	var req service.CreateContainerTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	ct, err := h.svc.CreateType(c.Request.Context(), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, ct)
}

// ListTypes GET /container-types
func (h *ContainerHandler) ListTypes(c *gin.Context) {
	items, err := h.svc.ListTypes(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}
