package handler

import (
	"strings"

	"github.com/bitfantasy/lims/internal/lims/repository"
	"github.com/bitfantasy/lims/internal/lims/service"
	"github.com/gin-gonic/gin"
)

// SampleHandler 样品接口
type SampleHandler struct {
	svc         *service.SampleService
	testSvc     *service.TestService
	eligibility *service.EligibilityService
}

func NewSampleHandler(svc *service.SampleService, testSvc *service.TestService, eligibility *service.EligibilityService) *SampleHandler {
	return &SampleHandler{svc: svc, testSvc: testSvc, eligibility: eligibility}
}

// Create POST /samples
func (h *SampleHandler) Create(c *gin.Context) {
	var req service.CreateSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	sample, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, sample)
}

// List GET /samples
func (h *SampleHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filter := repository.SampleListFilter{
		ProjectID: c.Query("project_id"),
		QCOnly:    c.Query("qc_only") == "true",
	}

	items, total, err := h.svc.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Get GET /samples/:id
func (h *SampleHandler) Get(c *gin.Context) {
	sample, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, sample)
}

// Delete DELETE /samples/:id
func (h *SampleHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// CreateTest POST /samples/:id/tests
func (h *SampleHandler) CreateTest(c *gin.Context) {
	var body struct {
		AnalysisID   string  `json:"analysis_id" binding:"required"`
		TechnicianID *string `json:"technician_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	t, err := h.testSvc.Create(c.Request.Context(), service.CreateTestRequest{
		SampleID:     c.Param("id"),
		AnalysisID:   body.AnalysisID,
		TechnicianID: body.TechnicianID,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, t)
}

// ListTests GET /samples/:id/tests
func (h *SampleHandler) ListTests(c *gin.Context) {
	items, err := h.testSvc.ListBySample(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// ListTestResults GET /tests/:id/results
func (h *SampleHandler) ListTestResults(c *gin.Context) {
	items, err := h.testSvc.ListResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}

// ListEligible GET /samples/eligible
// 按过期/交期紧迫度排序的待测样品
func (h *SampleHandler) ListEligible(c *gin.Context) {
	page, pageSize := GetPagination(c)

	filter := service.EligibleFilter{
		ProjectID:      c.Query("project_id"),
		IncludeExpired: c.Query("include_expired") == "true",
	}
	if ids := c.Query("analysis_ids"); ids != "" {
		filter.AnalysisIDs = strings.Split(ids, ",")
	}

	result, err := h.eligibility.EligibleSamples(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}
