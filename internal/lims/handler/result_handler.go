package handler

import (
	"github.com/bitfantasy/lims/internal/config"
	"github.com/bitfantasy/lims/internal/lims/service"
	"github.com/gin-gonic/gin"
)

// ResultHandler 结果录入接口
type ResultHandler struct {
	svc    *service.ResultService
	policy config.PolicyProvider
}

func NewResultHandler(svc *service.ResultService, policy config.PolicyProvider) *ResultHandler {
	return &ResultHandler{svc: svc, policy: policy}
}

// EnterResults POST /batches/:id/results
// 单事务提交：任一错误整批回滚
func (h *ResultHandler) EnterResults(c *gin.Context) {
	var req struct {
		Results []service.TestResultEntry `json:"results" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.svc.EnterBatchResults(c.Request.Context(), GetUserID(c), c.Param("id"), req.Results, h.policy.QCPolicy())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, resp)
}
