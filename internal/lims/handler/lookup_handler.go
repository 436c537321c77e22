package handler

import (
	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/lims/repository"
	"github.com/gin-gonic/gin"
)

// LookupHandler 字典表接口
type LookupHandler struct {
	statusRepo *repository.StatusRepository
}

func NewLookupHandler(statusRepo *repository.StatusRepository) *LookupHandler {
	return &LookupHandler{statusRepo: statusRepo}
}

var statusTypes = []string{entity.StatusTypeSample, entity.StatusTypeTest, entity.StatusTypeBatch}

// ListStatuses GET /statuses?type=sample|test|batch
func (h *LookupHandler) ListStatuses(c *gin.Context) {
	statusType := c.Query("type")
	if statusType != "" {
		items, err := h.statusRepo.ListByType(c.Request.Context(), statusType)
		if err != nil {
			InternalError(c, err.Error())
			return
		}
		Success(c, items)
		return
	}

	all := make([]entity.Status, 0)
	for _, t := range statusTypes {
		items, err := h.statusRepo.ListByType(c.Request.Context(), t)
		if err != nil {
			InternalError(c, err.Error())
			return
		}
		all = append(all, items...)
	}
	Success(c, all)
}
