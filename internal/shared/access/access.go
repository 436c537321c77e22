package access

import (
	"context"

	"github.com/bitfantasy/lims/internal/lims/repository"
)

// MembershipChecker 基于项目成员表的访问判定
type MembershipChecker struct {
	repo *repository.ProjectRepository
}

func NewMembershipChecker(repo *repository.ProjectRepository) *MembershipChecker {
	return &MembershipChecker{repo: repo}
}

func (c *MembershipChecker) HasProjectAccess(ctx context.Context, userID, projectID string) (bool, error) {
	return c.repo.IsMember(ctx, projectID, userID)
}

// AllowAll 放行全部项目（单租户部署/测试用）
type AllowAll struct{}

func (AllowAll) HasProjectAccess(ctx context.Context, userID, projectID string) (bool, error) {
	return true, nil
}
