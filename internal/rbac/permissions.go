package rbac

import (
	"context"

	"go-advance/internal/domain"
)

const (
	ResourceAdvances = "advances"

	ActionCreate  = "create"
	ActionRead    = "read"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionApprove = "approve"
	ActionRepay   = "repay"

	// Role dengan hak override: boleh ubah/hapus advance yang sudah diputuskan.
	OverrideRole = "admin"
)

//go:generate mockgen -source=permissions.go -destination=mock/permissions_mock.go -package=mock
type AdvancePermissions interface {
	CanApprove(ctx context.Context, userID string) (bool, error)
	CanOverride(ctx context.Context, userID string) (bool, error)
}

type advancePermissions struct {
	service Service
}

func NewAdvancePermissions(service Service) AdvancePermissions {
	return &advancePermissions{service: service}
}

func (p *advancePermissions) CanApprove(_ context.Context, userID string) (bool, error) {
	return p.service.Enforce(domain.EnforceRequest{
		UserID:   userID,
		Resource: ResourceAdvances,
		Action:   ActionApprove,
	})
}

func (p *advancePermissions) CanOverride(_ context.Context, userID string) (bool, error) {
	return p.service.HasRole(userID, OverrideRole)
}
