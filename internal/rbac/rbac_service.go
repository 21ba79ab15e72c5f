package rbac

import (
	"log"
	"sync"

	"go-advance/internal/domain"

	"github.com/casbin/casbin/v2"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	LoadPolicy() error
	Enforce(req domain.EnforceRequest) (bool, error)
	HasRole(userID, roleName string) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	mu       sync.Mutex
}

func NewService(repo Repository, enforcer *casbin.Enforcer) Service {
	return &service{
		repo:     repo,
		enforcer: enforcer,
	}
}

func (s *service) LoadPolicy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadPolicyUnlocked()
}

func (s *service) loadPolicyUnlocked() error {
	s.enforcer.ClearPolicy()

	// Load grouping policy
	userRoles, err := s.repo.GetUserRoles()
	if err != nil {
		return err
	}
	log.Printf("rbac load policy: user_roles=%d", len(userRoles))

	for _, ur := range userRoles {
		_, err := s.enforcer.AddGroupingPolicy(
			ur.UserID,
			ur.RoleName,
		)
		if err != nil {
			return err
		}
	}

	// Load permission policy
	rolePerms, err := s.repo.GetRolePermissions()
	if err != nil {
		return err
	}
	log.Printf("rbac load policy: role_permissions=%d", len(rolePerms))

	for _, rp := range rolePerms {
		_, err := s.enforcer.AddPolicy(
			rp.RoleName,
			rp.Resource,
			rp.Action,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadPolicyUnlocked(); err != nil {
		return false, err
	}

	allowed, err := s.enforcer.Enforce(
		req.UserID,
		req.Resource,
		req.Action,
	)
	if err != nil {
		log.Printf("rbac enforce result: user_id=%s resource=%s action=%s err=%v", req.UserID, req.Resource, req.Action, err)
		return false, err
	}

	log.Printf("rbac enforce result: user_id=%s resource=%s action=%s allowed=%t",
		req.UserID, req.Resource, req.Action, allowed)

	return allowed, nil
}

func (s *service) HasRole(userID, roleName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadPolicyUnlocked(); err != nil {
		return false, err
	}

	roles, err := s.enforcer.GetRolesForUser(userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if r == roleName {
			return true, nil
		}
	}
	return false, nil
}
