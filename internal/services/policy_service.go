package services

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// CasbinEnforcerWrapper wraps the real Casbin enforcer to implement our interface
type CasbinEnforcerWrapper struct {
	enforcer *casbin.Enforcer
}

// NewCasbinEnforcerWrapper creates a wrapper for the real Casbin enforcer
func NewCasbinEnforcerWrapper(enforcer *casbin.Enforcer) domain.CasbinEnforcer {
	return &CasbinEnforcerWrapper{enforcer: enforcer}
}

func (w *CasbinEnforcerWrapper) AddPolicy(params ...interface{}) (bool, error) {
	return w.enforcer.AddPolicy(params...)
}

func (w *CasbinEnforcerWrapper) RemovePolicy(params ...interface{}) (bool, error) {
	return w.enforcer.RemovePolicy(params...)
}

func (w *CasbinEnforcerWrapper) Enforce(rvals ...interface{}) (bool, error) {
	return w.enforcer.Enforce(rvals...)
}

func (w *CasbinEnforcerWrapper) GetPolicy() ([][]string, error) {
	return w.enforcer.GetPolicy()
}

func (w *CasbinEnforcerWrapper) SavePolicy() error {
	return w.enforcer.SavePolicy()
}

// PolicyServiceImpl implements domain.PolicyService using Casbin
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer *casbin.Enforcer) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: NewCasbinEnforcerWrapper(enforcer),
	}
}

// NewPolicyServiceWithEnforcer creates a new policy service with a CasbinEnforcer interface (for testing)
func NewPolicyServiceWithEnforcer(enforcer domain.CasbinEnforcer) domain.PolicyService {
	return &PolicyServiceImpl{
		enforcer: enforcer,
	}
}

// AddPolicy implements domain.PolicyService
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	if role == "" || resource == "" || action == "" {
		return domain.ErrValidation("role, resource and action are required")
	}
	_, err := p.enforcer.AddPolicy(role, resource, action)
	if err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return p.enforcer.SavePolicy()
}

// RemovePolicy implements domain.PolicyService
func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	_, err := p.enforcer.RemovePolicy(role, resource, action)
	if err != nil {
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	return p.enforcer.SavePolicy()
}

// CheckPermission implements domain.PolicyService
func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	return p.enforcer.Enforce(role, resource, action)
}

// GetPolicies implements domain.PolicyService
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, _ := p.enforcer.GetPolicy()
	return policies
}
// SeedDefaults installs policies only when the policy table is empty, so
// changes made through the policy API survive restarts. It returns the
// number of policies added.
func (p *PolicyServiceImpl) SeedDefaults(policies [][]string) (int, error) {
	existing, err := p.enforcer.GetPolicy()
	if err != nil {
		return 0, fmt.Errorf("failed to load policies: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	added := 0
	for _, rule := range policies {
		params := make([]interface{}, len(rule))
		for i, v := range rule {
			params[i] = v
		}
		ok, err := p.enforcer.AddPolicy(params...)
		if err != nil {
			return added, fmt.Errorf("failed to seed policy %v: %w", rule, err)
		}
		if ok {
			added++
		}
	}
	if added > 0 {
		if err := p.enforcer.SavePolicy(); err != nil {
			return added, fmt.Errorf("failed to save seeded policies: %w", err)
		}
	}
	return added, nil
}

// DefaultPolicies are installed on first start.
func DefaultPolicies() [][]string {
	return [][]string{
		{"role_admin", "/api/auth/customers/:id", "DELETE"},
		{"role_owner", "/api/auth/customers/:id", "DELETE"},
		{"role_admin", "/api/auth/admin/*", "(GET|POST|DELETE)"},
	}
}
