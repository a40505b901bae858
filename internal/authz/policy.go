// Package authz holds the capability policy. Every role maps to an explicit
// permission set and Authorize is the single decision point used by services.
package authz

import (
	"time"

	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

// Resource names an entity family guarded by the policy.
type Resource string

const (
	ResourceCompany    Resource = "companies"
	ResourceUser       Resource = "users"
	ResourceCycle      Resource = "cycles"
	ResourceEvent      Resource = "events"
	ResourceScenario   Resource = "scenarios"
	ResourceStep       Resource = "steps"
	ResourceSession    Resource = "sessions"
	ResourceStepResult Resource = "step_results"
	ResourceReport     Resource = "reports"
	ResourceDashboard  Resource = "dashboard"
)

// Action is an operation on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionSubmit covers trainee driven session transitions and step results.
	ActionSubmit Action = "submit"
)

// Permission is a resource/action pair.
type Permission struct {
	Resource Resource
	Action   Action
}

// Perm is shorthand for building a Permission.
func Perm(r Resource, a Action) Permission {
	return Permission{Resource: r, Action: a}
}

// Principal is the authenticated caller, built once per request from the
// access token and passed explicitly to every service call.
type Principal struct {
	UserID    string
	Role      models.UserRole
	CompanyID string
	ExpiresAt time.Time
}

// Valid reports whether the principal identifies a caller whose token is unexpired at now.
func (p Principal) Valid(now time.Time) bool {
	if p.UserID == "" || !p.Role.Valid() {
		return false
	}
	return p.ExpiresAt.IsZero() || now.Before(p.ExpiresAt)
}

// FromClaims builds the principal carried by a validated access token.
func FromClaims(c *models.JWTClaims) Principal {
	if c == nil {
		return Principal{}
	}
	p := Principal{UserID: c.UserID, Role: c.Role, CompanyID: c.CompanyID}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}

// IsSuperAdmin reports whether the caller is unrestricted across tenants.
func (p Principal) IsSuperAdmin() bool {
	return p.Role == models.RoleSuperAdmin
}

// Target describes the entity an operation touches. Global marks tenant-less
// scenarios. OwnerID is the student the entity belongs to and UserID is the
// user record being acted on, when there is one.
type Target struct {
	CompanyID string
	Global    bool
	OwnerID   string
	UserID    string
}

type scope int

const (
	scopeAny scope = iota
	scopeCompany
	scopeOwn
)

type capabilitySet map[Permission]scope

func grant(set capabilitySet, s scope, r Resource, actions ...Action) {
	for _, a := range actions {
		set[Perm(r, a)] = s
	}
}

var allActions = []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionSubmit}

var allResources = []Resource{
	ResourceCompany, ResourceUser, ResourceCycle, ResourceEvent, ResourceScenario,
	ResourceStep, ResourceSession, ResourceStepResult, ResourceReport, ResourceDashboard,
}

var capabilities = buildCapabilities()

func buildCapabilities() map[models.UserRole]capabilitySet {
	super := capabilitySet{}
	for _, r := range allResources {
		grant(super, scopeAny, r, allActions...)
	}

	admin := capabilitySet{}
	for _, r := range allResources {
		if r == ResourceCompany {
			grant(admin, scopeCompany, r, ActionRead, ActionUpdate)
			continue
		}
		grant(admin, scopeCompany, r, allActions...)
	}

	trainer := capabilitySet{}
	grant(trainer, scopeCompany, ResourceCompany, ActionRead)
	grant(trainer, scopeCompany, ResourceUser, ActionRead)
	grant(trainer, scopeCompany, ResourceCycle, ActionRead, ActionCreate, ActionUpdate)
	grant(trainer, scopeCompany, ResourceEvent, ActionRead, ActionCreate, ActionUpdate)
	grant(trainer, scopeCompany, ResourceSession, ActionRead, ActionCreate, ActionUpdate, ActionSubmit)
	grant(trainer, scopeCompany, ResourceStepResult, ActionRead, ActionCreate, ActionUpdate, ActionSubmit)
	grant(trainer, scopeCompany, ResourceScenario, ActionRead)
	grant(trainer, scopeCompany, ResourceStep, ActionRead)
	grant(trainer, scopeCompany, ResourceReport, ActionRead, ActionCreate)
	grant(trainer, scopeCompany, ResourceDashboard, ActionRead)

	student := capabilitySet{}
	grant(student, scopeCompany, ResourceCompany, ActionRead)
	grant(student, scopeOwn, ResourceUser, ActionRead)
	grant(student, scopeOwn, ResourceCycle, ActionRead)
	grant(student, scopeOwn, ResourceEvent, ActionRead)
	grant(student, scopeOwn, ResourceSession, ActionRead, ActionSubmit)
	grant(student, scopeOwn, ResourceStepResult, ActionRead, ActionSubmit)
	grant(student, scopeCompany, ResourceScenario, ActionRead)
	grant(student, scopeCompany, ResourceStep, ActionRead)
	grant(student, scopeOwn, ResourceReport, ActionRead, ActionCreate)

	return map[models.UserRole]capabilitySet{
		models.RoleSuperAdmin: super,
		models.RoleAdmin:      admin,
		models.RoleTrainer:    trainer,
		models.RoleStudent:    student,
	}
}

// Can reports whether the role holds perm at all, ignoring the target.
func Can(role models.UserRole, perm Permission) bool {
	_, ok := capabilities[role][perm]
	return ok
}

// Authorize decides whether p may perform perm against t. It returns nil when
// allowed and a typed 401/403 error otherwise.
func Authorize(p Principal, perm Permission, t Target) error {
	if p.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	s, ok := capabilities[p.Role][perm]
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "role "+string(p.Role)+" may not "+string(perm.Action)+" "+string(perm.Resource))
	}
	if perm == Perm(ResourceUser, ActionDelete) && t.UserID != "" && t.UserID == p.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "users may not delete themselves")
	}
	if s == scopeAny {
		return nil
	}
	if t.Global {
		if perm.Action == ActionRead {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "global scenarios are managed by super admins")
	}
	if t.CompanyID == "" || t.CompanyID != p.CompanyID {
		return appErrors.Clone(appErrors.ErrForbidden, "resource belongs to another company")
	}
	if s == scopeOwn {
		owner := t.OwnerID
		if owner == "" {
			owner = t.UserID
		}
		if owner != p.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "resource belongs to another user")
		}
	}
	return nil
}

// CanAssignRole checks whether p may grant role to a user. Only super admins
// can hand out super_admin, and only admins or above manage roles at all.
func CanAssignRole(p Principal, role models.UserRole) error {
	if !role.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown role "+string(role))
	}
	switch p.Role {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleAdmin:
		if role == models.RoleSuperAdmin {
			return appErrors.Clone(appErrors.ErrForbidden, "only super admins may assign super_admin")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role "+string(p.Role)+" may not assign roles")
	}
}

// OwnScopeOnly reports whether the role only sees its own records for perm.
// Services use it to narrow list queries for students.
func OwnScopeOnly(role models.UserRole, perm Permission) bool {
	s, ok := capabilities[role][perm]
	return ok && s == scopeOwn
}
