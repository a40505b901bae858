package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/internal/repository"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
	"github.com/gridtrain/eval-api/pkg/middleware/requestid"
)

type auditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type companyLookup interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// dashboardInvalidator drops cached dashboard summaries after writes.
type dashboardInvalidator interface {
	InvalidateCompany(ctx context.Context, companyID string)
}

// loadError translates a repository read failure.
func loadError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(appErrors.ErrInternal, err, "failed to load "+entity)
}

// writeError translates a repository write failure.
func writeError(err error, entity, verb string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(appErrors.ErrConflict, err, entity+" already exists")
	case errors.Is(err, repository.ErrHasDependents):
		return appErrors.Wrap(appErrors.ErrConflict, err, entity+" is still referenced")
	}
	return appErrors.Wrap(appErrors.ErrInternal, err, "failed to "+verb+" "+entity)
}

func validationError(err error, msg string) error {
	return appErrors.Wrap(appErrors.ErrValidation, err, msg)
}

// ensureTenantVisible hides entities of deactivated companies from everyone
// but super admins.
func ensureTenantVisible(ctx context.Context, companies companyLookup, p authz.Principal, companyID, entity string) error {
	if companies == nil || companyID == "" || p.IsSuperAdmin() {
		return nil
	}
	company, err := companies.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
		}
		return loadError(err, "company")
	}
	if !company.Active {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return nil
}

// resolveCompany picks the company an operation targets. Non super admins
// default to their own company.
func resolveCompany(p authz.Principal, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if p.CompanyID != "" {
		return p.CompanyID, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "company_id is required")
}

type auditTrail struct {
	repo   auditRecorder
	logger *zap.Logger
}

func (a auditTrail) record(ctx context.Context, p authz.Principal, meta models.RequestMeta, action, resource, resourceID string, before, after interface{}) {
	if a.repo == nil {
		return
	}
	entry := models.NewAuditLog(models.AuditActor{UserID: p.UserID, CompanyID: p.CompanyID, Meta: meta}, action, resource, resourceID).
		WithValues(before, after)
	if err := a.repo.Create(ctx, entry); err != nil {
		a.logger.Warn("failed to record audit log",
			zap.String("resource", resource),
			zap.String("action", action),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err))
	}
}

func invalidate(ctx context.Context, d dashboardInvalidator, companyID string) {
	if d != nil && companyID != "" {
		d.InvalidateCompany(ctx, companyID)
	}
}

func checkDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	return nil
}

// checkMember verifies that userID is an active member of companyID holding one of roles.
func checkMember(ctx context.Context, users userLookup, userID, companyID, label string, roles ...models.UserRole) error {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, label+" does not exist")
		}
		return loadError(err, label)
	}
	if user.CompanyIDValue() != companyID {
		return appErrors.Clone(appErrors.ErrValidation, label+" belongs to another company")
	}
	if !user.Active {
		return appErrors.Clone(appErrors.ErrValidation, label+" is inactive")
	}
	for _, r := range roles {
		if user.Role == r {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, label+" has role "+string(user.Role))
}
