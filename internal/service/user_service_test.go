package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

func newUserFixture() (*UserService, *mockUserStore, *mockAuditRepo) {
	companies := newMockCompanyRepo(
		&models.Company{ID: "c1", Name: "North Grid", Active: true},
		&models.Company{ID: "c2", Name: "South Grid", Active: true},
		&models.Company{ID: "c3", Name: "Closed Grid", Active: false},
	)
	users := newMockUserStore(
		&models.User{ID: "admin-1", CompanyID: strPtr("c1"), Email: "admin@north.example", Role: models.RoleAdmin, Active: true},
		&models.User{ID: "student-1", CompanyID: strPtr("c1"), Email: "s1@north.example", Role: models.RoleStudent, Active: true},
		&models.User{ID: "student-2", CompanyID: strPtr("c2"), Email: "s2@south.example", Role: models.RoleStudent, Active: true},
		&models.User{ID: "student-3", CompanyID: strPtr("c3"), Email: "s3@closed.example", Role: models.RoleStudent, Active: true},
	)
	audit := &mockAuditRepo{}
	return NewUserService(users, companies, audit, validator.New(), zap.NewNop()), users, audit
}

func TestUserServiceCreateDefaultsToCallerCompany(t *testing.T) {
	svc, users, audit := newUserFixture()
	admin := principalFor(models.RoleAdmin, "admin-1", "c1")

	user, err := svc.Create(context.Background(), admin, CreateUserRequest{
		Name: "New Trainer", Email: "Trainer@North.example", Role: models.RoleTrainer, Password: "password1",
	}, models.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, "c1", user.CompanyIDValue())
	assert.Equal(t, "trainer@north.example", user.Email)
	assert.True(t, user.Active)
	assert.NotEqual(t, "password1", user.PasswordHash)
	assert.Contains(t, users.users, user.ID)
	assert.Equal(t, []string{"CREATE:users"}, audit.actions())
}

func TestUserServiceCreateRejectsRoleEscalation(t *testing.T) {
	svc, _, _ := newUserFixture()
	admin := principalFor(models.RoleAdmin, "admin-1", "c1")

	_, err := svc.Create(context.Background(), admin, CreateUserRequest{
		Name: "Root", Email: "root@example.com", Role: models.RoleSuperAdmin, Password: "password1",
	}, models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	trainer := principalFor(models.RoleTrainer, "t1", "c1")
	_, err = svc.Create(context.Background(), trainer, CreateUserRequest{
		Name: "Someone", Email: "someone@example.com", Role: models.RoleStudent, Password: "password1",
	}, models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateOtherCompanyForbidden(t *testing.T) {
	svc, _, _ := newUserFixture()
	admin := principalFor(models.RoleAdmin, "admin-1", "c1")

	_, err := svc.Create(context.Background(), admin, CreateUserRequest{
		CompanyID: strPtr("c2"), Name: "X", Email: "x@example.com", Role: models.RoleStudent, Password: "password1",
	}, models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	svc, _, _ := newUserFixture()
	admin := principalFor(models.RoleAdmin, "admin-1", "c1")

	_, err := svc.Create(context.Background(), admin, CreateUserRequest{
		Name: "Dup", Email: "S1@north.example", Role: models.RoleStudent, Password: "password1",
	}, models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateSuperAdminWithoutCompany(t *testing.T) {
	svc, _, _ := newUserFixture()
	root := principalFor(models.RoleSuperAdmin, "root", "")

	user, err := svc.Create(context.Background(), root, CreateUserRequest{
		Name: "Ops", Email: "ops@example.com", Role: models.RoleSuperAdmin, Password: "password1",
	}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Nil(t, user.CompanyID)

	_, err = svc.Create(context.Background(), root, CreateUserRequest{
		CompanyID: strPtr("c3"), Name: "Late", Email: "late@example.com", Role: models.RoleStudent, Password: "password1",
	}, models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceGetScopes(t *testing.T) {
	svc, _, _ := newUserFixture()
	student := principalFor(models.RoleStudent, "student-1", "c1")

	user, err := svc.Get(context.Background(), student, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "student-1", user.ID)

	_, err = svc.Get(context.Background(), student, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	admin := principalFor(models.RoleAdmin, "admin-1", "c1")
	_, err = svc.Get(context.Background(), admin, "student-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), admin, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceInactiveCompanyHidden(t *testing.T) {
	svc, _, _ := newUserFixture()
	closedAdmin := principalFor(models.RoleAdmin, "admin-3", "c3")

	_, err := svc.Get(context.Background(), closedAdmin, "student-3")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	root := principalFor(models.RoleSuperAdmin, "root", "")
	_, err = svc.Get(context.Background(), root, "student-3")
	require.NoError(t, err)
}

func TestUserServiceListByCompany(t *testing.T) {
	svc, users, _ := newUserFixture()
	admin := principalFor(models.RoleAdmin, "admin-1", "c1")

	list, pagination, err := svc.ListByCompany(context.Background(), admin, models.UserFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, pagination.TotalCount)
	assert.Equal(t, "c1", users.listed.CompanyID)

	student := principalFor(models.RoleStudent, "student-1", "c1")
	_, _, err = svc.ListByCompany(context.Background(), student, models.UserFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdate(t *testing.T) {
	svc, users, audit := newUserFixture()
	admin := principalFor(models.RoleAdmin, "admin-1", "c1")
	role := models.RoleTrainer

	user, err := svc.Update(context.Background(), admin, "student-1", UpdateUserRequest{Name: strPtr("Promoted"), Role: &role}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTrainer, user.Role)
	assert.Equal(t, "Promoted", users.users["student-1"].Name)
	assert.Equal(t, []string{"UPDATE:users"}, audit.actions())

	super := models.RoleSuperAdmin
	_, err = svc.Update(context.Background(), admin, "student-1", UpdateUserRequest{Role: &super}, models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDelete(t *testing.T) {
	svc, users, _ := newUserFixture()
	admin := principalFor(models.RoleAdmin, "admin-1", "c1")

	require.NoError(t, svc.Delete(context.Background(), admin, "student-1", models.RequestMeta{}))
	assert.Equal(t, []string{"student-1"}, users.deleted)
	assert.False(t, users.users["student-1"].Active)

	err := svc.Delete(context.Background(), admin, "admin-1", models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
