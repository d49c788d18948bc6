package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/auth"
	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
	"github.com/qctrack/qctrack-backend/internal/users/domain"
	"github.com/qctrack/qctrack-backend/internal/users/repository"
)

var userCols = []string{"id", "firebase_uid", "email", "display_name", "role", "last_login_at", "is_live", "created_at", "updated_at"}

func userRow(id int64, uid any, email, role string, live bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(id, uid, email, "", role, now, live, now, now)
}

func newService(t *testing.T) (*UserService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserService(repository.NewUserRepository(db)), mock
}

func TestEnsureFirebaseUser_KnownUID(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("FROM users WHERE firebase_uid").WithArgs("fb-1").
		WillReturnRows(userRow(7, "fb-1", "a@example.com", "qc", true))
	mock.ExpectQuery("SET last_login_at = now()").WithArgs(int64(7), "Ann").
		WillReturnRows(userRow(7, "fb-1", "a@example.com", "qc", true))

	u, err := svc.EnsureFirebaseUser(context.Background(), auth.Identity{UID: "fb-1", Email: "a@example.com", EmailVerified: true, Name: "Ann", DefaultRole: rbac.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, rbac.RoleQC, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureFirebaseUser_LinksByEmail(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("FROM users WHERE firebase_uid").WithArgs("fb-2").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("lower\\(email\\)").WithArgs("b@example.com").
		WillReturnRows(userRow(8, nil, "b@example.com", "manager", true))
	mock.ExpectQuery("SET firebase_uid = \\$2").WithArgs(int64(8), "fb-2").
		WillReturnRows(userRow(8, "fb-2", "b@example.com", "manager", true))

	u, err := svc.EnsureFirebaseUser(context.Background(), auth.Identity{UID: "fb-2", Email: " B@Example.com ", EmailVerified: true, DefaultRole: rbac.RoleUser})
	require.NoError(t, err)
	require.NotNil(t, u.FirebaseUID)
	assert.Equal(t, "fb-2", *u.FirebaseUID)
	assert.Equal(t, rbac.RoleManager, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureFirebaseUser_EmailLinkedElsewhere(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("FROM users WHERE firebase_uid").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("lower\\(email\\)").
		WillReturnRows(userRow(8, "fb-other", "b@example.com", "user", true))
	mock.ExpectQuery("SET firebase_uid = \\$2").WillReturnError(sql.ErrNoRows)

	_, err := svc.EnsureFirebaseUser(context.Background(), auth.Identity{UID: "fb-3", Email: "b@example.com", EmailVerified: true, DefaultRole: rbac.RoleUser})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestEnsureFirebaseUser_Provisions(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("FROM users WHERE firebase_uid").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("fb-4", "fb-4@users.invalid", "New", "user").
		WillReturnRows(userRow(9, "fb-4", "fb-4@users.invalid", "user", true))

	u, err := svc.EnsureFirebaseUser(context.Background(), auth.Identity{UID: "fb-4", Name: "New", DefaultRole: rbac.Role("bogus")})
	require.NoError(t, err)
	assert.Equal(t, int64(9), u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureFirebaseUser_ProvisionsVerifiedEmail(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("FROM users WHERE firebase_uid").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("lower\\(email\\)").WithArgs("d@example.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("fb-6", "d@example.com", "", "qc").
		WillReturnRows(userRow(10, "fb-6", "d@example.com", "qc", true))

	_, err := svc.EnsureFirebaseUser(context.Background(),
		auth.Identity{UID: "fb-6", Email: "d@example.com", EmailVerified: true, DefaultRole: rbac.RoleQC})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureFirebaseUser_UnverifiedEmailCannotLink(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("FROM users WHERE firebase_uid").WithArgs("intruder").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("lower\\(email\\)").WithArgs("boss@corp.com").
		WillReturnRows(userRow(1, nil, "boss@corp.com", "admin", true))

	_, err := svc.EnsureFirebaseUser(context.Background(),
		auth.Identity{UID: "intruder", Email: "boss@corp.com", DefaultRole: rbac.RoleUser})
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet(), "no link or insert may run")
}

func TestEnsureFirebaseUser_UnverifiedEmailNotStored(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("FROM users WHERE firebase_uid").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("lower\\(email\\)").WithArgs("new@corp.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("fb-7", "fb-7@users.invalid", "", "user").
		WillReturnRows(userRow(11, "fb-7", "fb-7@users.invalid", "user", true))

	u, err := svc.EnsureFirebaseUser(context.Background(),
		auth.Identity{UID: "fb-7", Email: "new@corp.com", DefaultRole: rbac.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "fb-7@users.invalid", u.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("FROM users WHERE firebase_uid").
		WillReturnRows(userRow(3, "fb-5", "c@example.com", "admin", false))
	mock.ExpectQuery("SET last_login_at").
		WillReturnRows(userRow(3, "fb-5", "c@example.com", "admin", false))

	p, err := svc.Resolve(context.Background(), auth.Identity{UID: "fb-5", Email: "c@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.UserID)
	assert.Equal(t, "fb-5", p.FirebaseUID)
	assert.Equal(t, rbac.RoleAdmin, p.Role)
	assert.False(t, p.IsLive)
}

func TestReplacePermissions(t *testing.T) {
	svc, mock := newService(t)
	perms := []rbac.Permission{
		{Module: rbac.ModuleProjects, CanView: true, CanEdit: true},
		{Module: rbac.ModuleReports, CanView: true},
	}

	mock.ExpectQuery("FROM users WHERE id").WithArgs(int64(4)).
		WillReturnRows(userRow(4, nil, "d@example.com", "user", true))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_permissions").WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO user_permissions").
		WithArgs(int64(4), "projects", true, false, true, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_permissions").
		WithArgs(int64(4), "reports", true, false, false, false).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM user_permissions").WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"module", "can_view", "can_add", "can_edit", "can_delete"}).
			AddRow("projects", true, false, true, false).
			AddRow("reports", true, false, false, false))

	out, err := svc.ReplacePermissions(context.Background(), 4, perms)
	require.NoError(t, err)
	assert.Equal(t, perms, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePermissions_RollsBack(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("FROM users WHERE id").
		WillReturnRows(userRow(4, nil, "d@example.com", "user", true))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_permissions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO user_permissions").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := svc.ReplacePermissions(context.Background(), 4, []rbac.Permission{{Module: rbac.ModuleProjects}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePermissions_Validation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ReplacePermissions(context.Background(), 1, []rbac.Permission{{Module: "billing"}})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.ReplacePermissions(context.Background(), 1, []rbac.Permission{
		{Module: rbac.ModuleProjects}, {Module: rbac.ModuleProjects},
	})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), domain.UserInput{Email: "nope"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Create(context.Background(), domain.UserInput{Email: "x@example.com", Role: "root"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestMe(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("FROM users WHERE id").WithArgs(int64(2)).
		WillReturnRows(userRow(2, "fb", "q@example.com", "qc", true))
	mock.ExpectQuery("FROM user_permissions").WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"module", "can_view", "can_add", "can_edit", "can_delete"}).
			AddRow("projects", true, true, false, false))

	me, err := svc.Me(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "q@example.com", me.Email)
	require.Len(t, me.Permissions, len(rbac.Modules))
	for _, p := range me.Permissions {
		if p.Module == rbac.ModuleProjects {
			assert.True(t, p.CanAdd)
		}
		if p.Module == rbac.ModuleUsers {
			assert.False(t, p.CanEdit)
		}
	}
}
