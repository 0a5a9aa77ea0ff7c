package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAccounts struct {
	rows map[string]*Account
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*Account, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

func (m *memAccounts) Create(_ context.Context, a *Account) error {
	if _, ok := m.rows[a.ID]; ok {
		return ErrAlreadyExists
	}
	m.rows[a.ID] = a
	return nil
}

func newTestService() *Service {
	return NewService(&memAccounts{rows: map[string]*Account{}}, []byte("test-secret"), time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "s1001", "pw", RoleStudent))
	assert.ErrorIs(t, svc.Register(ctx, "s1001", "pw", RoleStudent), ErrAlreadyExists)
	assert.ErrorIs(t, svc.Register(ctx, "x", "pw", "librarian"), ErrInvalidRole)
	assert.ErrorIs(t, svc.Register(ctx, " ", "pw", RoleStudent), ErrInvalidInput)

	token, err := svc.Login(ctx, "s1001", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.Login(ctx, "s1001", "wrong")
	assert.ErrorIs(t, err, ErrAuthFailed)
	_, err = svc.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func newProtectedRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/", RequireAuth(secret))
	g.GET("/me", func(c *gin.Context) {
		a := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": a.UserID, "role": a.Role})
	})
	g.GET("/admin", RequireRole(RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestRequireAuth(t *testing.T) {
	svc := newTestService()
	r := newProtectedRouter(svc.Secret())

	token, err := svc.IssueToken("s1001", RoleStudent)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"s1001","role":"student"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	svc := newTestService()
	r := newProtectedRouter(svc.Secret())

	student, _ := svc.IssueToken("s1001", RoleStudent)
	admin, _ := svc.IssueToken("lib01", RoleAdmin)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+student)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestActorCanActFor(t *testing.T) {
	assert.True(t, Actor{UserID: "a", Role: RoleAdmin}.CanActFor("b"))
	assert.True(t, Actor{UserID: "b", Role: RoleStudent}.CanActFor("b"))
	assert.False(t, Actor{UserID: "c", Role: RoleStudent}.CanActFor("b"))
}

func TestSQLStoreGetByIDMissing(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT .* FROM auth_accounts WHERE id =").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "role", "is_disabled", "created_at"}))

	_, err = NewStore(sqlDB).GetByID(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreGetByIDScansDisabled(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .* FROM auth_accounts").
		WithArgs("s1001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "role", "is_disabled", "created_at"}).
			AddRow("s1001", "hash", RoleStudent, int64(1), created))

	a, err := NewStore(sqlDB).GetByID(context.Background(), "s1001")
	require.NoError(t, err)
	assert.True(t, a.IsDisabled)
	assert.Equal(t, created, a.CreatedAt)
}

func TestSQLStoreCreateDuplicate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("INSERT INTO auth_accounts").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 's1001'"})
	mock.ExpectExec("INSERT INTO auth_accounts").
		WillReturnError(errors.New("connection reset"))

	store := NewStore(sqlDB)
	err = store.Create(context.Background(), &Account{ID: "s1001", Role: RoleStudent})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	err = store.Create(context.Background(), &Account{ID: "s1002", Role: RoleStudent})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "s1001", "pw", RoleStudent))
	svc.store.(*memAccounts).rows["s1001"].IsDisabled = true

	_, err := svc.Login(ctx, "s1001", "pw")
	assert.ErrorIs(t, err, ErrAuthFailed)
}
