package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
	lookup "github.com/qctrack/qctrack-backend/internal/lookup/domain"
	"github.com/qctrack/qctrack-backend/internal/masterdata/repository"
	"github.com/qctrack/qctrack-backend/internal/masterdata/service"
)

func allowAll(rbac.Module, rbac.Action) gin.HandlerFunc {
	return func(c *gin.Context) { c.Next() }
}

func newRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	categories := repository.NewErrorCategoryRepository(db)
	h := &Handler{
		Divisions:           service.NewNamedService(repository.NewDivisionRepository(db), lookup.KindDivisions, nil),
		Products:            service.NewProductService(repository.NewProductRepository(db), nil),
		ErrorCategories:     service.NewNamedService(categories, lookup.KindErrorCategories, nil),
		ErrorSubCategories:  service.NewErrorSubCategoryService(repository.NewErrorSubCategoryRepository(db), categories, nil),
		DrawingDescriptions: service.NewDrawingDescriptionService(repository.NewDrawingDescriptionRepository(db), nil),
		ResourceRoles:       service.NewNamedService(repository.NewResourceRoleRepository(db), lookup.KindResourceRoles, nil),
		Resources:           service.NewResourceService(repository.NewResourceRepository(db), nil),
	}

	r := gin.New()
	h.Register(r.Group("/api"), allowAll)
	return r, mock
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(r *gin.Engine, method, path string, body any) (int, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var env envelope
	_ = json.Unmarshal(rr.Body.Bytes(), &env)
	return rr.Code, env
}

var namedCols = []string{"id", "name", "description", "is_live", "created_at", "updated_at"}

func TestDivisions_GetAll(t *testing.T) {
	r, mock := newRouter(t)
	now := time.Now()

	mock.ExpectQuery("FROM divisions WHERE \\(\\$1 OR is_live\\)").WithArgs(false).
		WillReturnRows(sqlmock.NewRows(namedCols).AddRow(1, "Civil", "", true, now, now))
	mock.ExpectQuery("FROM divisions WHERE \\(\\$1 OR is_live\\)").WithArgs(true).
		WillReturnRows(sqlmock.NewRows(namedCols).
			AddRow(1, "Civil", "", true, now, now).
			AddRow(2, "Retired", "", false, now, now))

	code, env := do(r, http.MethodGet, "/api/Divisions/GetAll", nil)
	require.Equal(t, http.StatusOK, code)
	var live []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &live))
	assert.Len(t, live, 1)
	assert.Equal(t, true, live[0]["isLive"])

	code, env = do(r, http.MethodGet, "/api/Divisions/GetAll?includeInactive=true", nil)
	require.Equal(t, http.StatusOK, code)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProducts_CreateAndDelete(t *testing.T) {
	r, mock := newRouter(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO products").WithArgs(int64(3), "Tower", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "division_id", "name", "description", "is_live", "created_at", "updated_at"}).
			AddRow(10, 3, "Tower", "", true, now, now))
	mock.ExpectExec("UPDATE products SET is_live").WithArgs(int64(10), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET is_live").WithArgs(int64(10), false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	code, env := do(r, http.MethodPost, "/api/Products", map[string]any{"divisionId": 3, "name": "Tower"})
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"divisionId":3`)

	code, env = do(r, http.MethodDelete, "/api/Products/10", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = do(r, http.MethodDelete, "/api/Products/10", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorSubCategories_GetByCategory(t *testing.T) {
	r, mock := newRouter(t)
	now := time.Now()

	mock.ExpectQuery("FROM error_sub_categories").WithArgs(false, int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "error_category_id", "name", "description", "is_live", "created_at", "updated_at"}).
			AddRow(1, 4, "Wrong scale", "", true, now, now))

	code, env := do(r, http.MethodGet, "/api/ErrorSubCategories/GetByCategory/4", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"errorCategoryId":4`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResources_Filters(t *testing.T) {
	r, mock := newRouter(t)

	mock.ExpectQuery("FROM resources").WithArgs(false, int64(2), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "employee_code", "resource_role_id", "division_id", "is_live", "created_at", "updated_at"}))

	code, env := do(r, http.MethodGet, "/api/Resources/GetAll?resourceRoleId=2&divisionId=5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBadRequests(t *testing.T) {
	r, _ := newRouter(t)

	code, env := do(r, http.MethodGet, "/api/DrawingDescriptions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid id", env.Error)

	code, env = do(r, http.MethodPost, "/api/ResourceRoles", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "name is required", env.Error)

	code, _ = do(r, http.MethodGet, "/api/Products/GetAll?divisionId=-1", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUpdate_NotFound(t *testing.T) {
	r, mock := newRouter(t)
	mock.ExpectQuery("UPDATE error_categories").WillReturnRows(sqlmock.NewRows(namedCols))

	code, env := do(r, http.MethodPut, "/api/ErrorCategories/8", map[string]any{"name": "Geometry", "isLive": true})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not found", env.Error)
}
