package project

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestServer(repo Repository) http.Handler {
	handler := NewHandler(NewService(repo))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /projects", handler.List)
	mux.HandleFunc("POST /projects", handler.Create)
	mux.HandleFunc("GET /projects/{code}", handler.Get)
	mux.HandleFunc("PUT /projects/{code}", handler.Update)
	mux.HandleFunc("DELETE /projects/{code}", handler.Delete)
	return mux
}

func TestHandler_List(t *testing.T) {
	t.Run("EmptyReturnsArray", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("List", mock.Anything).Return([]Project{}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":[],"meta":{"count":0}}`, rec.Body.String())
	})

	t.Run("HidesConfidentialByDefault", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("List", mock.Anything).Return([]Project{
			{Code: "pub", Visibility: VisibilityPublic, DomainTags: []string{}},
			{Code: "sec", Visibility: VisibilityConfidential, DomainTags: []string{}},
		}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data []Project      `json:"data"`
			Meta map[string]int `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "pub", resp.Data[0].Code)
		assert.Equal(t, 1, resp.Meta["count"])
	})

	t.Run("IncludeConfidentialFlag", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("List", mock.Anything).Return([]Project{
			{Code: "sec", Visibility: VisibilityConfidential, DomainTags: []string{}},
		}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/projects?includeConfidential=true", nil)
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"sec"`)
	})
}

func TestHandler_Get(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/projects/ghost", nil)
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	})

	t.Run("Found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", mock.Anything, "devops").Return(&Project{Code: "devops", DomainTags: []string{}}, nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/projects/devops", nil)
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"devops"`)
	})
}

func TestHandler_Create(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ExistsByCode", mock.Anything, "devops").Return(false, nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		body := `{"code":"devops","name":"DevOps Handbook","basePath":"/srv/kb/devops"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(body))
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"visibility":"public"`)
	})

	t.Run("DuplicateConflict", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ExistsByCode", mock.Anything, "devops").Return(true, nil)

		body := `{"code":"devops","name":"DevOps Handbook","basePath":"/srv/kb/devops"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(body))
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "CONFLICT")
	})

	t.Run("BlankName", func(t *testing.T) {
		repo := new(MockRepository)

		body := `{"code":"devops","name":"","basePath":"/srv/kb/devops"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(body))
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		repo := new(MockRepository)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader("{not json"))
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Update(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

		body := `{"name":"Renamed","basePath":"/srv/kb/x"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/projects/ghost", strings.NewReader(body))
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Updated", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", mock.Anything, "devops").Return(&Project{ID: "1", Code: "devops"}, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(true, nil)

		body := `{"name":"Renamed","basePath":"/srv/kb/devops"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/projects/devops", strings.NewReader(body))
		newTestServer(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"Renamed"`)
	})
}

func TestHandler_Delete(t *testing.T) {
	repo := new(MockRepository)
	repo.On("DeleteByCode", mock.Anything, "devops").Return(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/projects/devops", nil)
	newTestServer(repo).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}
