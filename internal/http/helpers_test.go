package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/logger"
	"github.com/questeded/quested/internal/state"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBindJSON_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.c"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req emailRequest
	ok := bindJSON(c, &req)

	assert.True(t, ok)
	assert.Equal(t, "a@b.c", req.Email)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBindJSON_MissingField(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req emailRequest
	ok := bindJSON(c, &req)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request")
}

func TestRespondStoreError_HidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondStoreError(c, logger.Nop(), &backend.Error{Code: backend.CodeInternal, Message: "disk I/O error"}, "test")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk")
}

func TestRespondStoreError_UnauthorizedRedirectsToLogin(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondStoreError(c, logger.Nop(), state.ErrNotSignedIn, "test")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)
}

func TestRespondStoreError_CarriesBackendCode(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondStoreError(c, logger.Nop(), &backend.Error{Code: backend.CodeWeakPassword, Message: "password is too short"}, "test")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"weak_password"`)
}

func TestTakeRedirect_WithoutState(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, takeRedirect(c))
}
