package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/questeded/quested/internal/backend"
	"github.com/questeded/quested/internal/logger"
	"github.com/questeded/quested/internal/state"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"` // machine-readable error code
	Redirect string `json:"redirect,omitempty"`
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message  string `json:"message"`
	Data     any    `json:"data,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondStoreError maps a store or backend error onto a status code.
// Unexpected errors are logged and hidden from the client.
func respondStoreError(c *gin.Context, log *logger.Logger, err error, context string) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "context", context, "error", err)
		c.JSON(status, ErrorResponse{Error: "internal server error"})
		return
	}
	resp := ErrorResponse{Error: err.Error(), Code: code}
	if status == http.StatusUnauthorized {
		resp.Redirect = state.RouteLogin
	}
	c.JSON(status, resp)
}

var backendStatus = map[string]int{
	backend.CodeInvalidCredentials: http.StatusUnauthorized,
	backend.CodeInvalidToken:       http.StatusUnauthorized,
	backend.CodeSessionMissing:     http.StatusUnauthorized,
	backend.CodeEmailNotConfirmed:  http.StatusForbidden,
	backend.CodeUserNotFound:       http.StatusNotFound,
	backend.CodeNoRows:             http.StatusNotFound,
	backend.CodeUserAlreadyExists:  http.StatusConflict,
	backend.CodeUniqueViolation:    http.StatusConflict,
	backend.CodeWeakPassword:       http.StatusUnprocessableEntity,
	backend.CodeValidationFailed:   http.StatusBadRequest,
	backend.CodeInvalidParameter:   http.StatusBadRequest,
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, state.ErrNotSignedIn):
		return http.StatusUnauthorized, ""
	case errors.Is(err, state.ErrQuestNotFound),
		errors.Is(err, state.ErrBadgeNotFound),
		errors.Is(err, state.ErrItemNotFound),
		errors.Is(err, state.ErrSetNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, state.ErrItemLocked):
		return http.StatusConflict, ""
	case errors.Is(err, state.ErrNegativeXP):
		return http.StatusBadRequest, ""
	}
	code := backend.CodeOf(err)
	if status, ok := backendStatus[code]; ok {
		return status, code
	}
	return http.StatusInternalServerError, code
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message and the pending
// navigation of the session, if any.
func respondSuccess(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message, Data: data, Redirect: takeRedirect(c)})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// --- Request Binding ---

// bindJSON decodes the body into req or responds with a 400 error and
// returns false.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return false
	}
	return true
}
