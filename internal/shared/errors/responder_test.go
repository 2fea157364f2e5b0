package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSold = errors.New("sold out")

func respondOnce(t *testing.T, responder *Responder, err error) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/checkout", nil)
	responder.RespondError(c, err)

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestResponder_UsesFirstMatchingMapper(t *testing.T) {
	responder := NewResponder("",
		func(err error) (ProblemDetail, bool) {
			if errors.Is(err, errSold) {
				return NewOutOfStockProblem("Vase", 2, 1), true
			}
			return ProblemDetail{}, false
		},
		func(error) (ProblemDetail, bool) { return ErrConflict, true },
	)

	rec, body := respondOnce(t, responder, fmt.Errorf("checkout: %w", errSold))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, TypeOutOfStock, body.Type)
	assert.Equal(t, "Vase", body.Extensions["productName"])
	assert.Equal(t, "/v1/checkout", body.Instance)
}

func TestResponder_FallsBackToInternal(t *testing.T) {
	rec, body := respondOnce(t, NewResponder("https://errors.example"), errors.New("db down"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "https://errors.example"+TypeInternal, body.Type)
	assert.NotContains(t, body.Detail, "db down")
}

func TestResponder_PassesProblemsThrough(t *testing.T) {
	rec, body := respondOnce(t, DefaultResponder, fmt.Errorf("wrapped: %w", ErrUnauthorized.WithDetail("missing owner")))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing owner", body.Detail)
}

func TestWithExtension_DoesNotShareMaps(t *testing.T) {
	base := ErrValidation.WithExtension("field", "quantity")
	derived := base.WithExtension("field", "productId")

	assert.Equal(t, "quantity", base.Extensions["field"])
	assert.Equal(t, "productId", derived.Extensions["field"])
}
