package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper converts an error it recognises into a problem.
type ErrorMapper func(err error) (ProblemDetail, bool)

// Responder writes problem documents, trying each mapper before falling back to 500.
type Responder struct {
	// BaseURI is prepended to relative problem types.
	BaseURI string
	mappers []ErrorMapper
}

// NewResponder builds a responder with the mappers tried in order.
func NewResponder(baseURI string, mappers ...ErrorMapper) *Responder {
	return &Responder{BaseURI: baseURI, mappers: mappers}
}

// Respond writes problem and aborts the gin chain.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.BaseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.BaseURI + problem.Type
	}
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError maps err to a problem and writes it.
func (r *Responder) RespondError(c *gin.Context, err error) {
	r.Respond(c, r.Problem(err))
}

// Problem resolves err without writing anything.
func (r *Responder) Problem(err error) ProblemDetail {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem
	}
	for _, mapper := range r.mappers {
		if mapped, ok := mapper(err); ok {
			return mapped
		}
	}
	return ErrInternal.WithDetail(http.StatusText(http.StatusInternalServerError))
}

// DefaultResponder has no mappers and relative problem types.
var DefaultResponder = NewResponder("")

// Respond writes problem with the default responder.
func Respond(c *gin.Context, problem ProblemDetail) {
	DefaultResponder.Respond(c, problem)
}
