package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/portfolio"
)

// Error codes returned in the error body.
const (
	CodeValidation           = "validation_error"
	CodeInfeasible           = "infeasible_goal"
	CodeSimulationTimeout    = "simulation_timeout"
	CodeNotFound             = "not_found"
	CodePortfolioUnavailable = "portfolio_unavailable"
	CodeCanceled             = "canceled"
	CodeInternal             = "internal_error"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code           string  `json:"code"`
	Message        string  `json:"message"`
	Field          string  `json:"field,omitempty"`
	Shortfall      float64 `json:"shortfall,omitempty"`
	RequestedPaths int     `json:"requested_paths,omitempty"`
}

// errorStatus maps an error to its HTTP status and body.
func errorStatus(err error) (int, ErrorDetail) {
	detail := ErrorDetail{Message: err.Error()}

	var validation *domain.ValidationError
	var infeasible *domain.InfeasibleGoalError
	var timeout *domain.SimulationTimeoutError

	switch {
	case errors.As(err, &validation):
		detail.Code = CodeValidation
		detail.Field = validation.Field
		return http.StatusBadRequest, detail
	case errors.Is(err, domain.ErrValidation):
		detail.Code = CodeValidation
		return http.StatusBadRequest, detail
	case errors.As(err, &infeasible):
		detail.Code = CodeInfeasible
		detail.Shortfall = infeasible.Shortfall
		return http.StatusUnprocessableEntity, detail
	case errors.As(err, &timeout):
		detail.Code = CodeSimulationTimeout
		detail.RequestedPaths = timeout.RequestedPaths
		return http.StatusGatewayTimeout, detail
	case errors.Is(err, domain.ErrNotFound):
		detail.Code = CodeNotFound
		return http.StatusNotFound, detail
	case errors.Is(err, portfolio.ErrUnavailable):
		detail.Code = CodePortfolioUnavailable
		return http.StatusServiceUnavailable, detail
	case errors.Is(err, context.Canceled):
		detail.Code = CodeCanceled
		return http.StatusServiceUnavailable, detail
	default:
		detail.Code = CodeInternal
		detail.Message = "internal error"
		return http.StatusInternalServerError, detail
	}
}

// writeError maps err to a status code and writes the error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, detail := errorStatus(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", code),
			zap.Error(err),
		)
	}
	writeJSON(w, code, ErrorBody{Error: detail})
}

// writeBadRequest writes a 400 for malformed input that never reached the engine.
func writeBadRequest(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorBody{Error: ErrorDetail{
		Code:    CodeValidation,
		Message: message,
		Field:   field,
	}})
}
