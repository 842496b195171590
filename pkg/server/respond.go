package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	perrors "github.com/matzehuels/phosphograph/pkg/errors"
	"github.com/matzehuels/phosphograph/pkg/observability"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error struct {
		Code    perrors.Code `json:"code"`
		Message string       `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var body ErrorBody
	body.Error.Code = perrors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = perrors.ErrCodeInternal
	}
	body.Error.Message = perrors.UserMessage(err)
	writeJSON(w, StatusCode(err), body)
}

// StatusCode maps an error to an HTTP status by its error code.
func StatusCode(err error) int {
	switch perrors.GetCode(err) {
	case perrors.ErrCodeInvalidInput, perrors.ErrCodeInvalidFormat, perrors.ErrCodeInvalidIdentity:
		return http.StatusBadRequest
	case perrors.ErrCodeDuplicateIdentity, perrors.ErrCodeDanglingReference:
		return http.StatusUnprocessableEntity
	case perrors.ErrCodeNotFound, perrors.ErrCodeFileNotFound, perrors.ErrCodeFocusNodeNotFound:
		return http.StatusNotFound
	case perrors.ErrCodeStaleGeneration:
		return http.StatusConflict
	case perrors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// instrument reports every request to the HTTP hooks and the logger. The
// route label is chi's matched pattern, read after routing has run.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, route)
		hooks.OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()),
			"duration", elapsed)
	})
}
