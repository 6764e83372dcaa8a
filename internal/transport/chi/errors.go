package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
	"github.com/kailas-cloud/semindex/internal/logger"
)

// errorHandler writes a response for err and reports whether it matched.
type errorHandler func(w http.ResponseWriter, err error) bool

// codeBadRequest marks a request body or parameter that could not be decoded.
const codeBadRequest = "bad_request"

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		clientErrorHandler(domain.ErrInvalidInput, http.StatusBadRequest),
		clientErrorHandler(domain.ErrTextTooShort, http.StatusBadRequest),
		clientErrorHandler(domain.ErrDimensionMismatch, http.StatusBadRequest),
		clientErrorHandler(domain.ErrCollectionNotFound, http.StatusNotFound),
		clientErrorHandler(domain.ErrDocumentNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrProviderNotConfigured, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrInvalidCredentials, http.StatusBadGateway),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway),
	}
}

// clientErrorHandler matches a sentinel and echoes the full message, which
// only ever carries caller-supplied context.
func clientErrorHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, string(domain.KindOf(err)), err.Error())
		return true
	}
}

// sentinelHandler matches a provider sentinel and hides the wrapped detail.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, string(domain.KindOf(err)), domain.SafeMessage(err))
		return true
	}
}

// statusFor returns the HTTP status handleDomainError would write for err.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidInput, domain.KindTextTooShort, domain.KindDimensionMismatch:
		return http.StatusBadRequest
	case domain.KindCollectionNotFound, domain.KindDocumentNotFound:
		return http.StatusNotFound
	case domain.KindRateLimited, domain.KindQuotaExceeded, domain.KindProviderNotConfigured:
		return http.StatusServiceUnavailable
	case domain.KindInvalidCredentials, domain.KindProviderUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, string(domain.KindInternal), "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
