package semindex

import "github.com/kailas-cloud/semindex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput          = domain.ErrInvalidInput
	ErrTextTooShort          = domain.ErrTextTooShort
	ErrDimensionMismatch     = domain.ErrDimensionMismatch
	ErrProviderNotConfigured = domain.ErrProviderNotConfigured
	ErrQuotaExceeded         = domain.ErrQuotaExceeded
	ErrInvalidCredentials    = domain.ErrInvalidCredentials
	ErrRateLimited           = domain.ErrRateLimited
	ErrProviderUnavailable   = domain.ErrProviderUnavailable
	ErrCollectionNotFound    = domain.ErrCollectionNotFound
	ErrDocumentNotFound      = domain.ErrDocumentNotFound
)
