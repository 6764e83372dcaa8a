package domain

import "errors"

var (
	// ErrInvalidInput signals a missing or malformed query, collection or text.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTextTooShort signals normalized text below the minimum embeddable length.
	ErrTextTooShort = errors.New("text too short")
	// ErrDimensionMismatch signals vectors of different (or zero) length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrProviderNotConfigured signals an embedding call before the client was initialized.
	ErrProviderNotConfigured = errors.New("embedding provider not configured")
	// ErrQuotaExceeded signals an exhausted provider quota or local token budget.
	ErrQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrInvalidCredentials signals rejected provider credentials.
	ErrInvalidCredentials = errors.New("invalid provider credentials")
	// ErrRateLimited signals a provider rate limit hit. Retryable after backoff.
	ErrRateLimited = errors.New("rate limited")
	// ErrProviderUnavailable is the catch-all for other provider failures.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	// ErrCollectionNotFound signals an unknown or unconfigured collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
)

// Kind is a stable, client-safe error classification.
type Kind string

// Error kinds, one per sentinel.
const (
	KindInvalidInput          Kind = "invalid_input"
	KindTextTooShort          Kind = "text_too_short"
	KindDimensionMismatch     Kind = "dimension_mismatch"
	KindProviderNotConfigured Kind = "provider_not_configured"
	KindQuotaExceeded         Kind = "quota_exceeded"
	KindInvalidCredentials    Kind = "invalid_credentials"
	KindRateLimited           Kind = "rate_limited"
	KindProviderUnavailable   Kind = "provider_unavailable"
	KindCollectionNotFound    Kind = "collection_not_found"
	KindDocumentNotFound      Kind = "document_not_found"
	KindInternal              Kind = "internal_error"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrTextTooShort, KindTextTooShort},
	{ErrDimensionMismatch, KindDimensionMismatch},
	{ErrProviderNotConfigured, KindProviderNotConfigured},
	{ErrQuotaExceeded, KindQuotaExceeded},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrRateLimited, KindRateLimited},
	{ErrProviderUnavailable, KindProviderUnavailable},
	{ErrCollectionNotFound, KindCollectionNotFound},
	{ErrDocumentNotFound, KindDocumentNotFound},
}

// KindOf classifies an error chain. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// SafeMessage returns the sentinel text for err without exposing wrapped internals.
func SafeMessage(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err.Error()
		}
	}
	return "internal error"
}

// IsProviderError reports whether err originates from the embedding provider boundary.
func IsProviderError(err error) bool {
	switch KindOf(err) {
	case KindProviderNotConfigured, KindQuotaExceeded, KindInvalidCredentials,
		KindRateLimited, KindProviderUnavailable:
		return true
	default:
		return false
	}
}

// IsFatalForCycle reports whether err should stop further provider work in the
// current request cycle (quota and credential failures).
func IsFatalForCycle(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrInvalidCredentials)
}
