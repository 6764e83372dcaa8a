// Package autoindex attaches embeddings to documents on the write path.
package autoindex

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/domain/text"
	"github.com/kailas-cloud/semindex/internal/metrics"
)

// Embedder vectorizes document text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.Embedding, error)
}

// Collections resolves which collections are indexed and from which fields.
type Collections interface {
	Indexable(name string) bool
	Fields(name string) ([]string, bool)
}

// Config toggles the hook.
type Config struct {
	Enabled bool
	// MinTextLength skips extracted text shorter than this many characters.
	MinTextLength int
}

// Hook embeds write payloads before they are persisted. It never fails a write.
type Hook struct {
	embed  Embedder
	colls  Collections
	cfg    Config
	logger *zap.Logger
}

// New creates a write hook.
func New(embed Embedder, colls Collections, cfg Config, logger *zap.Logger) *Hook {
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = text.DefaultMinLength
	}
	return &Hook{embed: embed, colls: colls, cfg: cfg, logger: logger}
}

// BeforeWrite returns the payload with vector and metadata set, or the
// payload unchanged when the collection is not indexed, the text is too
// short or embedding fails.
func (h *Hook) BeforeWrite(ctx context.Context, collectionID string, payload map[string]any) map[string]any {
	if !h.cfg.Enabled || !h.colls.Indexable(collectionID) {
		metrics.AutoIndexTotal.WithLabelValues("skipped_collection").Inc()
		return payload
	}

	fields, _ := h.colls.Fields(collectionID)
	raw := ExtractText(payload, fields)
	if utf8.RuneCountInString(raw) < h.cfg.MinTextLength {
		metrics.AutoIndexTotal.WithLabelValues("skipped_short").Inc()
		h.logger.Debug("Skipping auto-index, text too short",
			zap.String("collection", collectionID),
			zap.Int("length", utf8.RuneCountInString(raw)),
		)
		return payload
	}

	cyc := cycleFrom(ctx)
	if err := cyc.tripped(); err != nil {
		metrics.AutoIndexTotal.WithLabelValues("skipped_cycle").Inc()
		h.logger.Debug("Skipping auto-index, provider disabled for this cycle",
			zap.String("collection", collectionID),
			zap.String("kind", string(domain.KindOf(err))),
		)
		return payload
	}

	emb, err := h.embed.Embed(ctx, raw)
	if err != nil {
		metrics.AutoIndexTotal.WithLabelValues("failed").Inc()
		if domain.IsFatalForCycle(err) {
			cyc.trip(err)
			h.logger.Error("Auto-index failed, provider disabled for this cycle",
				zap.String("collection", collectionID),
				zap.String("kind", string(domain.KindOf(err))),
				zap.Error(err),
			)
		} else {
			h.logger.Warn("Auto-index failed, writing without embedding",
				zap.String("collection", collectionID),
				zap.String("kind", string(domain.KindOf(err))),
				zap.Error(err),
			)
		}
		return payload
	}

	out := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		out[k] = v
	}
	out[domdoc.FieldVector] = emb.Vector
	out[domdoc.FieldMetadata] = emb.Metadata

	metrics.AutoIndexTotal.WithLabelValues("embedded").Inc()
	return out
}

// ExtractText concatenates the flattened values of fields found in payload,
// in field order, separated by a space.
func ExtractText(payload map[string]any, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, name := range fields {
		v, ok := payload[name]
		if !ok {
			continue
		}
		if s := domdoc.ValueOf(v).Text(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
