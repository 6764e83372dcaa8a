package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/semindex/internal/db"
	"github.com/kailas-cloud/semindex/internal/domain"
	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
	"github.com/kailas-cloud/semindex/internal/domain/search/filter"
)

// fetchChunk bounds the number of keys per MGET round trip.
const fetchChunk = 200

// store is the consumer interface for documents (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	ZAddNX(ctx context.Context, key string, score float64, member string) error
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZCard(ctx context.Context, key string) (int64, error)
}

// Repo stores each document as a JSON string under
// {prefix}doc:{collection}:{id} and tracks membership in the sorted set
// {prefix}idx:{collection}, scored by insertion sequence.
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Save writes the payload as the full document. Returns true if created.
func (r *Repo) Save(ctx context.Context, collectionID, id string, payload map[string]any) (domdoc.Document, bool, error) {
	key := r.docKey(collectionID, id)

	created := false
	if _, err := r.store.Get(ctx, key); err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, false, fmt.Errorf("get %s: %w", key, err)
		}
		created = true
	}

	data, err := encodePayload(payload)
	if err != nil {
		return domdoc.Document{}, false, err
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return domdoc.Document{}, false, fmt.Errorf("set %s: %w", key, err)
	}

	if created {
		if err := r.addToIndex(ctx, collectionID, id); err != nil {
			return domdoc.Document{}, false, err
		}
	}

	doc, err := decodeStored(id, data)
	if err != nil {
		return domdoc.Document{}, false, err
	}
	return doc, created, nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, collectionID, id string) (domdoc.Document, error) {
	key := r.docKey(collectionID, id)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("get %s: %w", key, err)
	}
	return decodeStored(id, data)
}

// Update merges data into the stored document's top-level keys. Values in
// data replace existing ones wholesale, including metadata.
func (r *Repo) Update(ctx context.Context, collectionID, id string, data map[string]any) (domdoc.Document, error) {
	current, err := r.Get(ctx, collectionID, id)
	if err != nil {
		return domdoc.Document{}, err
	}

	merged := storedPayload(&current)
	for k, v := range data {
		merged[k] = v
	}

	raw, err := encodePayload(merged)
	if err != nil {
		return domdoc.Document{}, err
	}
	key := r.docKey(collectionID, id)
	if err := r.store.Set(ctx, key, raw); err != nil {
		return domdoc.Document{}, fmt.Errorf("set %s: %w", key, err)
	}
	return decodeStored(id, raw)
}

// FindMany scans the collection in insertion order and returns up to
// opts.Limit documents matching opts.Filter. Limit <= 0 means no limit.
func (r *Repo) FindMany(ctx context.Context, collectionID string, opts domdoc.FindOptions) ([]domdoc.Document, error) {
	var out []domdoc.Document
	err := r.scan(ctx, collectionID, func(doc domdoc.Document) bool {
		if !opts.Filter.Matches(doc.Fields(), doc.HasVector()) {
			return true
		}
		if opts.Locale != "" {
			doc = domdoc.Reconstruct(doc.ID(), localize(doc.Fields(), opts.Locale), doc.Vector(), doc.Metadata())
		}
		out = append(out, doc)
		return opts.Limit <= 0 || len(out) < opts.Limit
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of documents matching f.
func (r *Repo) Count(ctx context.Context, collectionID string, f filter.Filter) (int, error) {
	if len(f) == 0 {
		n, err := r.store.ZCard(ctx, r.indexKey(collectionID))
		if err != nil {
			return 0, fmt.Errorf("zcard %s: %w", collectionID, err)
		}
		return int(n), nil
	}

	count := 0
	err := r.scan(ctx, collectionID, func(doc domdoc.Document) bool {
		if f.Matches(doc.Fields(), doc.HasVector()) {
			count++
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// scan visits documents in insertion order until visit returns false.
// Index entries without a stored document are skipped.
func (r *Repo) scan(ctx context.Context, collectionID string, visit func(domdoc.Document) bool) error {
	ids, err := r.store.ZRange(ctx, r.indexKey(collectionID), 0, -1)
	if err != nil {
		return fmt.Errorf("zrange %s: %w", collectionID, err)
	}

	for start := 0; start < len(ids); start += fetchChunk {
		end := min(start+fetchChunk, len(ids))
		chunk := ids[start:end]

		keys := make([]string, len(chunk))
		for i, id := range chunk {
			keys[i] = r.docKey(collectionID, id)
		}
		values, err := r.store.MGet(ctx, keys)
		if err != nil {
			return fmt.Errorf("mget %s: %w", collectionID, err)
		}

		for i, raw := range values {
			if raw == nil {
				continue
			}
			doc, err := decodeStored(chunk[i], raw)
			if err != nil {
				return err
			}
			if !visit(doc) {
				return nil
			}
		}
	}
	return nil
}

func (r *Repo) addToIndex(ctx context.Context, collectionID, id string) error {
	seq, err := r.store.IncrBy(ctx, r.seqKey(), 1)
	if err != nil {
		return fmt.Errorf("incr sequence: %w", err)
	}
	if err := r.store.ZAddNX(ctx, r.indexKey(collectionID), float64(seq), id); err != nil {
		return fmt.Errorf("zadd %s: %w", collectionID, err)
	}
	return nil
}

func (r *Repo) docKey(collectionID, id string) string {
	return fmt.Sprintf("%sdoc:%s:%s", r.prefix, collectionID, id)
}

func (r *Repo) indexKey(collectionID string) string {
	return fmt.Sprintf("%sidx:%s", r.prefix, collectionID)
}

func (r *Repo) seqKey() string {
	return r.prefix + "seq"
}
