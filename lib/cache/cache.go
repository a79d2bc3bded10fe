// Package cache is the time-bounded response cache sitting in front
// of the site adapters. It is purely in-memory and resets on process
// restart; entries are whole-value replacements, never mutated in
// place, and failed fetches are never cached.
package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("sfmhub.lib.cache")

var ErrNotFound = badger.ErrKeyNotFound

type Cache struct {
	db  *badger.DB
	now func() time.Time
}

func Open() (*Cache, error) {
	db, err := badger.Open(
		badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(nil),
	)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, now: time.Now}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Key builds the canonical cache key for one adapter operation. The
// query parameters are normalized so that two queries differing only
// in parameter order share an entry.
func Key(source, operation string, params url.Values) string {
	u := &url.URL{
		Path:     "/" + source + "/" + operation,
		RawQuery: params.Encode(),
	}
	return purell.NormalizeURL(
		u,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
}

type envelope struct {
	Value    []byte
	StoredAt int64
	TTL      int64
}

// Get decodes the entry under key into T. Expired entries are deleted
// on read and reported as ErrNotFound.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	ctx, span := tracer.Start(ctx, "get")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	var out T

	tx := c.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return out, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return out, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return out, err
	}

	var cached envelope
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return out, err
	}

	if c.now().UnixMilli() >= cached.StoredAt+cached.TTL {
		span.AddEvent("delete expired cache key", trace.WithAttributes(
			attribute.String("key", key),
		))

		wtx := c.db.NewTransaction(true)
		defer wtx.Commit()

		err = wtx.Delete([]byte(key))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
		}
		return out, ErrNotFound
	}

	err = gob.NewDecoder(bytes.NewBuffer(cached.Value)).Decode(&out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached value")
		return out, err
	}

	return out, nil
}

// Set replaces whatever entry lives under key wholesale.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "set")
	defer span.End()
	span.SetAttributes(attribute.String("cache_key", key))

	encoded := bytes.NewBuffer(nil)
	err := gob.NewEncoder(encoded).Encode(value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize value")
		return err
	}

	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(envelope{
		Value:    encoded.Bytes(),
		StoredAt: c.now().UnixMilli(),
		TTL:      ttl.Milliseconds(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize envelope")
		return err
	}

	tx := c.db.NewTransaction(true)
	defer tx.Commit()

	err = tx.Set([]byte(key), serialized.Bytes())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}

	return nil
}
