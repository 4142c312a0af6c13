package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/klauspost/compress/zstd"
)

// metaZstd marks entries whose value is zstd-compressed
const metaZstd byte = 1 << 0

// BadgerCache is an in-memory BadgerDB store for raw page bodies.
// Nothing is written to disk; entries live at most for the process lifetime.
type BadgerCache struct {
	db      *badger.DB
	maxBody int64
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

// NewBadgerCache opens an in-memory BadgerDB cache
func NewBadgerCache(opts Options) (*BadgerCache, error) {
	badgerOpts := badger.DefaultOptions("").WithInMemory(true)
	if !opts.Logger {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open body cache: %w", err)
	}

	c := &BadgerCache{db: db, maxBody: opts.MaxBodyBytes}
	if opts.Compress {
		if c.enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest)); err != nil {
			_ = db.Close()
			return nil, err
		}
		if c.dec, err = zstd.NewReader(nil); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return c, nil
}

// Get retrieves a value from cache
func (c *BadgerCache) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrCacheMiss
		}
		if err != nil {
			return err
		}

		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if item.UserMeta()&metaZstd == 0 {
			value = raw
			return nil
		}
		if c.dec == nil {
			return fmt.Errorf("compressed entry %q without decoder", key)
		}
		value, err = c.dec.DecodeAll(raw, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a value in cache with TTL. Oversized values are silently skipped;
// the size limit applies before compression.
func (c *BadgerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.maxBody > 0 && int64(len(value)) > c.maxBody {
		return nil
	}

	e := badger.NewEntry([]byte(key), value)
	if c.enc != nil {
		e = badger.NewEntry([]byte(key), c.enc.EncodeAll(value, nil)).WithMeta(metaZstd)
	}
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(e)
	})
}

// Has checks if a key exists in cache
func (c *BadgerCache) Has(ctx context.Context, key string) bool {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	return err == nil
}

// Delete removes a key from cache
func (c *BadgerCache) Delete(ctx context.Context, key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close releases cache resources
func (c *BadgerCache) Close() error {
	if c.dec != nil {
		c.dec.Close()
	}
	if c.enc != nil {
		_ = c.enc.Close()
	}
	return c.db.Close()
}

// Len counts live entries whose key starts with prefix
func (c *BadgerCache) Len(prefix string) int {
	count := 0
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}
