// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const blobKeyPrefix = "blob:"

// BlobRecord describes one downloaded blob.
type BlobRecord struct {
	SHA256    string    `json:"sha256"`
	Source    string    `json:"source"`
	Size      int64     `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
}

// BlobCache keeps downloaded artifacts on disk, content-addressed by
// SHA-256. The index of what has been fetched lives in BadgerDB; the blobs
// themselves are plain files so the envelope reader can open them directly.
type BlobCache struct {
	db  *badger.DB
	dir string
}

// OpenBlobCache opens (or creates) a cache rooted at dir.
func OpenBlobCache(dir string) (*BlobCache, error) {
	return openBlobCache(dir, badger.DefaultOptions(filepath.Join(dir, "index")))
}

// OpenInMemoryBlobCache keeps the index in memory. Blobs are still written
// below dir. Intended for tests and throwaway processes.
func OpenInMemoryBlobCache(dir string) (*BlobCache, error) {
	return openBlobCache(dir, badger.DefaultOptions("").WithInMemory(true))
}

func openBlobCache(dir string, opts badger.Options) (*BlobCache, error) {
	if err := os.MkdirAll(filepath.Join(dir, "blobs"), 0o750); err != nil {
		return nil, fmt.Errorf("create blob cache directory: %w", err)
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &BlobCache{db: db, dir: dir}, nil
}

// Close releases the index.
func (c *BlobCache) Close() error {
	return c.db.Close()
}

// Dir returns the cache root.
func (c *BlobCache) Dir() string { return c.dir }

// BlobPath is where the blob with the given digest lives.
func (c *BlobCache) BlobPath(sha string) string {
	shard := sha
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(c.dir, "blobs", shard, sha+".art")
}

// Lookup returns the record for sha if the blob is indexed and still on
// disk with the recorded size. Stale records are dropped.
func (c *BlobCache) Lookup(sha string) (BlobRecord, bool, error) {
	var rec BlobRecord
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(blobKeyPrefix + sha))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return BlobRecord{}, false, nil
	}
	if err != nil {
		return BlobRecord{}, false, fmt.Errorf("read blob record: %w", err)
	}

	info, statErr := os.Stat(c.BlobPath(sha))
	if statErr != nil || info.Size() != rec.Size {
		if err := c.Remove(sha); err != nil {
			return BlobRecord{}, false, err
		}
		return BlobRecord{}, false, nil
	}
	return rec, true, nil
}

// Put indexes a blob already written to BlobPath(rec.SHA256).
func (c *BlobCache) Put(rec BlobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode blob record: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(blobKeyPrefix+rec.SHA256), data))
	})
	if err != nil {
		return fmt.Errorf("write blob record: %w", err)
	}
	return nil
}

// Remove drops a blob and its record.
func (c *BlobCache) Remove(sha string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(blobKeyPrefix + sha))
	})
	if err != nil {
		return fmt.Errorf("delete blob record: %w", err)
	}
	if err := os.Remove(c.BlobPath(sha)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// Records lists every indexed blob.
func (c *BlobCache) Records() ([]BlobRecord, error) {
	var out []BlobRecord
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(blobKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec BlobRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blob records: %w", err)
	}
	return out, nil
}

// Prune removes every blob whose digest is not in keep and returns how
// many were removed.
func (c *BlobCache) Prune(keep map[string]struct{}) (int, error) {
	recs, err := c.Records()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, rec := range recs {
		if _, ok := keep[rec.SHA256]; ok {
			continue
		}
		if err := c.Remove(rec.SHA256); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
