package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohankatakam/depscan/internal/extract"
	bolt "go.etcd.io/bbolt"
)

const bucketPrefix = "imports"

// bucketName holds results of the current extractor patterns. Buckets of
// older pattern versions are dropped on open.
var bucketName = fmt.Sprintf("%s.v%d", bucketPrefix, extract.PatternVersion)

// Bolt persists results in a single bbolt file
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the cache file at path
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		var stale [][]byte
		err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if strings.HasPrefix(string(name), bucketPrefix) && string(name) != bucketName {
				stale = append(stale, append([]byte(nil), name...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range stale {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		_, err = tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(key string) ([]string, bool, error) {
	var (
		result []string
		found  bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return bolt.ErrBucketNotFound
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &result)
	})
	if err != nil {
		return nil, false, err
	}
	return result, found, nil
}

func (b *Bolt) Put(key string, specifiers []string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		data, err := json.Marshal(specifiers)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), data)
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
