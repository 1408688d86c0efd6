package bolt

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Open creates the parent directory and opens the BoltDB file shared by the
// local task mirror and the write outbox.
func Open(path string, logger *zap.Logger) (*bolt.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	logger.Info("opened bolt database", zap.String("path", path))
	return db, nil
}

// EnsureBucket creates bucket when missing.
func EnsureBucket(db *bolt.DB, bucket string) error {
	if db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
}

// Close closes the database and logs the result.
func Close(db *bolt.DB, logger *zap.Logger) error {
	if db == nil {
		return nil
	}
	err := db.Close()
	if logger != nil && err == nil {
		logger.Info("bolt database closed")
	}
	return err
}
