package database

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/davecgh/go-xdr/xdr2"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"rangeq/internal/database"
	"rangeq/internal/dataset/model"
	"rangeq/internal/geom"
)

const (
	datasetKeys = "dataset:keys:"
	prefix      = "dataset:"
)

type FilterFn func(point model.DataPoint) bool

// pointRecord is the XDR wire form of a stored point.
type pointRecord struct {
	ID        string
	Vec       []float64
	CreatedAt int64
}

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

// Keys returns the names of all stored datasets.
func (db *DB) Keys() ([]string, error) {
	var bucketKeys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(datasetKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			bucketKeys = append(bucketKeys, db.extractKey(string(k)))
		}
		return nil
	})

	return bucketKeys, err
}

func encodePoint(point model.DataPoint) ([]byte, error) {
	rec := pointRecord{
		ID:        point.ID.String(),
		Vec:       point.Vec,
		CreatedAt: point.CreatedAt.UnixNano(),
	}
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, rec); err != nil {
		return nil, fmt.Errorf("xdr marshal error: %w", err)
	}
	return buf.Bytes(), nil
}

func decodePoint(data []byte) (model.DataPoint, error) {
	var rec pointRecord
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &rec); err != nil {
		return model.DataPoint{}, fmt.Errorf("xdr unmarshal error: %w", err)
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return model.DataPoint{}, fmt.Errorf("corrupted point id: %w", err)
	}
	return model.DataPoint{
		ID:        id,
		Vec:       geom.NewPoint(rec.Vec),
		CreatedAt: time.Unix(0, rec.CreatedAt),
	}, nil
}

// Store saves a single point under the named dataset.
func (db *DB) Store(_ context.Context, name string, point model.DataPoint) error {
	var b *bolt.Bucket
	data, err := encodePoint(point)
	if err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b = tx.Bucket([]byte(prefix + name))
		if b == nil {
			b, err = tx.CreateBucket([]byte(prefix + name))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
		}
		if err := b.Put([]byte(point.ID.String()), data); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		b = tx.Bucket([]byte(datasetKeys))
		if b == nil {
			b, err = tx.CreateBucket([]byte(datasetKeys))
			if err != nil {
				return fmt.Errorf("unable create keys bucket: %w", err)
			}
		}
		if err := b.Put([]byte(prefix+name), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to keys bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

// AppendMany bulk-saves points under the named dataset.
func (db *DB) AppendMany(_ context.Context, name string, points []model.DataPoint) error {
	if len(points) == 0 {
		return nil
	}
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + name))
		if b == nil {
			bucket, err := tx.CreateBucket([]byte(prefix + name))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
			b = bucket
		}
		for _, point := range points {
			data, err := encodePoint(point)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(point.ID.String()), data); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
		}
		keys := tx.Bucket([]byte(datasetKeys))
		if keys == nil {
			bucket, err := tx.CreateBucket([]byte(datasetKeys))
			if err != nil {
				return fmt.Errorf("unable create keys bucket: %w", err)
			}
			keys = bucket
		}
		if err := keys.Put([]byte(prefix+name), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to keys bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("batch transaction error: %v", err)
	}

	return nil
}

// FindByName returns the points of the named dataset, optionally filtered.
func (db *DB) FindByName(name string, fn FilterFn) ([]model.DataPoint, error) {
	var points []model.DataPoint
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			point, err := decodePoint(v)
			if err != nil {
				return err
			}
			if fn == nil || fn(point) {
				points = append(points, point)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return points, nil
}

// CountByName returns the number of stored points of the named dataset.
func (db *DB) CountByName(name string) (int, error) {
	var count int
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + name))
		if b == nil {
			return nil
		}
		count = b.Stats().KeyN
		return nil
	})

	return count, err
}

// DeleteMany removes the given points of the named dataset.
func (db *DB) DeleteMany(_ context.Context, name string, points []model.DataPoint) error {
	if len(points) == 0 {
		return nil
	}
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + name))
		if b == nil {
			return nil
		}
		for _, point := range points {
			if err := b.Delete([]byte(point.ID.String())); err != nil {
				return fmt.Errorf("delete from bucket error: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("batch transaction error: %v", err)
	}

	return nil
}

// Delete removes the named dataset with all of its points.
func (db *DB) Delete(_ context.Context, name string) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(prefix + name)); b != nil {
			if err := tx.DeleteBucket([]byte(prefix + name)); err != nil {
				return fmt.Errorf("delete bucket: %w", err)
			}
		}
		if keys := tx.Bucket([]byte(datasetKeys)); keys != nil {
			if err := keys.Delete([]byte(prefix + name)); err != nil {
				return fmt.Errorf("delete from keys bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}
