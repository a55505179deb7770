package boltdb

import (
	"encoding/json"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/alanbriolat/audio-downloader/internal/session"
)

var Buckets = struct {
	Metadata []byte
	Attempts []byte
}{
	Metadata: []byte("__metadata__"),
	Attempts: []byte("attempts"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

type Database interface {
	Close() error
	DeleteAttempt(id session.AttemptID) error

	session.History
}

type database struct {
	*bbolt.DB
}

func New(path string) (_ Database, err error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) (err error) {
		// Ensure buckets exist
		var metadata *bbolt.Bucket
		if metadata, err = tx.CreateBucketIfNotExists(Buckets.Metadata); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Attempts); err != nil {
			return err
		}

		// Get the current version of the database
		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes == nil {
			version = 0
		} else if err = json.Unmarshal(versionBytes, &version); err != nil {
			return err
		}

		// Set the current version of the database
		if versionBytes, err := json.Marshal(currentVersion); err != nil {
			return err
		} else if err = metadata.Put(MetadataKeys.Version, versionBytes); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &database{db}, nil
}

// ListAttempts returns every recorded attempt, oldest first.
func (d database) ListAttempts() (attempts []session.AttemptRecord, err error) {
	err = d.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Attempts)
		return bucket.ForEach(func(k, v []byte) error {
			var record session.AttemptRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			} else {
				attempts = append(attempts, record)
				return nil
			}
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].StartedAt.Before(attempts[j].StartedAt)
	})
	return attempts, nil
}

func (d database) WriteAttempt(record *session.AttemptRecord) error {
	if data, err := json.Marshal(record); err != nil {
		return err
	} else {
		return d.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(Buckets.Attempts)
			return bucket.Put([]byte(record.ID), data)
		})
	}
}

func (d database) DeleteAttempt(id session.AttemptID) error {
	return d.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Attempts)
		return bucket.Delete([]byte(id))
	})
}
