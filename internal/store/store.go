// Package store keeps decoded readings in a local bbolt database.
package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"gitlab.com/d21d3q/golpp/internal/sink"
)

var (
	bucketDevices = []byte("devices")
	bucketUplinks = []byte("uplinks")
)

// ErrNotFound is returned when a device has no stored reading.
var ErrNotFound = errors.New("no reading stored for device")

// Entry is the persisted form of a reading.
type Entry struct {
	Device string          `json:"device"`
	FPort  int             `json:"fport,omitempty"`
	FCnt   uint32          `json:"fcnt"`
	Time   time.Time       `json:"time"`
	Fields json.RawMessage `json:"fields"`
}

// Store implements sink.Writer on top of bbolt.
type Store struct {
	db  *bbolt.DB
	log *logrus.Entry
}

var _ sink.Writer = (*Store)(nil)

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketDevices, bucketUplinks} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return &Store{db: db, log: logrus.WithField("store", path)}, nil
}

// Write records the reading as the device's latest value and appends it to
// the device history.
func (s *Store) Write(_ context.Context, r sink.Reading) error {
	fields, err := json.Marshal(r.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	entry := Entry{Device: r.Device, FPort: r.FPort, FCnt: r.FCnt, Time: ts, Fields: fields}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketDevices).Put([]byte(r.Device), data); err != nil {
			return err
		}
		history, err := tx.Bucket(bucketUplinks).CreateBucketIfNotExists([]byte(r.Device))
		if err != nil {
			return err
		}
		seq, err := history.NextSequence()
		if err != nil {
			return err
		}
		return history.Put(sequenceKey(seq), data)
	})
	if err != nil {
		return fmt.Errorf("store reading for %q: %w", r.Device, err)
	}
	s.log.WithField("device", r.Device).Debug("stored reading")
	return nil
}

// Latest returns the most recent entry for device.
func (s *Store) Latest(device string) (Entry, error) {
	var entry Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDevices).Get([]byte(device))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	return entry, err
}

// History returns up to limit entries for device, oldest first. A limit of
// zero returns everything.
func (s *Store) History(device string, limit int) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		history := tx.Bucket(bucketUplinks).Bucket([]byte(device))
		if history == nil {
			return ErrNotFound
		}
		c := history.Cursor()
		var keys [][]byte
		for k, _ := c.Last(); k != nil && (limit == 0 || len(keys) < limit); k, _ = c.Prev() {
			keys = append(keys, k)
		}
		for i := len(keys) - 1; i >= 0; i-- {
			var e Entry
			if err := json.Unmarshal(history.Get(keys[i]), &e); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Devices lists every device with a stored reading.
func (s *Store) Devices() ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDevices).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func sequenceKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
