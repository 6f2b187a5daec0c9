// Package storage provides persistent storage for classification runs.
// It uses BoltDB as the underlying engine to store per-representation
// probability matrices, run scores, and raw signal frames, so any
// downstream stage can be re-run from stored artifacts.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"sigclass/internal/ensemble"
	"sigclass/internal/signal"
)

const (
	predictionsBucket = "predictions" // per-run, per-representation probability matrices
	scoresBucket      = "scores"      // per-run score records
	framesBucket      = "frames"      // raw IQ frames keyed by class
)

// Store provides persistent storage for pipeline artifacts using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath and ensures all
// buckets exist.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "sigclass-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{predictionsBucket, scoresBucket, framesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PredictionRecord is the stored form of one classifier's output for a run.
type PredictionRecord struct {
	RunID          string    `json:"runId"`
	Representation string    `json:"representation"`
	Rows           int       `json:"rows"`
	Cols           int       `json:"cols"`
	Data           []float64 `json:"data"`
	Ts             time.Time `json:"ts"`
}

// ScoreRecord is one scored prediction of a run: an individual
// classifier (named by representation) or a bagged ensemble (named by
// method).
type ScoreRecord struct {
	RunID    string    `json:"runId"`
	Name     string    `json:"name"`
	Bounded  float64   `json:"bounded"`
	LogLoss  float64   `json:"logLoss"`
	Accuracy float64   `json:"accuracy"`
	Ts       time.Time `json:"ts"`
}

// StorePrediction persists one probability matrix under "runID_representation".
func (s *Store) StorePrediction(runID string, rep signal.Representation, m ensemble.Matrix) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		rec := PredictionRecord{
			RunID:          runID,
			Representation: string(rep),
			Rows:           m.Rows,
			Cols:           m.Cols,
			Data:           m.Data,
			Ts:             time.Now().UTC(),
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}

		key := fmt.Sprintf("%s_%s", runID, rep)
		return b.Put([]byte(key), data)
	})
}

// GetPrediction loads a stored probability matrix.
func (s *Store) GetPrediction(runID string, rep signal.Representation) (ensemble.Matrix, error) {
	var rec PredictionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		key := fmt.Sprintf("%s_%s", runID, rep)
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("no prediction stored for %s", key)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return ensemble.Matrix{}, err
	}
	return ensemble.Matrix{Rows: rec.Rows, Cols: rec.Cols, Data: rec.Data}, nil
}

// StoreScore persists a score record under "runID_name".
func (s *Store) StoreScore(rec ScoreRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(scoresBucket))

		if rec.Ts.IsZero() {
			rec.Ts = time.Now().UTC()
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal score: %w", err)
		}

		key := fmt.Sprintf("%s_%s", rec.RunID, rec.Name)
		return b.Put([]byte(key), data)
	})
}

// GetScores retrieves all score records of a run via a prefix cursor scan.
func (s *Store) GetScores(runID string) ([]ScoreRecord, error) {
	var records []ScoreRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(scoresBucket))
		c := b.Cursor()

		prefix := []byte(runID + "_")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec ScoreRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// StoreFrames appends raw frames under a class label, indexed densely so
// FrameSource can replay them in insertion order.
func (s *Store) StoreFrames(class string, frames []signal.Frame) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(framesBucket))

		next := countFrames(b, class)
		for i, fr := range frames {
			if len(fr.I) != len(fr.Q) {
				return fmt.Errorf("%w: frame has I=%d Q=%d bins", signal.ErrShapeMismatch, len(fr.I), len(fr.Q))
			}
			data, err := json.Marshal(fr)
			if err != nil {
				return fmt.Errorf("marshal frame: %w", err)
			}
			key := fmt.Sprintf("%s_%012d", class, next+i)
			if err := b.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func countFrames(b *bbolt.Bucket, class string) int {
	prefix := []byte(class + "_")
	c := b.Cursor()
	n := 0
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		n++
	}
	return n
}

// FrameSource exposes one class's stored frames as a signal.Source, so
// a persisted dataset feeds the repository like any other source.
type FrameSource struct {
	Store *Store
	Class string
}

func (f FrameSource) Label() string { return f.Class }

func (f FrameSource) Frames() ([]signal.Frame, error) {
	var frames []signal.Frame
	err := f.Store.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(framesBucket))
		c := b.Cursor()

		prefix := []byte(f.Class + "_")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var fr signal.Frame
			if err := json.Unmarshal(v, &fr); err != nil {
				continue // Skip malformed records
			}
			frames = append(frames, fr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frames, nil
}
