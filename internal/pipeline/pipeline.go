// Package pipeline wires the full classification run: load labeled
// signals, normalize, derive the three representations, split into
// train/test with one shared partition, train and query one classifier
// per representation in parallel, then bag and score the predictions.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"sigclass/internal/classify"
	"sigclass/internal/ensemble"
	"sigclass/internal/metrics"
	"sigclass/internal/signal"
	"sigclass/internal/split"
	"sigclass/internal/storage"
	"sigclass/internal/transform"
)

// Config carries the run parameters.
type Config struct {
	Classes      int
	Norm         transform.Norm
	TestFraction float64
	Seed         int64
	Epsilon      float64 // probability floor for log-loss; zero uses the scorer default
	Train        classify.TrainConfig
	SkipFit      bool // score pre-trained classifiers without retraining
}

// Score is one scored prediction: a single representation's classifier
// or a bagged ensemble.
type Score struct {
	Name     string  `json:"name"`
	Bounded  float64 `json:"bounded"`
	LogLoss  float64 `json:"logLoss"`
	Accuracy float64 `json:"accuracy"`
}

// Result is the comparative outcome of one run.
type Result struct {
	RunID      string                 `json:"runId"`
	Samples    int                    `json:"samples"`
	TrainSize  int                    `json:"trainSize"`
	TestSize   int                    `json:"testSize"`
	FrameLen   int                    `json:"frameLen"`
	Classes    int                    `json:"classes"`
	Histories  []classify.TrainHistory `json:"histories,omitempty"`
	Scores     []Score                `json:"scores"`
	StartTime  time.Time              `json:"startTime"`
	EndTime    time.Time              `json:"endTime"`
}

// Engine runs the pipeline against a fixed set of per-representation
// classifiers. Metrics and storage are optional; a nil store skips
// persistence and a nil Metrics skips instrumentation.
type Engine struct {
	classifiers map[signal.Representation]classify.Classifier
	m           *metrics.Metrics
	store       *storage.Store
}

// New builds an engine. classifiers must hold exactly one entry per
// representation returned by signal.Representations.
func New(classifiers map[signal.Representation]classify.Classifier, m *metrics.Metrics, store *storage.Store) (*Engine, error) {
	for _, rep := range signal.Representations() {
		if _, ok := classifiers[rep]; !ok {
			return nil, fmt.Errorf("pipeline: no classifier for representation %s", rep)
		}
	}
	return &Engine{classifiers: classifiers, m: m, store: store}, nil
}

// Run executes one full train-and-score pass over the class sources.
func (e *Engine) Run(ctx context.Context, cfg Config, sources []signal.Source) (*Result, error) {
	start := time.Now()
	runID := start.UTC().Format("20060102T150405")

	batch, labels, err := signal.Load(sources)
	if err != nil {
		return nil, err
	}
	if e.m != nil {
		e.m.SamplesLoaded.Add(float64(batch.N))
	}

	normalized, err := transform.Normalize(batch, cfg.Norm)
	if err != nil {
		return nil, err
	}

	// The normalized IQ batch is read by both transforms; neither
	// mutates it.
	views, err := e.buildViews(normalized)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := split.Split(batch.N, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}
	trainLabels, err := labels.Gather(trainIdx)
	if err != nil {
		return nil, err
	}
	testLabels, err := labels.Gather(testIdx)
	if err != nil {
		return nil, err
	}
	onehot, err := signal.OneHot(trainLabels, cfg.Classes)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("run", runID).
		Int("train", len(trainIdx)).
		Int("test", len(testIdx)).
		Int("classes", cfg.Classes).
		Msg("dataset split")

	preds, histories, err := e.fanOut(ctx, cfg, views, trainIdx, testIdx, onehot)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     runID,
		Samples:   batch.N,
		TrainSize: len(trainIdx),
		TestSize:  len(testIdx),
		FrameLen:  batch.L,
		Classes:   cfg.Classes,
		Histories: histories,
		StartTime: start,
	}

	ordered := make([]ensemble.Matrix, 0, len(signal.Representations()))
	for _, rep := range signal.Representations() {
		pred := preds[rep]
		ordered = append(ordered, pred)
		if err := e.appendScore(result, string(rep), testLabels, pred, cfg.Epsilon); err != nil {
			return nil, err
		}
		if e.store != nil {
			if err := e.store.StorePrediction(runID, rep, pred); err != nil {
				log.Warn().Err(err).Str("representation", string(rep)).Msg("failed to persist prediction")
			}
		}
	}

	for _, method := range []ensemble.Method{ensemble.Geometric, ensemble.Arithmetic} {
		bagged, err := ensemble.Bag(ordered, method)
		if err != nil {
			return nil, err
		}
		if err := e.appendScore(result, string(method), testLabels, bagged, cfg.Epsilon); err != nil {
			return nil, err
		}
		if e.m != nil {
			last := result.Scores[len(result.Scores)-1]
			e.m.EnsembleScore.WithLabelValues(string(method)).Set(last.Bounded)
			e.m.EnsembleLogLoss.WithLabelValues(string(method)).Set(last.LogLoss)
		}
	}

	result.EndTime = time.Now()
	if e.m != nil {
		e.m.RunsTotal.Inc()
	}
	if e.store != nil {
		for _, s := range result.Scores {
			rec := storage.ScoreRecord{RunID: runID, Name: s.Name, Bounded: s.Bounded, LogLoss: s.LogLoss, Accuracy: s.Accuracy}
			if err := e.store.StoreScore(rec); err != nil {
				log.Warn().Err(err).Str("name", s.Name).Msg("failed to persist score")
			}
		}
	}

	log.Info().Str("run", runID).Dur("elapsed", result.EndTime.Sub(start)).Msg("pipeline run complete")
	return result, nil
}

// buildViews derives the three parallel batches from the normalized IQ
// batch, timing each transform.
func (e *Engine) buildViews(normalized signal.Batch) (map[signal.Representation]signal.Batch, error) {
	views := map[signal.Representation]signal.Batch{signal.IQ: normalized}

	type step struct {
		rep signal.Representation
		fn  func(signal.Batch) (signal.Batch, error)
	}
	for _, s := range []step{{signal.FFT, transform.ToFFT}, {signal.AP, transform.ToAP}} {
		begin := time.Now()
		view, err := s.fn(normalized)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", s.rep, err)
		}
		if e.m != nil {
			e.m.TransformDuration.WithLabelValues(string(s.rep)).Observe(time.Since(begin).Seconds())
		}
		views[s.rep] = view
	}
	return views, nil
}

// fanOut trains and queries the three classifiers concurrently. The
// calls are independent; the barrier here is the only coordination the
// ensemble needs.
func (e *Engine) fanOut(ctx context.Context, cfg Config, views map[signal.Representation]signal.Batch, trainIdx, testIdx []int, onehot [][]float64) (map[signal.Representation]ensemble.Matrix, []classify.TrainHistory, error) {
	reps := signal.Representations()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		preds     = make(map[signal.Representation]ensemble.Matrix, len(reps))
		histories []classify.TrainHistory
		firstErr  error
	)

	for _, rep := range reps {
		wg.Add(1)
		go func(rep signal.Representation) {
			defer wg.Done()

			view := views[rep]
			trainBatch, err := view.Gather(trainIdx)
			if err == nil {
				var testBatch signal.Batch
				testBatch, err = view.Gather(testIdx)
				if err == nil {
					err = e.runOne(ctx, cfg, rep, trainBatch, testBatch, onehot, &mu, preds, &histories)
				}
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("representation %s: %w", rep, err)
				}
				mu.Unlock()
			}
		}(rep)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	return preds, histories, nil
}

func (e *Engine) runOne(ctx context.Context, cfg Config, rep signal.Representation, trainBatch, testBatch signal.Batch, onehot [][]float64, mu *sync.Mutex, preds map[signal.Representation]ensemble.Matrix, histories *[]classify.TrainHistory) error {
	clf := e.classifiers[rep]

	if !cfg.SkipFit {
		history, err := clf.Fit(ctx, trainBatch, onehot, cfg.Train)
		if err != nil {
			return err
		}
		mu.Lock()
		*histories = append(*histories, history)
		mu.Unlock()
	}

	pred, err := clf.Predict(ctx, testBatch)
	if err != nil {
		return err
	}

	mu.Lock()
	preds[rep] = pred
	mu.Unlock()
	return nil
}

func (e *Engine) appendScore(result *Result, name string, labels signal.Labels, pred ensemble.Matrix, epsilon float64) error {
	bounded, logLoss, err := ensemble.ScoreWithFloor(labels, pred, epsilon)
	if err != nil {
		return fmt.Errorf("score %s: %w", name, err)
	}
	accuracy, err := ensemble.Accuracy(labels, pred)
	if err != nil {
		return fmt.Errorf("score %s: %w", name, err)
	}

	result.Scores = append(result.Scores, Score{Name: name, Bounded: bounded, LogLoss: logLoss, Accuracy: accuracy})
	log.Info().
		Str("prediction", name).
		Float64("bounded", bounded).
		Float64("logLoss", logLoss).
		Float64("accuracy", accuracy).
		Msg("prediction scored")
	return nil
}
