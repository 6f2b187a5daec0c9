package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"sigclass/internal/ensemble"
	"sigclass/internal/metrics"
	"sigclass/internal/signal"
)

// rowSumTolerance is how far a returned probability row may drift from
// summing to 1 before the response is rejected.
const rowSumTolerance = 1e-6

// HTTPClassifier talks to an inference sidecar over its JSON protocol:
// POST /predict with the flattened batch, POST /fit with batch, one-hot
// labels and hyperparameters. Responses are validated before they are
// trusted by the ensemble stage.
type HTTPClassifier struct {
	rep     signal.Representation
	classes int
	base    string
	rest    *resty.Client
	tracker metrics.Tracker
}

// NewHTTP builds a classifier client for one representation. tracker may
// be nil when no metrics collection is wanted (tests, one-off tools).
func NewHTTP(rep signal.Representation, classes int, base string, timeout time.Duration, tracker metrics.Tracker) *HTTPClassifier {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second)
	}
	return &HTTPClassifier{rep: rep, classes: classes, base: base, rest: r, tracker: tracker}
}

// Representation returns the batch view this instance serves.
func (c *HTTPClassifier) Representation() signal.Representation { return c.rep }

type batchPayload struct {
	Representation string    `json:"representation"`
	Samples        int       `json:"samples"`
	Bins           int       `json:"bins"`
	Data           []float64 `json:"data"`
}

type predictResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
	Error         string      `json:"error,omitempty"`
}

type fitRequest struct {
	Batch  batchPayload  `json:"batch"`
	Labels [][]float64   `json:"labels"`
	Config TrainConfig   `json:"config"`
}

type fitResponse struct {
	Loss  []float64 `json:"loss"`
	Error string    `json:"error,omitempty"`
}

func payload(rep signal.Representation, b signal.Batch) batchPayload {
	return batchPayload{
		Representation: string(rep),
		Samples:        b.N,
		Bins:           b.L,
		Data:           b.Data,
	}
}

// Predict sends the batch to the sidecar and validates the returned
// probability matrix: one row per sample, one column per class, every
// row on the simplex.
func (c *HTTPClassifier) Predict(ctx context.Context, batch signal.Batch) (ensemble.Matrix, error) {
	if err := batch.Validate(); err != nil {
		return ensemble.Matrix{}, err
	}

	start := time.Now()
	if c.tracker != nil {
		defer func() { c.tracker.PredictionLatencyObserve(time.Since(start)) }()
	}

	resp := &predictResponse{}
	res, err := c.rest.R().
		SetContext(ctx).
		SetBody(payload(c.rep, batch)).
		SetResult(resp).
		Post(c.base + "/predict")
	if err != nil {
		c.fail()
		return ensemble.Matrix{}, fmt.Errorf("classifier %s: predict request: %w", c.rep, err)
	}
	if res.IsError() {
		c.fail()
		return ensemble.Matrix{}, fmt.Errorf("classifier %s: predict returned %s", c.rep, res.Status())
	}
	if resp.Error != "" {
		c.fail()
		return ensemble.Matrix{}, fmt.Errorf("classifier %s: %s", c.rep, resp.Error)
	}

	m, err := c.toMatrix(resp.Probabilities, batch.N)
	if err != nil {
		c.fail()
		return ensemble.Matrix{}, err
	}

	if c.tracker != nil {
		c.tracker.PredictionsInc(string(c.rep))
	}
	log.Debug().
		Str("representation", string(c.rep)).
		Int("samples", batch.N).
		Dur("latency", time.Since(start)).
		Msg("prediction received")
	return m, nil
}

// Fit forwards the training set and hyperparameters to the sidecar and
// returns its loss-per-epoch history. Trained state stays on the sidecar.
func (c *HTTPClassifier) Fit(ctx context.Context, batch signal.Batch, onehot [][]float64, cfg TrainConfig) (TrainHistory, error) {
	if err := batch.Validate(); err != nil {
		return TrainHistory{}, err
	}
	if len(onehot) != batch.N {
		return TrainHistory{}, fmt.Errorf("%w: %d label rows for %d samples",
			ensemble.ErrDimensionMismatch, len(onehot), batch.N)
	}

	resp := &fitResponse{}
	res, err := c.rest.R().
		SetContext(ctx).
		SetBody(fitRequest{Batch: payload(c.rep, batch), Labels: onehot, Config: cfg}).
		SetResult(resp).
		Post(c.base + "/fit")
	if err != nil {
		return TrainHistory{}, fmt.Errorf("classifier %s: fit request: %w", c.rep, err)
	}
	if res.IsError() {
		return TrainHistory{}, fmt.Errorf("classifier %s: fit returned %s", c.rep, res.Status())
	}
	if resp.Error != "" {
		return TrainHistory{}, fmt.Errorf("classifier %s: %s", c.rep, resp.Error)
	}

	log.Info().
		Str("representation", string(c.rep)).
		Int("samples", batch.N).
		Int("epochs", len(resp.Loss)).
		Msg("classifier trained")
	return TrainHistory{Representation: c.rep, Loss: resp.Loss}, nil
}

func (c *HTTPClassifier) toMatrix(rows [][]float64, want int) (ensemble.Matrix, error) {
	if len(rows) != want {
		return ensemble.Matrix{}, fmt.Errorf("%w: classifier %s returned %d rows for %d samples",
			ensemble.ErrShapeMismatch, c.rep, len(rows), want)
	}
	m := ensemble.NewMatrix(len(rows), c.classes)
	for i, row := range rows {
		if len(row) != c.classes {
			return ensemble.Matrix{}, fmt.Errorf("%w: classifier %s row %d has %d classes, want %d",
				ensemble.ErrShapeMismatch, c.rep, i, len(row), c.classes)
		}
		copy(m.Row(i), row)
	}
	if err := m.Validate(rowSumTolerance); err != nil {
		return ensemble.Matrix{}, fmt.Errorf("classifier %s: %w", c.rep, err)
	}
	return m, nil
}

func (c *HTTPClassifier) fail() {
	if c.tracker != nil {
		c.tracker.PredictionErrorsInc(string(c.rep))
	}
}
