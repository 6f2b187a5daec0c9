package metrics

import "time"

// Tracker is the narrow interface the classify and stream packages
// consume, so they do not depend on prometheus types directly and tests
// can substitute a mock.
type Tracker interface {
	PredictionsInc(representation string)
	PredictionErrorsInc(representation string)
	PredictionLatencyObserve(d time.Duration)
	FramesIngestedInc()
	StreamRedialsInc()
}

// Wrapper adapts Metrics to the Tracker interface.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper { return &Wrapper{m: m} }

func (w *Wrapper) PredictionsInc(representation string) {
	w.m.Predictions.WithLabelValues(representation).Inc()
}

func (w *Wrapper) PredictionErrorsInc(representation string) {
	w.m.PredictionErrors.WithLabelValues(representation).Inc()
}

func (w *Wrapper) PredictionLatencyObserve(d time.Duration) {
	w.m.PredictionLatency.Observe(d.Seconds())
}

func (w *Wrapper) FramesIngestedInc() { w.m.FramesIngested.Inc() }

func (w *Wrapper) StreamRedialsInc() { w.m.StreamRedials.Inc() }
