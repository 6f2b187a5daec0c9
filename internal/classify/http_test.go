package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigclass/internal/ensemble"
	"sigclass/internal/signal"
)

func testBatch(n, l int) signal.Batch {
	b := signal.NewBatch(n, l)
	for i := range b.Data {
		b.Data[i] = float64(i)
	}
	return b
}

// sidecar fakes the inference service for one test. predict and fit may
// be nil for endpoints the test never hits.
func sidecar(t *testing.T, predict func(batchPayload) predictResponse, fit func(fitRequest) fitResponse) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		var req batchPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(predict(req)))
	})
	mux.HandleFunc("/fit", func(w http.ResponseWriter, r *http.Request) {
		var req fitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(fit(req)))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClassifierPredict(t *testing.T) {
	srv := sidecar(t, func(req batchPayload) predictResponse {
		assert.Equal(t, "fft", req.Representation)
		assert.Equal(t, 2, req.Samples)
		assert.Equal(t, 4, req.Bins)
		assert.Len(t, req.Data, 2*signal.Channels*4)
		return predictResponse{Probabilities: [][]float64{{0.7, 0.3}, {0.1, 0.9}}}
	}, nil)

	c := NewHTTP(signal.FFT, 2, srv.URL, time.Second, nil)
	m, err := c.Predict(context.Background(), testBatch(2, 4))
	require.NoError(t, err)

	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 2, m.Cols)
	assert.InDelta(t, 0.7, m.At(0, 0), 1e-12)
	assert.InDelta(t, 0.9, m.At(1, 1), 1e-12)
}

func TestHTTPClassifierPredictRejectsBadResponses(t *testing.T) {
	cases := []struct {
		name    string
		resp    predictResponse
		wantErr error
	}{
		{
			name:    "row count mismatch",
			resp:    predictResponse{Probabilities: [][]float64{{1, 0}}},
			wantErr: ensemble.ErrShapeMismatch,
		},
		{
			name:    "column count mismatch",
			resp:    predictResponse{Probabilities: [][]float64{{1, 0, 0}, {0, 1, 0}}},
			wantErr: ensemble.ErrShapeMismatch,
		},
		{
			name:    "row off the simplex",
			resp:    predictResponse{Probabilities: [][]float64{{0.7, 0.7}, {0.5, 0.5}}},
			wantErr: ensemble.ErrShapeMismatch,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := sidecar(t, func(batchPayload) predictResponse { return tc.resp }, nil)
			c := NewHTTP(signal.IQ, 2, srv.URL, time.Second, nil)

			_, err := c.Predict(context.Background(), testBatch(2, 4))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestHTTPClassifierPredictSidecarError(t *testing.T) {
	srv := sidecar(t, func(batchPayload) predictResponse {
		return predictResponse{Error: "model not trained"}
	}, nil)
	c := NewHTTP(signal.AP, 2, srv.URL, time.Second, nil)

	_, err := c.Predict(context.Background(), testBatch(1, 4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not trained")
}

func TestHTTPClassifierPredictHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTP(signal.IQ, 2, srv.URL, time.Second, nil)
	_, err := c.Predict(context.Background(), testBatch(1, 4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPClassifierPredictValidatesBatch(t *testing.T) {
	c := NewHTTP(signal.IQ, 2, "http://unused", time.Second, nil)

	bad := testBatch(1, 4)
	bad.Data = bad.Data[:3]
	_, err := c.Predict(context.Background(), bad)
	assert.ErrorIs(t, err, signal.ErrShapeMismatch)
}

func TestHTTPClassifierFit(t *testing.T) {
	srv := sidecar(t, nil, func(req fitRequest) fitResponse {
		assert.Equal(t, "iq", req.Batch.Representation)
		assert.Equal(t, 3, req.Batch.Samples)
		assert.Len(t, req.Labels, 3)
		assert.Equal(t, 60, req.Config.Epochs)
		assert.Equal(t, 5, req.Config.Patience)
		return fitResponse{Loss: []float64{1.2, 0.8, 0.5}}
	})

	c := NewHTTP(signal.IQ, 2, srv.URL, time.Second, nil)
	onehot := [][]float64{{1, 0}, {0, 1}, {1, 0}}
	hist, err := c.Fit(context.Background(), testBatch(3, 4), onehot, TrainConfig{Epochs: 60, Patience: 5, LearningRate: 0.001})
	require.NoError(t, err)

	assert.Equal(t, signal.IQ, hist.Representation)
	assert.Equal(t, []float64{1.2, 0.8, 0.5}, hist.Loss)
}

func TestHTTPClassifierFitLabelMismatch(t *testing.T) {
	c := NewHTTP(signal.IQ, 2, "http://unused", time.Second, nil)

	_, err := c.Fit(context.Background(), testBatch(2, 4), [][]float64{{1, 0}}, TrainConfig{})
	assert.ErrorIs(t, err, ensemble.ErrDimensionMismatch)
}

func TestHTTPClassifierFitSidecarError(t *testing.T) {
	srv := sidecar(t, nil, func(fitRequest) fitResponse {
		return fitResponse{Error: "out of memory"}
	})
	c := NewHTTP(signal.FFT, 2, srv.URL, time.Second, nil)

	_, err := c.Fit(context.Background(), testBatch(1, 4), [][]float64{{1, 0}}, TrainConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
}
