package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"sigclass/internal/cfg"
	"sigclass/internal/classify"
	"sigclass/internal/ensemble"
	"sigclass/internal/metrics"
	"sigclass/internal/pipeline"
	"sigclass/internal/report"
	sig "sigclass/internal/signal"
	"sigclass/internal/storage"
	"sigclass/internal/stream"
	"sigclass/internal/transform"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)
	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	startMetricsServer(ctx, c)

	sources, err := buildSources(c, store, os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("dataset sources unavailable")
	}

	classifiers := buildClassifiers(c, mw)
	engine, err := pipeline.New(classifiers, m, store)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline init failed")
	}

	runCfg := pipeline.Config{
		Classes:      len(c.Classes),
		Norm:         transform.Norm(c.Normalization),
		TestFraction: c.TestFraction,
		Seed:         c.SplitSeed,
		Epsilon:      c.Epsilon,
		Train: classify.TrainConfig{
			Epochs:       c.Epochs,
			Patience:     c.Patience,
			LearningRate: c.LearningRate,
		},
	}

	result, err := engine.Run(ctx, runCfg, sources)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline run failed")
	}

	if err := report.NewReporter(result, c.ReportPath).GenerateReport(); err != nil {
		log.Error().Err(err).Msg("report generation failed")
	}

	if c.StreamURL != "" {
		runLiveLoop(ctx, cancel, c, mw, classifiers)
		return
	}
}

// initializeStorage opens the run store if DATA_PATH is configured.
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Str("path", c.DataPath).Msg("storage unavailable, continuing without persistence")
		return nil
	}
	return store
}

func startMetricsServer(ctx context.Context, c cfg.Settings) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", c.MetricsPort), Handler: mux}

	go func() {
		log.Info().Int("port", c.MetricsPort).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

// buildSources resolves the per-class datasets. Command-line arguments
// of the form label=capture.dat take precedence; otherwise the stored
// frames of every configured class are replayed from BoltDB.
func buildSources(c cfg.Settings, store *storage.Store, args []string) ([]sig.Source, error) {
	if len(args) > 0 {
		sources := make([]sig.Source, 0, len(args))
		for _, arg := range args {
			label, path, ok := strings.Cut(arg, "=")
			if !ok {
				return nil, fmt.Errorf("argument %q is not label=path", arg)
			}
			sources = append(sources, sig.FileSource{Name: label, Path: path, FrameLen: c.FrameLen})
		}
		return sources, nil
	}

	if store == nil {
		return nil, fmt.Errorf("no capture files given and no DATA_PATH configured")
	}
	sources := make([]sig.Source, 0, len(c.Classes))
	for _, class := range c.Classes {
		sources = append(sources, storage.FrameSource{Store: store, Class: class})
	}
	return sources, nil
}

func buildClassifiers(c cfg.Settings, mw metrics.Tracker) map[sig.Representation]classify.Classifier {
	return map[sig.Representation]classify.Classifier{
		sig.IQ:  classify.NewHTTP(sig.IQ, len(c.Classes), c.IQEndpoint, c.RESTTimeout, mw),
		sig.FFT: classify.NewHTTP(sig.FFT, len(c.Classes), c.FFTEndpoint, c.RESTTimeout, mw),
		sig.AP:  classify.NewHTTP(sig.AP, len(c.Classes), c.APEndpoint, c.RESTTimeout, mw),
	}
}

// runLiveLoop classifies frames arriving over the stream until a
// shutdown signal. Each frame is normalized, transformed, sent to the
// three trained classifiers, and the bagged prediction is logged.
func runLiveLoop(ctx context.Context, cancel context.CancelFunc, c cfg.Settings, mw metrics.Tracker, classifiers map[sig.Representation]classify.Classifier) {
	frames := make(chan sig.Frame, 64)
	errors := make(chan error, 32)

	ws := stream.NewWS(c.StreamURL, mw)
	go func() {
		if err := ws.Stream(ctx, c.FrameLen, frames, errors, 15*time.Second); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("stream terminated")
			cancel()
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errors:
				log.Warn().Err(err).Msg("stream error")
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case fr := <-frames:
				classifyFrame(ctx, c, classifiers, fr)
			}
		}
	}()

	waitForShutdown(cancel)
}

func classifyFrame(ctx context.Context, c cfg.Settings, classifiers map[sig.Representation]classify.Classifier, fr sig.Frame) {
	batch := sig.NewBatch(1, len(fr.I))
	copy(batch.Channel(0, 0), fr.I)
	copy(batch.Channel(0, 1), fr.Q)

	normalized, err := transform.Normalize(batch, transform.Norm(c.Normalization))
	if err != nil {
		log.Warn().Err(err).Msg("dropping frame")
		return
	}

	views := map[sig.Representation]sig.Batch{sig.IQ: normalized}
	if views[sig.FFT], err = transform.ToFFT(normalized); err != nil {
		log.Warn().Err(err).Msg("fft transform failed")
		return
	}
	if views[sig.AP], err = transform.ToAP(normalized); err != nil {
		log.Warn().Err(err).Msg("ap transform failed")
		return
	}

	preds := make([]ensemble.Matrix, 0, len(views))
	for _, rep := range sig.Representations() {
		pred, err := classifiers[rep].Predict(ctx, views[rep])
		if err != nil {
			log.Warn().Err(err).Str("representation", string(rep)).Msg("live prediction failed")
			return
		}
		preds = append(preds, pred)
	}

	bagged, err := ensemble.Bag(preds, ensemble.Method(c.EnsembleMethod))
	if err != nil {
		log.Warn().Err(err).Msg("bagging failed")
		return
	}

	best, bestIdx := 0.0, 0
	for i, p := range bagged.Row(0) {
		if p > best {
			best, bestIdx = p, i
		}
	}
	log.Info().Str("class", c.Classes[bestIdx]).Float64("confidence", best).Msg("live frame classified")
}

func waitForShutdown(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")
	cancel()
	time.Sleep(100 * time.Millisecond) // let in-flight logs drain
}
