// Package stream ingests live IQ frames from an SDR gateway over a
// websocket connection. Frames are validated and forwarded on a channel;
// the connection reconnects with exponential backoff.
package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"sigclass/internal/metrics"
	"sigclass/internal/signal"
)

// FrameMsg is the gateway wire format for one captured frame.
type FrameMsg struct {
	Seq uint64    `json:"seq"`
	I   []float64 `json:"i"`
	Q   []float64 `json:"q"`
}

// WS is a reconnecting websocket frame source.
type WS struct {
	url     string
	tracker metrics.Tracker
}

// NewWS builds a frame source for the gateway URL. tracker may be nil.
func NewWS(u string, tracker metrics.Tracker) WS { return WS{url: u, tracker: tracker} }

// Stream receives frames until the context is cancelled, forwarding them
// on the frames channel. Connection failures are reported on errors and
// retried with exponential backoff.
func (w WS) Stream(ctx context.Context, frameLen int, frames chan<- signal.Frame, errors chan<- error, ping time.Duration) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := w.streamOnce(ctx, frameLen, frames, ping); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn().Err(err).Dur("backoff", backoff).Msg("stream connection failed, reconnecting")
				if w.tracker != nil {
					w.tracker.StreamRedialsInc()
				}
				select {
				case errors <- fmt.Errorf("stream reconnect: %w", err):
				default:
				}

				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return ctx.Err()
				}

				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			backoff = time.Second
		}
	}
}

func (w WS) streamOnce(ctx context.Context, frameLen int, frames chan<- signal.Frame, ping time.Duration) error {
	log.Info().Str("url", w.url).Msg("establishing stream connection")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	conn.SetReadLimit(4 * 1024 * 1024) // frames of float64 JSON get large
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	sub := map[string]any{"op": "subscribe", "args": []map[string]any{{"ch": "iq", "frameLen": frameLen}}}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}

	pingTicker := time.NewTicker(ping)
	defer pingTicker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pingTicker.C:
				if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var msg FrameMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if len(msg.I) != len(msg.Q) || len(msg.I) != frameLen {
			log.Warn().Uint64("seq", msg.Seq).Int("i", len(msg.I)).Int("q", len(msg.Q)).
				Int("want", frameLen).Msg("dropping malformed frame")
			continue
		}

		if w.tracker != nil {
			w.tracker.FramesIngestedInc()
		}
		select {
		case frames <- signal.Frame{I: msg.I, Q: msg.Q}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
