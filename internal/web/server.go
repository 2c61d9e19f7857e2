// Package web serves the JSON status API. Read-only: all mutation flows in
// through the feed and relay sources, never through HTTP.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"seawatch/internal/ais"
	"seawatch/internal/engine"
	"seawatch/internal/feed"
)

// Sources bundles the read sides the API exposes. AISStream may be nil when
// no relay is configured.
type Sources struct {
	Engine    *engine.Engine
	Feed      *feed.Client
	AISStream *ais.StreamClient

	StartedAt time.Time
}

type statusPayload struct {
	Service    string              `json:"service"`
	UptimeSecs float64             `json:"uptime_secs"`
	Feed       feed.Snapshot       `json:"feed"`
	AISStream  *ais.StreamSnapshot `json:"ais_stream,omitempty"`
	Targets    int                 `json:"targets"`
	Warnings   int                 `json:"warnings"`
	LastParse  any                 `json:"last_parse_error,omitempty"`
	Rejected   uint64              `json:"rejected_envelopes"`
}

func Handler(src Sources) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		payload := statusPayload{
			Service:  "seawatch",
			Feed:     src.Feed.Snapshot(),
			Targets:  len(src.Engine.Targets()),
			Warnings: len(src.Engine.Warnings()),
			Rejected: src.Engine.RejectedEnvelopes(),
		}
		if !src.StartedAt.IsZero() {
			payload.UptimeSecs = time.Since(src.StartedAt).Seconds()
		}
		if src.AISStream != nil {
			snap := src.AISStream.Snapshot()
			payload.AISStream = &snap
		}
		if perr := src.Engine.LastError(); perr != nil {
			payload.LastParse = perr
		}
		writeJSON(w, payload)
	})

	mux.HandleFunc("/api/nav", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		writeJSON(w, src.Engine.Navigation())
	})

	mux.HandleFunc("/api/targets", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		writeJSON(w, targetViews(src.Engine.Targets(), time.Now().UTC()))
	})

	mux.HandleFunc("/api/warnings", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		writeJSON(w, targetViews(src.Engine.Warnings(), time.Now().UTC()))
	})

	return mux
}

// targetView decorates a stored target with presentation fields.
type targetView struct {
	ais.Target
	Category ais.ShipCategory `json:"category"`
	Stale    bool             `json:"stale"`
}

func targetViews(targets []ais.Target, nowUTC time.Time) []targetView {
	out := make([]targetView, 0, len(targets))
	for _, t := range targets {
		out = append(out, targetView{
			Target:   t,
			Category: t.Category(),
			Stale:    t.Stale(nowUTC),
		})
	}
	return out
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func Serve(ctx context.Context, listenAddr string, src Sources) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           Handler(src),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
