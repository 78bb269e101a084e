package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"nmeafield/internal/nmea"
)

// maxExtractBody bounds the buffer accepted by /api/extract.
const maxExtractBody = 64 * 1024

type extractResponse struct {
	Sentence string `json:"sentence"`
	Field    int    `json:"field"`
	Value    string `json:"value"`
	Empty    bool   `json:"empty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func Handler(status *Status) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, status.Snapshot(time.Now().UTC()))
	})

	// POST a raw buffer; ?sentence=$GPGGA&field=1 selects the field.
	mux.HandleFunc("/api/extract", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		field, err := strconv.Atoi(q.Get("field"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "field must be an integer"})
			return
		}
		buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxExtractBody))
		if err != nil {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
			return
		}

		id := nmea.SentenceID(q.Get("sentence"))
		v, err := nmea.Field(buf, id, field)
		if err != nil {
			writeJSON(w, extractErrorCode(err), errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, extractResponse{Sentence: string(id), Field: field, Value: string(v), Empty: len(v) == 0})
	})

	return mux
}

func extractErrorCode(err error) int {
	switch {
	case errors.Is(err, nmea.ErrUnsupportedSentence), errors.Is(err, nmea.ErrUnsupportedField):
		return http.StatusBadRequest
	case nmea.Waiting(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func Serve(ctx context.Context, listenAddr string, status *Status) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           Handler(status),
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
