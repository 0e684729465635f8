package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"pricecatalog/metrics"
)

// statusWriter remembers the status code written through it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Instrument records the duration and status of every call to next under
// the given operation name. A nil m records nothing.
func Instrument(m *metrics.StoreMetrics, op string, next func(*core.RequestEvent) error) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: e.Response}
		e.Response = sw
		defer func() { e.Response = sw.ResponseWriter }()

		err := next(e)

		status := sw.status
		switch {
		case status == 0 && err != nil:
			status = http.StatusInternalServerError
		case status == 0:
			status = http.StatusOK
		}
		m.ObserveRequest(op, status, time.Since(start))
		return err
	}
}
