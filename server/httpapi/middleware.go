package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"
	bearerPrefix        = "Bearer "

	logMsgRequestCompleted = "http request completed"
	logAttrMethod          = "method"
	logAttrRoute           = "route"
	logAttrStatusCode      = "status_code"
	logAttrRequestID       = "request_id"
	logAttrDurationMS      = "duration_ms"
)

type principalKey struct{}

func principalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		s.httpMetrics.inFlight.Inc()
		defer s.httpMetrics.inFlight.Dec()

		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}

		duration := time.Since(start)
		code := strconv.Itoa(recorder.statusCode)

		s.httpMetrics.requests.WithLabelValues(r.Method, route, code).Inc()
		s.httpMetrics.duration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		s.logDebug(r.Context(), logMsgRequestCompleted,
			logAttrMethod, r.Method,
			logAttrRoute, route,
			logAttrStatusCode, recorder.statusCode,
			logAttrRequestID, w.Header().Get(headerRequestID),
			logAttrDurationMS, float64(duration.Microseconds())/1000.0,
		)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(headerAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			s.writeError(w, r, errMissingToken)
			return
		}

		principal, err := s.issuer.Verify(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, principal)))
	})
}
