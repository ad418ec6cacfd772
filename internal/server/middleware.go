package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/apierror"
)

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// negotiate enforces the JSON:API media type rules: 406 when the client
// only accepts JSON:API with parameters, 415 when a body is sent with
// anything but the bare JSON:API media type.
func (s *Server) negotiate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !acceptable(r.Header.Get("Accept")) {
			s.renderError(w, apierror.New(http.StatusNotAcceptable, "Not acceptable.").
				WithDetail("JSON:API media type parameters are not supported"))
			return
		}
		if r.ContentLength != 0 && (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodDelete) {
			if !validContentType(r.Header.Get("Content-Type")) {
				s.renderError(w, apierror.New(http.StatusUnsupportedMediaType, "Unsupported media type.").
					WithDetail("requests must use "+JSONAPIMediaType))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
