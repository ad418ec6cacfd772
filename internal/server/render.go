package server

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/apierror"
)

// render marshals payload before touching the response so a marshal
// failure never leaves a partial write.
func (s *Server) render(w http.ResponseWriter, status int, contentType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		s.renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}

func (s *Server) renderDocument(w http.ResponseWriter, status int, doc *Document) {
	s.render(w, status, JSONAPIMediaType, doc)
}

// renderError writes err as a JSON:API error document. Errors that are not
// APIErrors are logged and reported as 500 without their message.
func (s *Server) renderError(w http.ResponseWriter, err error) {
	apiErr, ok := apierror.As(err)
	if !ok {
		s.logger.Error("request failed", zap.Error(err))
		apiErr = apierror.New(http.StatusInternalServerError, "Internal server error.")
	}

	code := apiErr.Code
	if code == "" {
		code = errorCodeFromStatus(apiErr.Status)
	}

	data, _ := json.Marshal(ErrorDocument{Errors: []ErrorObject{{
		Status: strconv.Itoa(apiErr.Status),
		Code:   code,
		Title:  apiErr.Title,
		Detail: apiErr.Detail,
	}}})

	w.Header().Set("Content-Type", JSONAPIMediaType)
	w.WriteHeader(apiErr.Status)
	_, _ = w.Write(data)
}

// errorCodeFromStatus maps HTTP status codes to error codes
func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusNotAcceptable:
		return "not_acceptable"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media_type"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusNotImplemented:
		return "not_implemented"
	default:
		return "error"
	}
}

// acceptable reports whether the Accept header admits a JSON:API response.
// Per JSON:API, the request is rejected only when every JSON:API entry
// carries media type parameters.
func acceptable(accept string) bool {
	if accept == "" {
		return true
	}

	sawJSONAPI := false
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil || mediaType != JSONAPIMediaType {
			continue
		}
		sawJSONAPI = true
		if len(params) == 0 {
			return true
		}
	}
	return !sawJSONAPI
}

// validContentType reports whether a request body is declared as JSON:API
// without media type parameters.
func validContentType(contentType string) bool {
	mediaType, params, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == JSONAPIMediaType && len(params) == 0
}
