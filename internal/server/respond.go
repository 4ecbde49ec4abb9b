package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/matzehuels/thinkofyou/pkg/errors"
)

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		if code == errors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// deny is the access middleware's rejection handler.
func (s *Server) deny(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, err)
}

// size reads w and h query parameters, falling back to the configured size.
func (s *Server) size(r *http.Request) (float64, float64, error) {
	q := r.URL.Query()
	w, h := s.cfg.Width, s.cfg.Height
	if v := q.Get("w"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, 0, errors.New(errors.ErrCodeInvalidSize, "invalid width %q", v)
		}
		w = f
	}
	if v := q.Get("h"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, 0, errors.New(errors.ErrCodeInvalidSize, "invalid height %q", v)
		}
		h = f
	}
	if err := errors.ValidateSize(w, h); err != nil {
		return 0, 0, err
	}
	return w, h, nil
}
