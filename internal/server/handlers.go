package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/thinkofyou/pkg/access"
	"github.com/matzehuels/thinkofyou/pkg/bubble"
	"github.com/matzehuels/thinkofyou/pkg/buildinfo"
	"github.com/matzehuels/thinkofyou/pkg/errors"
	"github.com/matzehuels/thinkofyou/pkg/pipeline"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"views":  s.views.Len(),
		"build":  buildinfo.Current(),
	})
}

// identity is only ever missing if a route escaped the access group.
func identity(r *http.Request) access.Identity {
	id, _ := access.FromContext(r.Context())
	return id
}

type tapResponse struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
	Seq       int       `json:"seq"`
	Period    string    `json:"period"`
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	rec, err := s.cfg.Tapper.Tap(r.Context(), identity(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tapResponse{
		ID:        rec.ID,
		Owner:     rec.Owner,
		Timestamp: rec.Timestamp,
		Seq:       rec.Seq,
		Period:    bubble.PeriodOf(rec.Timestamp, s.cfg.Location).String(),
	})
}

func (s *Server) handleDeleteTap(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	if err := s.cfg.Store.Delete(r.Context(), id.Owner, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	width, height, err := s.size(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := identity(r)
	res, err := s.cfg.Runner.Execute(r.Context(), s.cfg.Store, pipeline.Options{
		Owner:    id.Partner,
		Width:    width,
		Height:   height,
		Limit:    s.cfg.Limit,
		Location: s.cfg.Location,
		Formats:  []string{pipeline.FormatSVG},
		Title:    id.Name,
		Logger:   s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(res.Artifacts[pipeline.FormatSVG])
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	v, err := s.views.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// A key may only steer views of the partner it watches.
	if v.Owner() != identity(r).Partner {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no view %q", v.ID()))
		return
	}

	var req resizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid resize body"))
		return
	}
	if err := v.Resize(req.Width, req.Height); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
