package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/matzehuels/thinkofyou/pkg/errors"
	"github.com/matzehuels/thinkofyou/pkg/render"
	"github.com/matzehuels/thinkofyou/pkg/view"
)

type initEvent struct {
	View    string  `json:"view"`
	Owner   string  `json:"owner"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Name    string  `json:"name,omitempty"`
	Partner string  `json:"partner"`
}

// handleStream opens a live view of the partner's bubbles and streams its
// diffs as server-sent events: one "init" event carrying the view id, then
// a "diff" event per pass.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "streaming not supported"))
		return
	}
	width, height, err := s.size(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	id := identity(r)
	snapshots, err := s.cfg.Store.Subscribe(ctx, id.Partner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	diffs := make(chan render.Diff, 8)
	v := view.New(id.Partner, width, height, snapshots, func(d render.Diff) {
		select {
		case diffs <- d:
		case <-ctx.Done():
		}
	},
		view.WithLocation(s.cfg.Location),
		view.WithLimit(s.cfg.Limit),
		view.WithLogger(s.logger),
	)
	s.views.Add(v)
	go v.Run(ctx)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "init", initEvent{
		View:    v.ID(),
		Owner:   id.Owner,
		Width:   width,
		Height:  height,
		Name:    id.Name,
		Partner: id.Partner,
	}); err != nil {
		return
	}
	flusher.Flush()
	s.logger.Info("stream opened", "view", v.ID(), "owner", id.Owner, "partner", id.Partner)

	heartbeat := time.NewTicker(s.cfg.Heartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stream closed", "view", v.ID())
			return
		case <-v.Done():
			return
		case d := <-diffs:
			if err := writeEvent(w, "diff", d); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
