package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"library-streaming-api/internal/models"
	"library-streaming-api/pkg/stream"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"activeStreams": s.registry.Count(),
		"time":          time.Now().UTC(),
	})
}

func (s *Server) handleStreamList(w http.ResponseWriter, r *http.Request) {
	configs := s.registry.Configs()
	respond(w, http.StatusOK, map[string]any{
		"activeStreams": len(configs),
		"configs":       configs,
	})
}

// handleStreamStart starts a stream from the posted configuration. Unlike
// the session channel, the REST form insists on an explicit streamName; a
// script that forgot it should hear about it rather than silently start
// the default stream.
func (s *Server) handleStreamStart(w http.ResponseWriter, r *http.Request) {
	var req models.StreamRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.StreamName == nil || *req.StreamName == "" {
		respondError(w, http.StatusBadRequest, "streamName is required")
		return
	}

	cfg := req.Config()
	if err := s.registry.Start(cfg); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message": "stream started",
		"config":  cfg,
	})
}

// handleStreamStop is idempotent: stopping an already stopped stream is a
// 200 reporting stopped:false.
func (s *Server) handleStreamStop(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	respond(w, http.StatusOK, map[string]any{
		"streamName": name,
		"stopped":    s.registry.Stop(name),
	})
}

func (s *Server) handleStreamStopAll(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"stopped": s.registry.StopAll(),
	})
}

func (s *Server) handlePresetList(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, stream.Presets())
}

func (s *Server) handlePresetStart(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	started, err := s.registry.StartPreset(name)
	if err != nil {
		if errors.Is(err, stream.ErrUnknownPreset) {
			respondError(w, http.StatusNotFound, "unknown preset "+name)
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"preset":  name,
		"streams": started,
	})
}
