package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/protocol"
	"github.com/san-kum/wheelsim/internal/storage"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("encode response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, protocol.ErrorData{Message: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSimulate accepts the start_simulation payload as the request body
// and replies with the simulation_data payload.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxMessageBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	params, err := protocol.ParseStart(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	data, err := s.simulate(r.Context(), params, "http")
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dynamo.ErrParameterBounds) || errors.Is(err, dynamo.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	presets := make(map[string]experiment.Params)
	for _, name := range config.ListPresets() {
		presets[name] = config.GetPreset(name).Params
	}
	s.writeJSON(w, http.StatusOK, presets)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusOK, []storage.RunMetadata{})
		return
	}
	runs, err := s.store.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

type runResponse struct {
	Metadata *storage.RunMetadata     `json:"metadata"`
	Data     *protocol.SimulationData `json:"data"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	id := mux.Vars(r)["id"]
	meta, err := s.store.Load(id)
	if err == nil {
		var series *storage.Series
		series, err = s.store.LoadSeries(id)
		if err == nil {
			s.writeJSON(w, http.StatusOK, runResponse{Metadata: meta, Data: recordedData(meta, series)})
			return
		}
	}

	switch {
	case errors.Is(err, storage.ErrInvalidID):
		s.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func recordedData(meta *storage.RunMetadata, series *storage.Series) *protocol.SimulationData {
	return &protocol.SimulationData{
		RunID:      meta.ID,
		Time:       series.Time,
		Omega:      series.Omega,
		Tau:        series.Tau,
		OmegaSet:   meta.Params.OmegaSet,
		Stats:      meta.Stats,
		OmegaFuzzy: series.OmegaFuzzy,
		TauFuzzy:   series.TauFuzzy,
		StatsFuzzy: meta.StatsFuzzy,
	}
}
