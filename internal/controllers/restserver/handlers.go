package restserver

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chrissnell/pvyield/internal/devicedb"
	"github.com/chrissnell/pvyield/internal/simulation"
	"github.com/chrissnell/pvyield/internal/weather"
	"github.com/chrissnell/pvyield/pkg/config"
	"github.com/chrissnell/pvyield/pkg/responseformat"
)

// maxBodyBytes limits the size of posted input documents.
const maxBodyBytes = 1 << 20

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, err error) {
	resp := errorResponse{Error: http.StatusText(status)}
	if err != nil {
		resp.Details = strings.Split(err.Error(), "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := h.formatter.Encode(w, responseformat.JSON, resp); encErr != nil {
		h.controller.logger.Errorf("failed to write error response: %v", encErr)
	}
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, data any, headers map[string]string) {
	if err := h.formatter.WriteResponse(w, req, data, headers); err != nil {
		h.controller.logger.Warnf("failed to write response for %s: %v", req.URL.Path, err)
	}
}

// GetHealth reports service and storage health
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	resp := map[string]any{"status": "ok"}
	if h.controller.health != nil {
		health := h.controller.health.Health()
		resp["storage"] = health
		if health.Status == "unhealthy" {
			resp["status"] = "degraded"
		}
	}
	h.write(w, req, resp, nil)
}

// CreateSimulation decodes an input document, runs it and returns the run
// summary. YAML bodies are accepted with a YAML content type.
func (h *Handlers) CreateSimulation(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, req, http.StatusRequestEntityTooLarge, err)
		return
	}

	in, err := decodeInput(req.Header.Get("Content-Type"), body)
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("invalid input document: %w", err))
		return
	}

	if err := h.resolvePaths(in); err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	if err := in.Validate(); err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	if in.UUID == "" {
		in.UUID = uuid.NewString()
	} else if _, err := uuid.Parse(in.UUID); err != nil {
		h.writeError(w, req, http.StatusBadRequest, fmt.Errorf("uuid: %w", err))
		return
	}

	result, err := h.controller.simulator.Simulate(req.Context(), in)
	if err != nil {
		h.writeError(w, req, statusFor(err), err)
		return
	}

	h.controller.runs.Put(result)
	if h.controller.results != nil {
		select {
		case h.controller.results <- result:
		case <-req.Context().Done():
		}
	}

	h.write(&statusWriter{ResponseWriter: w, status: http.StatusCreated}, req, result.Summarize(), map[string]string{
		"Location": "/api/simulations/" + result.RunID,
	})
}

// ListSimulations returns the summaries of all runs held in memory
func (h *Handlers) ListSimulations(w http.ResponseWriter, req *http.Request) {
	runs := h.controller.runs.List()
	summaries := make([]simulation.Summary, len(runs))
	for i, r := range runs {
		summaries[i] = r.Summarize()
	}
	h.write(w, req, summaries, nil)
}

// GetSimulation returns a run with its hourly profiles
func (h *Handlers) GetSimulation(w http.ResponseWriter, req *http.Request) {
	result, ok := h.lookupRun(w, req)
	if !ok {
		return
	}
	h.write(w, req, result, nil)
}

// GetSimulationSummary returns the annual figures of a run
func (h *Handlers) GetSimulationSummary(w http.ResponseWriter, req *http.Request) {
	result, ok := h.lookupRun(w, req)
	if !ok {
		return
	}
	h.write(w, req, result.Summarize(), nil)
}

// DeleteSimulation drops a run from memory
func (h *Handlers) DeleteSimulation(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if !h.controller.runs.Delete(id) {
		h.writeError(w, req, http.StatusNotFound, fmt.Errorf("run %s not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPlant returns one plant of a run
func (h *Handlers) GetPlant(w http.ResponseWriter, req *http.Request) {
	result, ok := h.lookupRun(w, req)
	if !ok {
		return
	}

	index, err := strconv.Atoi(mux.Vars(req)["index"])
	if err != nil || index < 0 || index >= len(result.Plants) {
		h.writeError(w, req, http.StatusNotFound, fmt.Errorf("run %s has no plant %s", result.RunID, mux.Vars(req)["index"]))
		return
	}
	h.write(w, req, result.Plants[index], nil)
}

// statusWriter sends status instead of 200 with the first body write.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusWriter) WriteHeader(code int) {
	if !s.wroteHeader {
		s.wroteHeader = true
		s.ResponseWriter.WriteHeader(code)
	}
}

func (s *statusWriter) Write(b []byte) (int, error) {
	s.WriteHeader(s.status)
	return s.ResponseWriter.Write(b)
}

func (h *Handlers) lookupRun(w http.ResponseWriter, req *http.Request) (*simulation.SystemResult, bool) {
	id := mux.Vars(req)["id"]
	result, ok := h.controller.runs.Get(id)
	if !ok {
		h.writeError(w, req, http.StatusNotFound, fmt.Errorf("run %s not found", id))
		return nil, false
	}
	return result, true
}

// resolvePaths anchors file names from a posted document in the data
// directory. Names may not leave it.
func (h *Handlers) resolvePaths(in *config.InputData) error {
	dir := h.controller.opts.DataDir
	if dir == "" {
		return nil
	}

	for _, p := range []string{
		in.WeatherData.WeatherDataFile,
		in.DeviceDatabase.SandiaModules,
		in.DeviceDatabase.CECModules,
		in.DeviceDatabase.Inverters,
		in.DeviceDatabase.SQLite,
	} {
		if p == "" {
			continue
		}
		if filepath.IsAbs(p) || !filepath.IsLocal(p) {
			return fmt.Errorf("file %q must be a relative path inside the data directory", p)
		}
	}
	in.ResolvePaths(dir)
	return nil
}

func decodeInput(contentType string, body []byte) (*config.InputData, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return config.ParseYAML(body)
	}
	return config.ParseJSON(body)
}

// statusFor maps simulation errors to HTTP status codes.
func statusFor(err error) int {
	var (
		cfgErr    *config.ConfigError
		notFound  *devicedb.NotFoundError
		formatErr *weather.FormatError
	)
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &notFound):
		return http.StatusBadRequest
	case errors.As(err, &formatErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
