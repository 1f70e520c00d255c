package restserver

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/chrissnell/pvyield/internal/devicedb"
	"github.com/chrissnell/pvyield/internal/simulation"
	"github.com/chrissnell/pvyield/internal/storage"
	"github.com/chrissnell/pvyield/internal/weather"
	"github.com/chrissnell/pvyield/pkg/config"
)

const validInput = `{
  "weatherData": {"latitude": 48.77, "longitude": 9.18, "weatherDataFile": "stuttgart.epw"},
  "PhotovoltaicPlants": [{
    "surfaceAzimuth": 180, "surfaceTilt": 30,
    "modulesPerString": 10, "stringsPerInverter": 2, "numberOfInverters": 1,
    "modulesDatabaseType": "SANDIA",
    "moduleName": "Canadian_Solar_CS5P_220M___2009_",
    "inverterName": "SMA_America__SB5000US__240V_",
    "useInverterDatabase": true
  }]
}`

const validYAML = `
weatherData:
  latitude: 48.77
  longitude: 9.18
  weatherDataFile: stuttgart.epw
PhotovoltaicPlants:
  - surfaceAzimuth: 180
    surfaceTilt: 30
    modulesPerString: 10
    stringsPerInverter: 2
    numberOfInverters: 1
    moduleName: m
    inverterName: i
`

// fakeSimulator returns a two-hour result per plant and records the inputs
// it was given.
type fakeSimulator struct {
	mu     sync.Mutex
	inputs []*config.InputData
	err    error
}

func (f *fakeSimulator) Simulate(_ context.Context, in *config.InputData) (*simulation.SystemResult, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	ts := []time.Time{
		time.Date(2015, 6, 21, 11, 30, 0, 0, time.UTC),
		time.Date(2015, 6, 21, 12, 30, 0, 0, time.UTC),
	}
	results := make([]*simulation.PlantResult, len(in.Plants))
	for i, p := range in.Plants {
		results[i] = &simulation.PlantResult{
			Index: i, UID: p.UID, Timestamps: ts,
			ACPower: []float64{1000, 2000}, DCPower: []float64{1100, 2100},
			POAGlobal: []float64{600, 800}, CellTemperature: []float64{35, 40},
			EnergyYield: 3, RatedPower: 4.4,
		}
	}
	return simulation.Aggregate(in.UUID, results)
}

type fakeChecker struct{}

func (fakeChecker) CheckHealth(context.Context) error { return errors.New("down") }

func newTestController(t *testing.T, sim Simulator, results chan<- *simulation.SystemResult) *Controller {
	t.Helper()
	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, Options{DataDir: "/srv/pv"}, sim, results, nil, zap.NewNop().Sugar())
	require.NoError(t, err)
	return ctrl
}

func post(t *testing.T, h http.Handler, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/simulations", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestCreateAndFetchSimulation(t *testing.T) {
	sim := &fakeSimulator{}
	results := make(chan *simulation.SystemResult, 1)
	h := newTestController(t, sim, results).Handler()

	rec := post(t, h, "application/json", validInput)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var summary simulation.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "/api/simulations/"+summary.RunID, rec.Header().Get("Location"))
	assert.InDelta(t, 3.0, summary.EnergyYield, 1e-12)
	require.Len(t, summary.Plants, 1)

	// Relative paths are anchored in the data directory.
	require.Len(t, sim.inputs, 1)
	assert.Equal(t, "/srv/pv/stuttgart.epw", sim.inputs[0].WeatherData.WeatherDataFile)

	select {
	case r := <-results:
		assert.Equal(t, summary.RunID, r.RunID)
	default:
		t.Fatal("result was not handed to storage")
	}

	rec = get(h, "/api/simulations/"+summary.RunID)
	require.Equal(t, http.StatusOK, rec.Code)
	var full simulation.SystemResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &full))
	assert.Equal(t, []float64{1000, 2000}, full.ACPower)

	rec = get(h, "/api/simulations/"+summary.RunID+"/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(h, "/api/simulations/"+summary.RunID+"/plants/0")
	require.Equal(t, http.StatusOK, rec.Code)
	var plant simulation.PlantResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plant))
	assert.Equal(t, []float64{1100, 2100}, plant.DCPower)

	rec = get(h, "/api/simulations/"+summary.RunID+"/plants/3")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(h, "/api/simulations")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []simulation.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestSimulationFormats(t *testing.T) {
	h := newTestController(t, &fakeSimulator{}, nil).Handler()

	rec := post(t, h, "application/yaml", validYAML)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var summary simulation.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))

	rec = get(h, "/api/simulations/"+summary.RunID+"?format=msgpack")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))
	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, summary.RunID, decoded["run_id"])

	rec = get(h, "/api/simulations/"+summary.RunID+"?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"timestamp", "ac_power_w", "plant_0_ac_power_w"}, rows[0])
	assert.Equal(t, "1000.000", rows[1][1])
}

func TestCreateSimulationRejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{"weatherData":`, http.StatusBadRequest},
		{"invalid tilt", strings.Replace(validInput, `"surfaceTilt": 30`, `"surfaceTilt": 130`, 1), http.StatusBadRequest},
		{"escaping path", strings.Replace(validInput, `stuttgart.epw`, `../../etc/passwd`, 1), http.StatusBadRequest},
		{"absolute path", strings.Replace(validInput, `stuttgart.epw`, `/etc/passwd`, 1), http.StatusBadRequest},
		{"bad uuid", strings.Replace(validInput, `"weatherData"`, `"uuid": "not-a-uuid", "weatherData"`, 1), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := &fakeSimulator{}
			rec := post(t, newTestController(t, sim, nil).Handler(), "application/json", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, sim.inputs, "simulation must not start")

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Details)
		})
	}
}

func TestSimulationErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{config.PlantError(0, config.PlantConfig{}, "inverterName", &devicedb.NotFoundError{Device: "inverter", Name: "x"}), http.StatusBadRequest},
		{&weather.FormatError{Path: "w.epw", Line: 9, Reason: "short row"}, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := post(t, newTestController(t, &fakeSimulator{err: tt.err}, nil).Handler(), "application/json", validInput)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}

func TestDeleteAndMissing(t *testing.T) {
	h := newTestController(t, &fakeSimulator{}, nil).Handler()
	assert.Equal(t, http.StatusNotFound, get(h, "/api/simulations/nope").Code)

	rec := post(t, h, "application/json", validInput)
	var summary simulation.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))

	del := httptest.NewRecorder()
	h.ServeHTTP(del, httptest.NewRequest(http.MethodDelete, "/api/simulations/"+summary.RunID, nil))
	assert.Equal(t, http.StatusNoContent, del.Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/api/simulations/"+summary.RunID).Code)
}

func TestHealth(t *testing.T) {
	h := newTestController(t, &fakeSimulator{}, nil).Handler()
	rec := get(h, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status": "ok"`)

	monitor := storage.NewHealthMonitor("TimescaleDB", fakeChecker{})
	monitor.Check(context.Background())
	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, Options{}, &fakeSimulator{}, nil, monitor, zap.NewNop().Sugar())
	require.NoError(t, err)
	rec = get(ctrl.Handler(), "/api/health")
	assert.Contains(t, rec.Body.String(), `"status": "degraded"`)
}

func TestRunStoreEviction(t *testing.T) {
	s := NewRunStore(2)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		s.Put(&simulation.SystemResult{RunID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	_, ok := s.Get("a")
	assert.False(t, ok)
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].RunID)
	assert.Equal(t, "b", list[1].RunID)

	assert.True(t, s.Delete("b"))
	assert.False(t, s.Delete("b"))
}

func TestNewControllerDefaults(t *testing.T) {
	ctrl := newTestController(t, &fakeSimulator{}, nil)
	assert.Equal(t, "0.0.0.0:8080", ctrl.Server.Addr)

	_, err := NewController(context.Background(), &sync.WaitGroup{}, Options{}, nil, nil, nil, zap.NewNop().Sugar())
	assert.Error(t, err)
}
