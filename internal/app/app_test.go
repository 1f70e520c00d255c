package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/chrissnell/pvyield/internal/devicedb"
	"github.com/chrissnell/pvyield/pkg/config"
	"github.com/chrissnell/pvyield/pkg/responseformat"
)

const (
	sandiaModule = "Canadian_Solar_CS5P_220M___2009_"
	inverter     = "SMA_America__SB5000US__240V_"
)

func testdata(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "devicedb", "testdata", name))
	require.NoError(t, err)
	return path
}

// writeEPW writes a year of synthetic Stuttgart weather with a daily bell of
// irradiance.
func writeEPW(t *testing.T, dir string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("LOCATION,Stuttgart,BW,DEU,TRY,107380,48.73,9.11,1.0,315.0\n")
	b.WriteString("DESIGN CONDITIONS,0\n")
	b.WriteString("TYPICAL/EXTREME PERIODS,0\n")
	b.WriteString("GROUND TEMPERATURES,0\n")
	b.WriteString("HOLIDAYS/DAYLIGHT SAVINGS,No,0,0,0\n")
	b.WriteString("COMMENTS 1,synthetic\n")
	b.WriteString("COMMENTS 2,\n")
	b.WriteString("DATA PERIODS,1,1,Data,Sunday, 1/ 1,12/31\n")

	ts := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8760; i++ {
		hour := ts.Hour() + 1
		var ghi, dni, dhi float64
		if hour >= 7 && hour <= 18 {
			ghi = 500 * math.Sin(math.Pi*float64(hour-6)/13)
			dhi = 0.5 * ghi
			dni = 9999
		}
		fmt.Fprintf(&b, "2015,%d,%d,%d,60,?9?9?9?9E0,%.1f,2.0,80,96500,0,1367,300,%.0f,%.0f,%.0f,0,0,0,0,180,%.1f,5,5,10.0,77777,9,999999999,0,0.0,0,88,0.000,0.0,0.0\n",
			int(ts.Month()), ts.Day(), hour, 10.0, ghi, dni, dhi, 3.0)
		ts = ts.Add(time.Hour)
	}

	path := filepath.Join(dir, "stuttgart.epw")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func plant(uid string, azimuth float64) config.PlantConfig {
	p := config.DefaultPlant()
	p.UID = uid
	p.SurfaceAzimuth = azimuth
	p.SurfaceTilt = 30
	p.ModulesPerString = 10
	p.StringsPerInverter = 2
	p.NumberOfInverters = 1
	p.ModuleName = sandiaModule
	p.InverterName = inverter
	p.UseInverterDatabase = true
	return p
}

func testInput(t *testing.T, dir string) *config.InputData {
	t.Helper()
	return &config.InputData{
		UUID: "4b0d1a39-5f0c-4d55-9b21-0c1e2b7d9a10",
		WeatherData: config.WeatherData{
			Latitude: 48.73, Longitude: 9.11,
			WeatherDataFile: writeEPW(t, dir),
		},
		Plants: []config.PlantConfig{plant("south", 180), plant("west", 270)},
		DeviceDatabase: config.DeviceDatabaseData{
			SandiaModules: testdata(t, "sandia_modules.csv"),
			Inverters:     testdata(t, "cec_inverters.csv"),
		},
	}
}

func newTestApp(opts Options) *App {
	return New(nil, opts, zap.NewNop().Sugar())
}

func TestSimulate(t *testing.T) {
	in := testInput(t, t.TempDir())
	require.NoError(t, in.Validate())

	result, err := newTestApp(Options{Workers: 2}).Simulate(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, in.UUID, result.RunID)
	require.Len(t, result.Plants, 2)
	assert.Len(t, result.Timestamps, 8760)
	assert.Greater(t, result.EnergyYield, 0.0)
	assert.InDelta(t, result.Plants[0].EnergyYield+result.Plants[1].EnergyYield, result.EnergyYield, 1e-6)
	assert.Greater(t, result.Plants[0].EnergyYield, result.Plants[1].EnergyYield, "south must beat west")
	assert.Equal(t, "south", result.Plants[0].UID)
	assert.InDelta(t, 48.73, result.Site.Latitude, 1e-9)
}

func TestSimulateGeneratesRunID(t *testing.T) {
	in := testInput(t, t.TempDir())
	in.UUID = ""
	in.Plants = in.Plants[:1]

	result, err := newTestApp(Options{}).Simulate(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, result.RunID, 36)
}

func TestSimulateResolvesDevicesBeforeWeather(t *testing.T) {
	in := testInput(t, t.TempDir())
	in.WeatherData.WeatherDataFile = filepath.Join(t.TempDir(), "missing.epw")
	in.Plants[1].ModuleName = "No_Such_Module"

	_, err := newTestApp(Options{}).Simulate(context.Background(), in)
	require.Error(t, err)

	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, 1, cfgErr.Plant)
	assert.Equal(t, "moduleName", cfgErr.Field)

	var notFound *devicedb.NotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.NotContains(t, err.Error(), "missing.epw")
}

func TestSimulateWithoutDeviceDatabase(t *testing.T) {
	in := testInput(t, t.TempDir())
	in.DeviceDatabase = config.DeviceDatabaseData{}

	_, err := newTestApp(Options{}).Simulate(context.Background(), in)
	var cfgErr *config.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "deviceDatabase", cfgErr.Field)
}

func TestSimulateSQLiteCatalog(t *testing.T) {
	dir := t.TempDir()
	in := testInput(t, dir)

	cat, err := devicedb.LoadFiles(devicedb.Files{
		SandiaModules: in.DeviceDatabase.SandiaModules,
		Inverters:     in.DeviceDatabase.Inverters,
	})
	require.NoError(t, err)

	dbPath := filepath.Join(dir, "devices.db")
	db, err := devicedb.OpenSQLite(dbPath)
	require.NoError(t, err)
	_, _, err = db.Import(context.Background(), cat)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	want, err := newTestApp(Options{}).Simulate(context.Background(), in)
	require.NoError(t, err)

	in.DeviceDatabase = config.DeviceDatabaseData{SQLite: dbPath}
	got, err := newTestApp(Options{}).Simulate(context.Background(), in)
	require.NoError(t, err)
	assert.InDelta(t, want.EnergyYield, got.EnergyYield, 1e-9)
}

func TestRunExportsCSV(t *testing.T) {
	dir := t.TempDir()
	in := testInput(t, dir)
	in.Plants = in.Plants[:1]

	input := fmt.Sprintf(`{
  "weatherData": {"latitude": 48.73, "longitude": 9.11, "weatherDataFile": "stuttgart.epw"},
  "PhotovoltaicPlants": [{
    "uid": "south", "surfaceAzimuth": 180, "surfaceTilt": 30,
    "modulesPerString": 10, "stringsPerInverter": 2, "numberOfInverters": 1,
    "modulesDatabaseType": 1, "moduleName": %q, "inverterName": %q,
    "useInverterDatabase": true
  }],
  "deviceDatabase": {"modules_sandia": %q, "inverters": %q}
}`, sandiaModule, inverter, in.DeviceDatabase.SandiaModules, in.DeviceDatabase.Inverters)
	cfgPath := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(input), 0o644))

	out := filepath.Join(dir, "result.csv")
	a := New(config.NewJSONProvider(cfgPath), Options{OutputFile: out}, zap.NewNop().Sugar())
	require.NoError(t, a.Run(context.Background()))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 8761)
	assert.Equal(t, []string{"timestamp", "ac_power_w", "south_ac_power_w"}, rows[0])
	assert.Equal(t, "2015-01-01T00:30:00+01:00", rows[1][0])
}

func TestRunExportsMsgPack(t *testing.T) {
	dir := t.TempDir()
	in := testInput(t, dir)
	cfgPath := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
weatherData:
  latitude: 48.73
  longitude: 9.11
  weatherDataFile: stuttgart.epw
PhotovoltaicPlants:
  - surfaceAzimuth: 180
    surfaceTilt: 30
    modulesPerString: 10
    stringsPerInverter: 2
    numberOfInverters: 1
    moduleName: %s
    inverterName: %s
deviceDatabase:
  modules_sandia: %s
  inverters: %s
`, sandiaModule, inverter, in.DeviceDatabase.SandiaModules, in.DeviceDatabase.Inverters)), 0o644))

	provider, err := config.NewProvider("", cfgPath)
	require.NoError(t, err)

	out := filepath.Join(dir, "result.bin")
	a := New(provider, Options{OutputFile: out, Format: responseformat.MsgPack}, zap.NewNop().Sugar())
	require.NoError(t, a.Run(context.Background()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(data, &decoded))
	assert.NotEmpty(t, decoded["run_id"])
	assert.Len(t, decoded["ac_power"], 8760)
}

func TestRunRejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"weatherData": {"latitude": 123}}`), 0o644))

	a := New(config.NewJSONProvider(cfgPath), Options{}, zap.NewNop().Sugar())
	err := a.Run(context.Background())
	var cfgErr *config.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	assert.Error(t, newTestApp(Options{}).Run(context.Background()))
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		path    string
		format  responseformat.Format
		want    responseformat.Format
		wantErr bool
	}{
		{"out.csv", "", responseformat.CSV, false},
		{"out.msgpack", "", responseformat.MsgPack, false},
		{"out.json", "", responseformat.JSON, false},
		{"out.txt", "", responseformat.JSON, false},
		{"out.txt", responseformat.CSV, responseformat.CSV, false},
		{"out.csv", "xml", "", true},
	}

	for _, tt := range tests {
		got, err := OutputFormat(tt.path, tt.format)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}
