package timescaledb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/pvyield/internal/simulation"
	"github.com/chrissnell/pvyield/internal/weather"
)

func testResult() *simulation.SystemResult {
	ts := []time.Time{
		time.Date(2015, 6, 21, 11, 30, 0, 0, time.UTC),
		time.Date(2015, 6, 21, 12, 30, 0, 0, time.UTC),
	}
	return &simulation.SystemResult{
		RunID:       "3f1c",
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Site:        weather.Site{Latitude: 48.77, Longitude: 9.18},
		Weather:     weather.Meta{Kind: weather.KindDWD, Path: "/data/TRY.dat"},
		EnergyYield: 2.5,
		RatedPower:  4.4,
		Plants: []*simulation.PlantResult{
			{
				Index: 0, UID: "south", Timestamps: ts,
				POAGlobal: []float64{800, 900}, CellTemperature: []float64{40, 45},
				DCPower: []float64{1000, 1100}, ACPower: []float64{950, 1050},
				EnergyYield: 2.0, Losses: simulation.Losses{Clipping: 0.1, Standby: 0.2},
			},
			{
				Index: 1, Timestamps: ts,
				POAGlobal: []float64{100, 200}, CellTemperature: []float64{20, 22},
				DCPower: []float64{250, 260}, ACPower: []float64{240, 250},
				EnergyYield: 0.5,
			},
		},
	}
}

func TestRunRow(t *testing.T) {
	row := runRow(testResult())
	assert.Equal(t, "3f1c", row.RunID)
	assert.Equal(t, 2, row.Plants)
	assert.Equal(t, "dwd", row.WeatherKind)
	assert.Equal(t, "/data/TRY.dat", row.WeatherFile)
	assert.Equal(t, 48.77, row.Latitude)
	assert.Equal(t, 2.5, row.EnergyYield)
}

func TestPlantRows(t *testing.T) {
	rows := plantRows(testResult())
	require.Len(t, rows, 2)
	assert.Equal(t, "south", rows[0].UID)
	assert.Equal(t, 0.1, rows[0].LossClipping)
	assert.Equal(t, 0.2, rows[0].LossStandby)
	assert.Equal(t, 1, rows[1].PlantIndex)
	assert.Equal(t, "3f1c", rows[1].RunID)
}

func TestHourlyRows(t *testing.T) {
	r := testResult()
	rows := hourlyRows(r)
	require.Len(t, rows, 4)

	assert.Equal(t, r.Plants[0].Timestamps[1], rows[1].Time)
	assert.Equal(t, float32(1050), rows[1].ACPower)
	assert.Equal(t, 1, rows[2].PlantIndex)
	assert.Equal(t, float32(20), rows[2].CellTemperature)
	for _, row := range rows {
		assert.Equal(t, "3f1c", row.RunID)
	}
}

func TestSchemaOrder(t *testing.T) {
	names := make([]string, len(schema))
	for i, s := range schema {
		names[i] = s.name
	}
	assert.Less(t, indexOf(names, "TimescaleDB extension"), indexOf(names, "hypertable"))
	assert.Less(t, indexOf(names, "hourly table"), indexOf(names, "hypertable"))
	assert.Less(t, indexOf(names, "runs table"), indexOf(names, "plants table"))
}

func indexOf(s []string, v string) int {
	for i := range s {
		if s[i] == v {
			return i
		}
	}
	return -1
}
