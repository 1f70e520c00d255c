package responseformat

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type yield struct {
	Name   string  `json:"name"`
	Energy float64 `json:"energy_kwh"`
}

type profile []yield

func (p profile) Columns() []string { return []string{"name", "energy_kwh"} }

func (p profile) Rows() [][]string {
	rows := make([][]string, len(p))
	for i, y := range p {
		rows[i] = []string{y.Name, strconv.FormatFloat(y.Energy, 'f', 1, 64)}
	}
	return rows
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", JSON, false},
		{"JSON", JSON, false},
		{"msgpack", MsgPack, false},
		{"csv", CSV, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestWriteResponseJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/simulations/x", nil)

	err := NewFormatter().WriteResponse(rec, req, yield{Name: "south", Energy: 4321.5}, map[string]string{"X-Run": "x"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "x", rec.Header().Get("X-Run"))

	var got yield
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, yield{Name: "south", Energy: 4321.5}, got)
}

func TestWriteResponseMsgPack(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/simulations/x?format=msgpack", nil)

	require.NoError(t, NewFormatter().WriteResponse(rec, req, yield{Name: "east", Energy: 12}, nil))
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "east", got["name"])
	assert.EqualValues(t, 12, got["energy_kwh"])
}

func TestWriteResponseCSV(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?format=csv", nil)

	data := profile{{Name: "a", Energy: 1.5}, {Name: "b"}}
	require.NoError(t, NewFormatter().WriteResponse(rec, req, data, nil))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"name", "energy_kwh"}, {"a", "1.5"}, {"b", "0.0"}}, records)

	rec = httptest.NewRecorder()
	err = NewFormatter().WriteResponse(rec, req, yield{}, nil)
	assert.ErrorIs(t, err, ErrNotTabular)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteResponseUnknownFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?format=xml", nil)
	assert.Error(t, NewFormatter().WriteResponse(rec, req, yield{}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter().Encode(&buf, JSON, yield{Name: "w"}))
	assert.Contains(t, buf.String(), `"name": "w"`)

	buf.Reset()
	assert.ErrorIs(t, NewFormatter().Encode(&buf, CSV, yield{}), ErrNotTabular)

	assert.Equal(t, "json", Format("").Extension())
	assert.Equal(t, "csv", CSV.Extension())
}
