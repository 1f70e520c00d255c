package responseformat

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format is an output encoding.
type Format string

const (
	JSON    Format = "json"
	MsgPack Format = "msgpack"
	CSV     Format = "csv"
)

// ErrNotTabular is returned when CSV is requested for a value that does not
// implement Tabular.
var ErrNotTabular = errors.New("value cannot be rendered as CSV")

// Tabular values can be rendered as CSV: one header row followed by rows
// of the same width.
type Tabular interface {
	Columns() []string
	Rows() [][]string
}

// ParseFormat maps a format name to a Format. The empty string is JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "msgpack", "messagepack":
		return MsgPack, nil
	case "csv":
		return CSV, nil
	}
	return "", fmt.Errorf("unsupported format %q (supported: json, msgpack, csv)", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case MsgPack:
		return "application/x-msgpack"
	case CSV:
		return "text/csv"
	}
	return "application/json"
}

// Extension returns the usual file extension of f, without the dot.
func (f Format) Extension() string {
	if f == "" {
		return string(JSON)
	}
	return string(f)
}

// Formatter handles encoding and writing responses in JSON, MessagePack or CSV
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WriteResponse writes the response in the format named by the "format"
// query parameter. JSON is the default.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any, headers map[string]string) error {
	// Set any provided headers first
	for k, v := range headers {
		w.Header().Set(k, v)
	}

	// Always set CORS header
	w.Header().Set("Access-Control-Allow-Origin", "*")

	format, err := ParseFormat(req.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return err
	}
	if format == CSV {
		if _, ok := data.(Tabular); !ok {
			http.Error(w, ErrNotTabular.Error(), http.StatusBadRequest)
			return ErrNotTabular
		}
	}

	w.Header().Set("Content-Type", format.ContentType())
	return f.Encode(w, format, data)
}

// Encode writes data to w in format.
func (f *Formatter) Encode(w io.Writer, format Format, data any) error {
	switch format {
	case MsgPack:
		return f.writeMsgPack(w, data)
	case CSV:
		t, ok := data.(Tabular)
		if !ok {
			return ErrNotTabular
		}
		return f.writeCSV(w, t)
	}
	return f.writeJSON(w, data)
}

func (f *Formatter) writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *Formatter) writeMsgPack(w io.Writer, data any) error {
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}

func (f *Formatter) writeCSV(w io.Writer, t Tabular) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows()); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}
