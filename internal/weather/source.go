package weather

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source parses one weather file format into calendar-ordered hourly rows.
type Source interface {
	Kind() Kind
	Parse(path string, r io.Reader) (*Parsed, error)
}

// Row is one hourly line of a weather file before time alignment. Hour is
// the 1..24 hour-ending convention both supported formats use.
type Row struct {
	Line             int
	Month, Day, Hour int
	GHI, DNI, DHI    float64
	HasDNI, HasDHI   bool
	TempAir          float64
	WindSpeed        float64
	Pressure         float64
	RelativeHumidity float64
}

// Parsed is the output of a Source.
type Parsed struct {
	Meta Meta
	Rows []Row
}

// Options tune ingestion.
type Options struct {
	// RecalculateDNI replaces file-supplied DNI with the value implied by
	// GHI, DHI and solar position.
	RecalculateDNI bool
}

// Detect selects a Source for path from its extension, falling back to
// inspecting the first bytes of the file.
func Detect(path string, head []byte) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".epw":
		return EPW{}, nil
	case ".dat", ".try":
		return DWD{}, nil
	}

	if bytes.HasPrefix(bytes.TrimLeft(head, "\ufeff \t\r\n"), []byte("LOCATION,")) {
		return EPW{}, nil
	}
	if bytes.Contains(head, []byte("\n***")) {
		return DWD{}, nil
	}
	return nil, formatErrorf(path, 0, "unrecognized weather file format")
}

// Ingest reads a weather file and returns its canonical record for site.
func Ingest(path string, site Site, opts Options) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weather file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read weather file: %w", err)
	}

	src, err := Detect(path, head)
	if err != nil {
		return nil, err
	}

	parsed, err := src.Parse(path, br)
	if err != nil {
		return nil, err
	}
	parsed.Meta.Kind = src.Kind()
	parsed.Meta.Path = path

	return Align(parsed, site, opts)
}

// scanLines returns a scanner able to hold the long header lines EPW files
// carry.
func scanLines(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return sc
}
