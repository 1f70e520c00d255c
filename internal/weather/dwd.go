package weather

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chrissnell/pvyield/pkg/geo"
)

// DWD reads test reference year (TRY) files published by the Deutscher
// Wetterdienst. A free-form header of "Key : value" lines ends with the
// column name line and a line starting with "***"; whitespace separated
// hourly rows follow. Times are in MEZ (UTC+1) all year.
type DWD struct{}

const dwdUTCOffset = 1.0

var dwdRequiredColumns = []string{"MM", "DD", "HH", "t", "p", "WG", "RF", "B", "D"}

var dwdRequiredHeader = []string{"Rechtswert", "Hochwert", "Hoehenlage", "Art des TRY", "Bezugszeitraum"}

func (DWD) Kind() Kind { return KindDWD }

func (DWD) Parse(path string, r io.Reader) (*Parsed, error) {
	sc := scanLines(r)
	p := &Parsed{
		Meta: Meta{UTCOffsetHours: dwdUTCOffset},
		Rows: make([]Row, 0, HoursPerYear),
	}

	var (
		lineNo   int
		prev     string
		columns  map[string]int
		nColumns int
		inData   bool
		header   = make(map[string]bool, len(dwdRequiredHeader))
	)

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")

		if !inData {
			if strings.HasPrefix(strings.TrimSpace(line), "***") {
				names := strings.Fields(prev)
				columns = make(map[string]int, len(names))
				for i, n := range names {
					columns[n] = i
				}
				for _, req := range dwdRequiredColumns {
					if _, ok := columns[req]; !ok {
						return nil, formatErrorf(path, lineNo-1, "column %q missing from column header", req)
					}
				}
				nColumns = len(names)
				inData = true
				continue
			}
			if key, val, ok := strings.Cut(line, ":"); ok {
				key = strings.TrimSpace(key)
				known, err := dwdHeaderField(&p.Meta, key, strings.TrimSpace(val))
				if err != nil {
					return nil, formatErrorf(path, lineNo, "header field %q: %v", key, err)
				}
				if known {
					header[key] = true
				}
			}
			if strings.TrimSpace(line) != "" {
				prev = line
			}
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		f := strings.Fields(line)
		if len(f) != nColumns {
			return nil, formatErrorf(path, lineNo, "expected %d columns, found %d", nColumns, len(f))
		}

		row, err := dwdRow(path, lineNo, f, columns)
		if err != nil {
			return nil, err
		}
		p.Rows = append(p.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, formatErrorf(path, lineNo, "read failed: %v", err)
	}
	if !inData {
		return nil, formatErrorf(path, 0, "no *** line separating header from data")
	}

	for _, key := range dwdRequiredHeader {
		if !header[key] {
			return nil, formatErrorf(path, 0, "header field %q missing", key)
		}
	}
	p.Meta.Latitude, p.Meta.Longitude = geo.ETRS89LCC().Inverse(p.Meta.GridEasting, p.Meta.GridNorthing)

	return p, nil
}

// dwdHeaderField stores a recognized header value on m and reports whether
// key was recognized. Numeric fields must start with a number.
func dwdHeaderField(m *Meta, key, val string) (bool, error) {
	var target *float64
	switch key {
	case "Rechtswert":
		target = &m.GridEasting
	case "Hochwert":
		target = &m.GridNorthing
	case "Hoehenlage":
		target = &m.Elevation
	case "Art des TRY":
		m.DatasetKind = val
		return val != "", nil
	case "Bezugszeitraum":
		m.ReferencePeriod = val
		return val != "", nil
	default:
		return false, nil
	}

	v, ok := leadingNumber(val)
	if !ok {
		return false, fmt.Errorf("%q is not a number", val)
	}
	*target = v
	return true, nil
}

func leadingNumber(s string) (float64, bool) {
	f := strings.Fields(s)
	if len(f) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(f[0], 64)
	return v, err == nil
}

func dwdRow(path string, lineNo int, f []string, columns map[string]int) (Row, error) {
	get := func(name string) (float64, error) {
		s := f[columns[name]]
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, formatErrorf(path, lineNo, "column %s is not numeric: %q", name, s)
		}
		return v, nil
	}

	vals := make(map[string]float64, len(dwdRequiredColumns))
	for _, name := range dwdRequiredColumns {
		v, err := get(name)
		if err != nil {
			return Row{}, err
		}
		vals[name] = v
	}

	direct, diffuse := vals["B"], vals["D"]
	return Row{
		Line:             lineNo,
		Month:            int(vals["MM"]),
		Day:              int(vals["DD"]),
		Hour:             int(vals["HH"]),
		GHI:              direct + diffuse,
		DHI:              diffuse,
		HasDHI:           true,
		TempAir:          vals["t"],
		WindSpeed:        vals["WG"],
		Pressure:         vals["p"] * 100, // hPa
		RelativeHumidity: vals["RF"],
	}, nil
}
