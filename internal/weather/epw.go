package weather

import (
	"io"
	"strconv"
	"strings"
)

// EPW reads EnergyPlus weather files: eight header records followed by one
// comma separated record per hour.
type EPW struct{}

const (
	epwHeaderLines = 8
	epwMinFields   = 22

	epwMissingIrradiance = 9999.0
	epwMissingTemp       = 99.9
	epwMissingWind       = 999.0
	epwMissingPressure   = 999999.0
	epwMissingHumidity   = 999.0
)

// Column positions within a data record.
const (
	epwMonth       = 1
	epwDay         = 2
	epwHour        = 3
	epwDryBulb     = 6
	epwRelHumidity = 8
	epwPressure    = 9
	epwGHI         = 13
	epwDNI         = 14
	epwDHI         = 15
	epwWindSpeed   = 21
)

func (EPW) Kind() Kind { return KindEPW }

func (EPW) Parse(path string, r io.Reader) (*Parsed, error) {
	sc := scanLines(r)
	p := &Parsed{Rows: make([]Row, 0, HoursPerYear)}

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")

		if lineNo <= epwHeaderLines {
			if err := readEPWHeader(p, path, lineNo, line); err != nil {
				return nil, err
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		row, err := parseEPWRow(path, lineNo, line)
		if err != nil {
			return nil, err
		}
		if row.Month == 2 && row.Day == 29 {
			return nil, formatErrorf(path, lineNo, "leap day records are not supported")
		}
		p.Rows = append(p.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, formatErrorf(path, lineNo, "read failed: %v", err)
	}
	if lineNo < epwHeaderLines {
		return nil, formatErrorf(path, 0, "truncated header: %d of %d lines", lineNo, epwHeaderLines)
	}

	return p, nil
}

func readEPWHeader(p *Parsed, path string, lineNo int, line string) error {
	switch lineNo {
	case 1:
		f := strings.Split(line, ",")
		if len(f) < 10 || f[0] != "LOCATION" {
			return formatErrorf(path, lineNo, "expected LOCATION header record")
		}
		vals := make([]float64, 4)
		for i := range vals {
			v, err := strconv.ParseFloat(strings.TrimSpace(f[6+i]), 64)
			if err != nil {
				return formatErrorf(path, lineNo, "invalid LOCATION field %d: %q", 6+i, f[6+i])
			}
			vals[i] = v
		}
		p.Meta.Station = strings.TrimSpace(f[1])
		p.Meta.Latitude, p.Meta.Longitude = vals[0], vals[1]
		p.Meta.UTCOffsetHours, p.Meta.Elevation = vals[2], vals[3]
		if p.Meta.UTCOffsetHours < -12 || p.Meta.UTCOffsetHours > 14 {
			return formatErrorf(path, lineNo, "time zone offset %v out of range", p.Meta.UTCOffsetHours)
		}
	case epwHeaderLines:
		if !strings.HasPrefix(line, "DATA PERIODS") {
			return formatErrorf(path, lineNo, "expected DATA PERIODS record before hourly data")
		}
	}
	return nil
}

func parseEPWRow(path string, lineNo int, line string) (Row, error) {
	f := strings.Split(line, ",")
	if len(f) < epwMinFields {
		return Row{}, formatErrorf(path, lineNo, "expected at least %d fields, found %d", epwMinFields, len(f))
	}

	num := func(idx int) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(f[idx]), 64)
		if err != nil {
			return 0, formatErrorf(path, lineNo, "field %d is not numeric: %q", idx+1, f[idx])
		}
		return v, nil
	}

	var vals [epwMinFields]float64
	for _, idx := range []int{epwMonth, epwDay, epwHour, epwDryBulb, epwRelHumidity, epwPressure, epwGHI, epwDNI, epwDHI, epwWindSpeed} {
		v, err := num(idx)
		if err != nil {
			return Row{}, err
		}
		vals[idx] = v
	}

	row := Row{
		Line:      lineNo,
		Month:     int(vals[epwMonth]),
		Day:       int(vals[epwDay]),
		Hour:      int(vals[epwHour]),
		GHI:       vals[epwGHI],
		DNI:       vals[epwDNI],
		DHI:       vals[epwDHI],
		HasDNI:    vals[epwDNI] < epwMissingIrradiance,
		HasDHI:    vals[epwDHI] < epwMissingIrradiance,
		TempAir:   vals[epwDryBulb],
		WindSpeed: vals[epwWindSpeed],
	}

	if vals[epwGHI] >= epwMissingIrradiance {
		return Row{}, formatErrorf(path, lineNo, "global horizontal irradiance is missing")
	}
	if row.TempAir >= epwMissingTemp {
		return Row{}, formatErrorf(path, lineNo, "dry bulb temperature is missing")
	}
	if row.WindSpeed >= epwMissingWind {
		return Row{}, formatErrorf(path, lineNo, "wind speed is missing")
	}
	if vals[epwPressure] < epwMissingPressure {
		row.Pressure = vals[epwPressure]
	}
	if vals[epwRelHumidity] < epwMissingHumidity {
		row.RelativeHumidity = vals[epwRelHumidity]
	}

	return row, nil
}
