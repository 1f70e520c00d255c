package weather

import (
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/pvyield/pkg/solar"
)

// Align places parsed rows on the canonical half-hour time base, evaluates
// the sun's position for site at every sample and fills in any irradiance
// component the file does not carry.
//
// A row stamped with hour-ending H is an average over [H-1, H) and receives
// the timestamp H-1:30, so the first sample of every record sits at 00:30
// local standard time on January 1st of ReferenceYear.
func Align(p *Parsed, site Site, opts Options) (*Record, error) {
	path := p.Meta.Path

	if len(p.Rows) != HoursPerYear {
		return nil, formatErrorf(path, 0, "expected %d hourly rows, found %d", HoursPerYear, len(p.Rows))
	}
	if math.IsNaN(site.Latitude) || site.Latitude < -90 || site.Latitude > 90 {
		return nil, fmt.Errorf("invalid site latitude %v", site.Latitude)
	}

	loc := fixedZone(p.Meta.UTCOffsetHours)
	start := time.Date(ReferenceYear, time.January, 1, 0, 30, 0, 0, loc)

	samples := make([]Sample, HoursPerYear)
	for i, row := range p.Rows {
		ts := start.Add(time.Duration(i) * time.Hour)

		if int(ts.Month()) != row.Month || ts.Day() != row.Day || ts.Hour() != row.Hour-1 {
			return nil, formatErrorf(path, row.Line, "row %02d-%02d hour %d is out of sequence, expected %02d-%02d hour %d",
				row.Month, row.Day, row.Hour, int(ts.Month()), ts.Day(), ts.Hour()+1)
		}

		sun := solar.SunPosition(ts, site.Latitude, site.Longitude)
		s := Sample{
			Timestamp:        ts,
			GHI:              nonNegative(row.GHI),
			TempAir:          row.TempAir,
			WindSpeed:        nonNegative(row.WindSpeed),
			Pressure:         row.Pressure,
			RelativeHumidity: row.RelativeHumidity,
			Sun:              sun,
		}

		switch {
		case !row.HasDHI:
			c := solar.Decompose(s.GHI, sun.Zenith, ts)
			s.DNI, s.DHI = c.DNI, c.DHI
		case !row.HasDNI || opts.RecalculateDNI:
			s.DHI = nonNegative(row.DHI)
			s.DNI = solar.DNIFromClosure(s.GHI, s.DHI, sun.Zenith)
		default:
			s.DHI = nonNegative(row.DHI)
			s.DNI = nonNegative(row.DNI)
		}
		// No beam or diffuse light without global light or sun.
		if s.GHI <= 0 || !sun.IsUp() {
			s.DNI, s.DHI = 0, 0
		}

		samples[i] = s
	}

	return &Record{meta: p.Meta, site: site, samples: samples}, nil
}

// fixedZone returns a zone with a constant offset; daylight saving time is
// never applied to weather records.
func fixedZone(hours float64) *time.Location {
	secs := int(math.Round(hours * 3600))
	sign := "+"
	abs := secs
	if secs < 0 {
		sign = "-"
		abs = -secs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, (abs%3600)/60), secs)
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
