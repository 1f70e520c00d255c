// Package weather reads typical-meteorological-year files into a canonical
// hourly record shared by every plant of a simulation run.
package weather

import (
	"time"

	"github.com/chrissnell/pvyield/pkg/solar"
)

const (
	// HoursPerYear is the fixed length of every record. Leap days are not
	// represented.
	HoursPerYear = 8760

	// ReferenceYear is the calendar year canonical timestamps are placed in.
	ReferenceYear = 2015
)

// Kind identifies the file format a record was read from.
type Kind string

const (
	KindEPW Kind = "epw"
	KindDWD Kind = "dwd"
)

// Site is the geographic location irradiance is evaluated for.
type Site struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Sample is one hour of weather, stamped at the middle of the hour it
// summarizes. Irradiance is in W/m², temperature in °C, wind in m/s and
// pressure in Pa. Pressure and RelativeHumidity are 0 when the file has none.
type Sample struct {
	Timestamp        time.Time      `json:"timestamp"`
	GHI              float64        `json:"ghi"`
	DNI              float64        `json:"dni"`
	DHI              float64        `json:"dhi"`
	TempAir          float64        `json:"temp_air"`
	WindSpeed        float64        `json:"wind_speed"`
	Pressure         float64        `json:"pressure"`
	RelativeHumidity float64        `json:"relative_humidity"`
	Sun              solar.Position `json:"sun"`
}

// Meta carries the descriptive header of the source file.
type Meta struct {
	Kind            Kind    `json:"kind"`
	Path            string  `json:"path"`
	Station         string  `json:"station,omitempty"`
	UTCOffsetHours  float64 `json:"utc_offset_hours"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Elevation       float64 `json:"elevation"`
	DatasetKind     string  `json:"dataset_kind,omitempty"`
	ReferencePeriod string  `json:"reference_period,omitempty"`
	GridEasting     float64 `json:"grid_easting,omitempty"`
	GridNorthing    float64 `json:"grid_northing,omitempty"`
}

// Record is an immutable year of hourly samples. It is safe for concurrent
// use by any number of readers.
type Record struct {
	meta    Meta
	site    Site
	samples []Sample
}

// Len returns the number of hourly samples, always HoursPerYear.
func (r *Record) Len() int {
	return len(r.samples)
}

// At returns the i-th sample.
func (r *Record) At(i int) Sample {
	return r.samples[i]
}

// Meta returns the file header information.
func (r *Record) Meta() Meta {
	return r.meta
}

// Site returns the location solar positions were computed for.
func (r *Record) Site() Site {
	return r.site
}

// Location returns the fixed-offset zone all timestamps are expressed in.
func (r *Record) Location() *time.Location {
	return r.samples[0].Timestamp.Location()
}

// Timestamps returns a copy of the hourly timestamps.
func (r *Record) Timestamps() []time.Time {
	ts := make([]time.Time, len(r.samples))
	for i, s := range r.samples {
		ts[i] = s.Timestamp
	}
	return ts
}

// ExceedsClearSky counts daylight hours whose GHI is greater than factor times
// the clear-sky estimate. A high count usually means a shifted time base or
// a wrong site location.
func (r *Record) ExceedsClearSky(factor float64) int {
	var n int
	for _, s := range r.samples {
		if !s.Sun.IsUp() || s.GHI <= 0 {
			continue
		}
		clear := solar.ClearSkyGHI(s.Timestamp, s.Sun.Zenith, r.meta.Elevation)
		if s.GHI > factor*clear+50 {
			n++
		}
	}
	return n
}
