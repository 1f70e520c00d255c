// Package devicedb provides read-only access to PV module and inverter
// parameter libraries in the System Advisor Model (SAM) format.
package devicedb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DatabaseKind selects which module library and electrical model a plant
// uses.
type DatabaseKind int

const (
	Sandia DatabaseKind = 1
	CEC    DatabaseKind = 2
)

func (k DatabaseKind) String() string {
	switch k {
	case Sandia:
		return "SANDIA"
	case CEC:
		return "CEC"
	}
	return fmt.Sprintf("DatabaseKind(%d)", int(k))
}

// Valid reports whether k names a supported library.
func (k DatabaseKind) Valid() bool {
	return k == Sandia || k == CEC
}

// ParseDatabaseKind accepts "SANDIA", "CEC" or the numeric codes 1 and 2.
func ParseDatabaseKind(s string) (DatabaseKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SANDIA", "SAPM", "1":
		return Sandia, nil
	case "CEC", "2":
		return CEC, nil
	}
	return 0, fmt.Errorf("unknown module database type %q", s)
}

// MarshalJSON encodes the kind by name.
func (k DatabaseKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts either the library name or its numeric code.
func (k *DatabaseKind) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDatabaseKind(fmt.Sprint(raw))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// UnmarshalYAML accepts either the library name or its numeric code.
func (k *DatabaseKind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseDatabaseKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SAPMParams are the Sandia Array Performance Model coefficients of a
// module.
type SAPMParams struct {
	Area          float64 `json:"Area"`
	CellsInSeries float64 `json:"Cells_in_Series"`
	Isco          float64 `json:"Isco"`
	Voco          float64 `json:"Voco"`
	Impo          float64 `json:"Impo"`
	Vmpo          float64 `json:"Vmpo"`
	Aisc          float64 `json:"Aisc"`
	Aimp          float64 `json:"Aimp"`
	C0            float64 `json:"C0"`
	C1            float64 `json:"C1"`
	C2            float64 `json:"C2"`
	C3            float64 `json:"C3"`
	Bvoco         float64 `json:"Bvoco"`
	Mbvoc         float64 `json:"Mbvoc"`
	Bvmpo         float64 `json:"Bvmpo"`
	Mbvmp         float64 `json:"Mbvmp"`
	N             float64 `json:"N"`
	A0            float64 `json:"A0"`
	A1            float64 `json:"A1"`
	A2            float64 `json:"A2"`
	A3            float64 `json:"A3"`
	A4            float64 `json:"A4"`
	FD            float64 `json:"FD"`
}

// CECParams are the single-diode model parameters the California Energy
// Commission library publishes for a module.
type CECParams struct {
	Technology string  `json:"Technology"`
	STC        float64 `json:"STC"`
	Ac         float64 `json:"A_c"`
	Ns         float64 `json:"N_s"`
	IscRef     float64 `json:"I_sc_ref"`
	VocRef     float64 `json:"V_oc_ref"`
	ImpRef     float64 `json:"I_mp_ref"`
	VmpRef     float64 `json:"V_mp_ref"`
	AlphaSc    float64 `json:"alpha_sc"`
	BetaOc     float64 `json:"beta_oc"`
	ARef       float64 `json:"a_ref"`
	ILRef      float64 `json:"I_L_ref"`
	IoRef      float64 `json:"I_o_ref"`
	Rs         float64 `json:"R_s"`
	RshRef     float64 `json:"R_sh_ref"`
	Adjust     float64 `json:"Adjust"`
	GammaR     float64 `json:"gamma_r"`
}

// ModuleParams is a module record. Exactly one of SAPM and CEC is set,
// according to Kind.
type ModuleParams struct {
	Name string       `json:"name"`
	Kind DatabaseKind `json:"kind"`
	SAPM *SAPMParams  `json:"sapm,omitempty"`
	CEC  *CECParams   `json:"cec,omitempty"`
}

// RatedPower returns the module's maximum power at standard test
// conditions in W.
func (m ModuleParams) RatedPower() float64 {
	switch {
	case m.SAPM != nil:
		return m.SAPM.Impo * m.SAPM.Vmpo
	case m.CEC != nil:
		return m.CEC.ImpRef * m.CEC.VmpRef
	}
	return 0
}

// Area returns the module surface area in m².
func (m ModuleParams) Area() float64 {
	switch {
	case m.SAPM != nil:
		return m.SAPM.Area
	case m.CEC != nil:
		return m.CEC.Ac
	}
	return 0
}

// InverterParams are the Sandia inverter model coefficients, as published in
// the CEC inverter library.
type InverterParams struct {
	Name     string  `json:"name"`
	Vac      float64 `json:"Vac"`
	Paco     float64 `json:"Paco"`
	Pdco     float64 `json:"Pdco"`
	Vdco     float64 `json:"Vdco"`
	Pso      float64 `json:"Pso"`
	C0       float64 `json:"C0"`
	C1       float64 `json:"C1"`
	C2       float64 `json:"C2"`
	C3       float64 `json:"C3"`
	Pnt      float64 `json:"Pnt"`
	Vdcmax   float64 `json:"Vdcmax"`
	Idcmax   float64 `json:"Idcmax"`
	MpptLow  float64 `json:"Mppt_low"`
	MpptHigh float64 `json:"Mppt_high"`
}

// NormalizeName maps a library product name to the identifier form used by
// pvlib-style lookups: every character that is not a letter or digit becomes
// an underscore.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
