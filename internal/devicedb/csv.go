package devicedb

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Files lists the SAM library CSV files a catalog is built from. Empty paths
// are skipped.
type Files struct {
	SandiaModules string `json:"modules_sandia,omitempty" yaml:"modules_sandia,omitempty"`
	CECModules    string `json:"modules_cec,omitempty" yaml:"modules_cec,omitempty"`
	Inverters     string `json:"inverters,omitempty" yaml:"inverters,omitempty"`
}

// LoadFiles reads every configured library file into a new catalog.
func LoadFiles(files Files) (*Catalog, error) {
	cat := NewCatalog()

	loaders := []struct {
		path string
		load func(io.Reader, *Catalog) error
	}{
		{files.SandiaModules, LoadSandiaModules},
		{files.CECModules, LoadCECModules},
		{files.Inverters, LoadInverters},
	}

	for _, l := range loaders {
		if l.path == "" {
			continue
		}
		if err := loadFile(l.path, cat, l.load); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func loadFile(path string, cat *Catalog, load func(io.Reader, *Catalog) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open device library: %w", err)
	}
	defer f.Close()

	if err := load(f, cat); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadSandiaModules reads a SAM Sandia module library.
func LoadSandiaModules(r io.Reader, cat *Catalog) error {
	t, err := readSAMTable(r)
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		rr := t.reader(row)
		p := &SAPMParams{
			Area:          rr.num("Area"),
			CellsInSeries: rr.num("Cells_in_Series"),
			Isco:          rr.num("Isco"),
			Voco:          rr.num("Voco"),
			Impo:          rr.num("Impo"),
			Vmpo:          rr.num("Vmpo"),
			Aisc:          rr.num("Aisc"),
			Aimp:          rr.num("Aimp"),
			C0:            rr.num("C0"),
			C1:            rr.num("C1"),
			C2:            rr.num("C2"),
			C3:            rr.num("C3"),
			Bvoco:         rr.num("Bvoco"),
			Mbvoc:         rr.num("Mbvoc"),
			Bvmpo:         rr.num("Bvmpo"),
			Mbvmp:         rr.num("Mbvmp"),
			N:             rr.num("N"),
			A0:            rr.num("A0"),
			A1:            rr.num("A1"),
			A2:            rr.num("A2"),
			A3:            rr.num("A3"),
			A4:            rr.num("A4"),
			FD:            rr.optional("FD"),
		}
		if rr.err != nil {
			return rr.err
		}
		cat.AddModule(ModuleParams{Name: rr.name, Kind: Sandia, SAPM: p})
	}
	return nil
}

// LoadCECModules reads a SAM CEC module library.
func LoadCECModules(r io.Reader, cat *Catalog) error {
	t, err := readSAMTable(r)
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		rr := t.reader(row)
		p := &CECParams{
			Technology: rr.text("Technology"),
			STC:        rr.optional("STC"),
			Ac:         rr.num("A_c"),
			Ns:         rr.num("N_s"),
			IscRef:     rr.num("I_sc_ref"),
			VocRef:     rr.num("V_oc_ref"),
			ImpRef:     rr.num("I_mp_ref"),
			VmpRef:     rr.num("V_mp_ref"),
			AlphaSc:    rr.num("alpha_sc"),
			BetaOc:     rr.num("beta_oc"),
			ARef:       rr.num("a_ref"),
			ILRef:      rr.num("I_L_ref"),
			IoRef:      rr.num("I_o_ref"),
			Rs:         rr.num("R_s"),
			RshRef:     rr.num("R_sh_ref"),
			Adjust:     rr.num("Adjust"),
			GammaR:     rr.optional("gamma_r"),
		}
		if rr.err != nil {
			return rr.err
		}
		cat.AddModule(ModuleParams{Name: rr.name, Kind: CEC, CEC: p})
	}
	return nil
}

// LoadInverters reads a SAM CEC inverter library.
func LoadInverters(r io.Reader, cat *Catalog) error {
	t, err := readSAMTable(r)
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		rr := t.reader(row)
		inv := InverterParams{
			Name:     rr.name,
			Vac:      rr.optional("Vac"),
			Paco:     rr.num("Paco"),
			Pdco:     rr.num("Pdco"),
			Vdco:     rr.num("Vdco"),
			Pso:      rr.num("Pso"),
			C0:       rr.num("C0"),
			C1:       rr.num("C1"),
			C2:       rr.num("C2"),
			C3:       rr.num("C3"),
			Pnt:      rr.num("Pnt"),
			Vdcmax:   rr.optional("Vdcmax"),
			Idcmax:   rr.optional("Idcmax"),
			MpptLow:  rr.optional("Mppt_low"),
			MpptHigh: rr.optional("Mppt_high"),
		}
		if rr.err != nil {
			return rr.err
		}
		cat.AddInverter(inv)
	}
	return nil
}

// samTable is a SAM library CSV: a header row naming the columns, a units
// row, a row of SAM variable names, then one product per row keyed by the
// first column.
type samTable struct {
	cols map[string]int
	rows [][]string
}

const samMetadataRows = 2

func readSAMTable(r io.Reader) (*samTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	t := &samTable{cols: make(map[string]int, len(header))}
	for i, name := range header {
		t.cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	for i := 0; i < samMetadataRows; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("failed to read metadata row %d: %w", i+1, err)
		}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func (t *samTable) reader(row []string) *rowReader {
	return &rowReader{t: t, row: row, name: strings.TrimSpace(row[0])}
}

// rowReader extracts typed columns from one product row and keeps the first
// error it encounters.
type rowReader struct {
	t    *samTable
	row  []string
	name string
	err  error
}

func (r *rowReader) cell(col string, required bool) (string, bool) {
	if r.err != nil {
		return "", false
	}
	idx, ok := r.t.cols[col]
	if !ok {
		if required {
			r.err = fmt.Errorf("library has no %q column", col)
		}
		return "", false
	}
	if idx >= len(r.row) {
		return "", false
	}
	return r.row[idx], true
}

func (r *rowReader) parse(col string, required bool) float64 {
	s, ok := r.cell(col, required)
	if !ok {
		return 0
	}
	v, err := parseNumber(s)
	if err != nil {
		r.err = fmt.Errorf("%q: column %s: %w", r.name, col, err)
		return 0
	}
	return v
}

func (r *rowReader) num(col string) float64      { return r.parse(col, true) }
func (r *rowReader) optional(col string) float64 { return r.parse(col, false) }

func (r *rowReader) text(col string) string {
	s, _ := r.cell(col, false)
	return strings.TrimSpace(s)
}
