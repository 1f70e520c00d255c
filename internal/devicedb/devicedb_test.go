package devicedb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFiles() Files {
	return Files{
		SandiaModules: filepath.Join("testdata", "sandia_modules.csv"),
		CECModules:    filepath.Join("testdata", "cec_modules.csv"),
		Inverters:     filepath.Join("testdata", "cec_inverters.csv"),
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Canadian Solar CS5P-220M [ 2009]", "Canadian_Solar_CS5P_220M___2009_"},
		{"ABB: MICRO-0.25-I-OUTD-US-208 [208V]", "ABB__MICRO_0_25_I_OUTD_US_208__208V_"},
		{"Already_Normal", "Already_Normal"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestLoadFiles(t *testing.T) {
	cat, err := LoadFiles(testFiles())
	require.NoError(t, err)

	t.Run("sandia module by raw name", func(t *testing.T) {
		m, err := cat.Module(Sandia, "Canadian Solar CS5P-220M [ 2009]")
		require.NoError(t, err)
		require.NotNil(t, m.SAPM)
		assert.Nil(t, m.CEC)
		assert.Equal(t, 96.0, m.SAPM.CellsInSeries)
		assert.InDelta(t, 4.54629*48.3156, m.RatedPower(), 1e-9)
		assert.Equal(t, 1.701, m.Area())
	})

	t.Run("sandia module by normalized name", func(t *testing.T) {
		m, err := cat.Module(Sandia, "Canadian_Solar_CS5P_220M___2009_")
		require.NoError(t, err)
		assert.Equal(t, "Canadian Solar CS5P-220M [ 2009]", m.Name)
	})

	t.Run("cec module", func(t *testing.T) {
		m, err := cat.Module(CEC, "Canadian_Solar_Inc__CS5P_220M")
		require.NoError(t, err)
		require.NotNil(t, m.CEC)
		assert.Equal(t, "Mono-c-Si", m.CEC.Technology)
		assert.Equal(t, 8.7, m.CEC.Adjust)
		assert.InDelta(t, 4.69*46.9, m.RatedPower(), 1e-9)
	})

	t.Run("module kinds are separate libraries", func(t *testing.T) {
		_, err := cat.Module(CEC, "Canadian Solar CS5P-220M [ 2009]")
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "module", nf.Device)
		assert.Equal(t, "CEC", nf.Database)
	})

	t.Run("inverter", func(t *testing.T) {
		inv, err := cat.Inverter("ABB__MICRO_0_25_I_OUTD_US_208__208V_")
		require.NoError(t, err)
		assert.Equal(t, 250.0, inv.Paco)
		assert.Equal(t, 0.075, inv.Pnt)
	})

	t.Run("unknown inverter", func(t *testing.T) {
		_, err := cat.Inverter("nope")
		var nf *NotFoundError
		assert.True(t, errors.As(err, &nf))
	})

	assert.Len(t, cat.Modules(Sandia), 1)
	assert.Len(t, cat.Inverters(), 2)
}

func TestLoadFilesMissingColumn(t *testing.T) {
	_, err := LoadFiles(Files{Inverters: filepath.Join("testdata", "cec_modules.csv")})
	assert.Error(t, err)
}

func TestParseDatabaseKind(t *testing.T) {
	for in, want := range map[string]DatabaseKind{"SANDIA": Sandia, "sandia": Sandia, "1": Sandia, "CEC": CEC, "2": CEC} {
		got, err := ParseDatabaseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDatabaseKind("PVWATTS")
	assert.Error(t, err)
}

func TestSQLiteCatalog(t *testing.T) {
	cat, err := LoadFiles(testFiles())
	require.NoError(t, err)

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "devices.db"))
	require.NoError(t, err)
	defer db.Close()

	modules, inverters, err := db.Import(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, 2, modules)
	assert.Equal(t, 2, inverters)

	var lookup Lookup = db

	m, err := lookup.Module(Sandia, "Canadian_Solar_CS5P_220M___2009_")
	require.NoError(t, err)
	want, _ := cat.Module(Sandia, "Canadian Solar CS5P-220M [ 2009]")
	assert.Equal(t, want, m)

	inv, err := lookup.Inverter("SMA America: SB5000US [240V]")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, inv.Paco)

	_, err = lookup.Module(CEC, "missing")
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))

	_, err = lookup.Inverter("missing")
	assert.True(t, errors.As(err, &nf))
}
