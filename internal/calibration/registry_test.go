package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"futuresregime/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Defaults(t *testing.T) {
	reg := NewRegistry()

	es, err := reg.Get(domain.ES)
	require.NoError(t, err)
	require.Equal(t, 0.60, es.BalanceOverlapThreshold)

	nq, err := reg.Get(domain.NQ)
	require.NoError(t, err)
	require.Equal(t, 0.65, nq.BalanceOverlapThreshold)
}

func TestRegistry_UnknownInstrument(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get(domain.Instrument("CL"))
	require.ErrorIs(t, err, domain.ErrInvalidInstrument)
}

func TestRegistry_LoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calibration.yaml")
	content := []byte("ES:\n  balance_overlap_threshold: 0.50\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	reg := NewRegistry()
	require.NoError(t, reg.LoadOverrides(path))

	es, err := reg.Get(domain.ES)
	require.NoError(t, err)
	require.Equal(t, 0.50, es.BalanceOverlapThreshold)

	nq, err := reg.Get(domain.NQ)
	require.NoError(t, err)
	require.Equal(t, 0.65, nq.BalanceOverlapThreshold)
}

func TestRegistry_MissingOverrideFileIsNotError(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.LoadOverrides(""))
	require.NoError(t, reg.LoadOverrides("/nonexistent/path/calibration.yaml"))
}

func TestCalibration_ExpectedVolumeAt(t *testing.T) {
	reg := NewRegistry()
	es, err := reg.Get(domain.ES)
	require.NoError(t, err)

	require.Equal(t, int64(0), es.ExpectedVolumeAt(-5))
	require.Equal(t, es.FullSessionExpectedVolume, es.ExpectedVolumeAt(9999))

	mid := es.ExpectedVolumeAt(45) // halfway between the 30 and 60 knots
	require.Greater(t, mid, es.ExpectedVolumeAt(30))
	require.Less(t, mid, es.ExpectedVolumeAt(60))
}
