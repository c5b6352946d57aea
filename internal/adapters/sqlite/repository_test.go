package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"futuresregime/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "regime-engine-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func sampleReport(instrument domain.Instrument) domain.RegimeReport {
	tag := domain.SecondaryClean
	return domain.RegimeReport{
		Instrument:               instrument,
		Timestamp:                time.Now().UTC(),
		PrimaryRegime:            domain.RegimeTrend,
		SecondaryTag:             &tag,
		Confidence:               84,
		VolatilityState:          domain.VolExpanding,
		ParticipationState:       domain.ParticipationHeavy,
		BalanceState:             domain.StateImbalanced,
		TrendQuality:             domain.TrendClean,
		NoiseLevel:               domain.NoiseLow,
		SessionPhase:             domain.MidAfternoon,
		OrderFlowReliabilityNote: "Continuation signals favored; fading less reliable.",
	}
}

func TestRepository_SaveReport(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.Save(context.Background(), sampleReport(domain.ES))
	require.NoError(t, err)
}

func TestRepository_SaveReport_NilSecondaryTag(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	report := sampleReport(domain.ES)
	report.SecondaryTag = nil
	report.PrimaryRegime = domain.RegimeTransition

	err := repo.Save(context.Background(), report)
	require.NoError(t, err)
}

func TestRepository_RecentSecondaryTags(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, sampleReport(domain.ES)))
	}
	require.NoError(t, repo.Save(ctx, sampleReport(domain.NQ)))

	tags, err := repo.RecentSecondaryTags(ctx, domain.ES, 10)
	require.NoError(t, err)
	assert.Len(t, tags, 3)
	for _, tag := range tags {
		assert.Equal(t, "clean", tag)
	}
}
