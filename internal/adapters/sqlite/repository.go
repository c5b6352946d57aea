package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"futuresregime/internal/domain"
	"futuresregime/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.ReportSink using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite-backed report sink.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/regime_reports.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Data directory checked/created", map[string]interface{}{"path": filepath.Dir(dbPath)})

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS regime_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instrument TEXT NOT NULL,
		report_time TIMESTAMP NOT NULL,
		primary_regime TEXT NOT NULL,
		secondary_tag TEXT DEFAULT NULL,
		confidence INTEGER NOT NULL,
		volatility_state TEXT NOT NULL,
		participation_state TEXT NOT NULL,
		balance_state TEXT NOT NULL,
		trend_quality TEXT NOT NULL,
		noise_level TEXT NOT NULL,
		session_phase TEXT NOT NULL,
		reliability_note TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_regime_reports_instrument_time ON regime_reports (instrument, report_time);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// Save implements ports.ReportSink.
func (r *Repository) Save(ctx context.Context, report domain.RegimeReport) error {
	const query = `
	INSERT INTO regime_reports (instrument, report_time, primary_regime, secondary_tag, confidence,
	                             volatility_state, participation_state, balance_state, trend_quality,
	                             noise_level, session_phase, reliability_note)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var secondary sql.NullString
	if report.SecondaryTag != nil {
		secondary = sql.NullString{String: string(*report.SecondaryTag), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		string(report.Instrument), report.Timestamp.UTC(), string(report.PrimaryRegime), secondary,
		report.Confidence, string(report.VolatilityState), string(report.ParticipationState),
		string(report.BalanceState), string(report.TrendQuality), string(report.NoiseLevel),
		string(report.SessionPhase), report.OrderFlowReliabilityNote)
	if err != nil {
		return fmt.Errorf("failed to insert regime report for %s: %w", report.Instrument, err)
	}
	r.logger.Debug(ctx, "Regime report persisted", map[string]interface{}{
		"instrument": string(report.Instrument),
		"regime":     string(report.PrimaryRegime),
		"confidence": report.Confidence,
	})
	return nil
}

// RecentSecondaryTags returns the secondary_tag of up to limit most recent
// reports for instrument, newest first. Used by operator tooling to eyeball
// tag drift without a separate query tool.
func (r *Repository) RecentSecondaryTags(ctx context.Context, instrument domain.Instrument, limit int) ([]string, error) {
	const query = `
	SELECT COALESCE(secondary_tag, '') FROM regime_reports
	WHERE instrument = ? ORDER BY report_time DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, string(instrument), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent secondary tags for %s: %w", instrument, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan secondary tag row: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
