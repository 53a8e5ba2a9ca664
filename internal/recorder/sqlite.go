package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists scan history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS wave_scans (
			id            TEXT PRIMARY KEY,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT,
			interval      TEXT,
			bar_count     INTEGER,
			current_price REAL,
			outcome       TEXT,
			wave1_low     REAL,
			wave1_high    REAL,
			wave2_low     REAL,
			retrace       REAL,
			pattern       TEXT,
			in_entry_zone INTEGER,
			zone_lower    REAL,
			zone_upper    REAL,
			target_1618   REAL,
			target_200    REAL,
			target_2618   REAL,
			candidates    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_ts ON wave_scans(timestamp)`,

		`CREATE TABLE IF NOT EXISTS wave_candidates (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id        TEXT NOT NULL REFERENCES wave_scans(id),
			seq            INTEGER NOT NULL,
			wave1_low_idx  INTEGER,
			wave1_low      REAL,
			wave1_high_idx INTEGER,
			wave1_high     REAL,
			wave2_low_idx  INTEGER,
			wave2_low      REAL,
			retrace        REAL,
			pattern        TEXT,
			volume_surge   INTEGER,
			ema_confluence INTEGER,
			confirmed      INTEGER,
			round_trip     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_scan ON wave_candidates(scan_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordScan(rec *ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	det := rec.Detection
	var (
		w1Low, w1High, w2Low, retrace float64
		zoneLower, zoneUpper          float64
		pattern                       string
		inZone                        bool
	)
	targets := make([]float64, 3)
	if det.Result != nil {
		c := det.Result.Candidate
		w1Low, w1High, w2Low, retrace = c.Wave1Low.Price, c.Wave1High.Price, c.Wave2Low.Price, c.RetraceRatio
		pattern = c.Pattern.String()
		inZone = det.Result.InEntryZone
		zoneLower = det.Result.Projection.RetraceZone.Lower
		zoneUpper = det.Result.Projection.RetraceZone.Upper
		for i := 0; i < len(det.Result.Projection.Targets) && i < 3; i++ {
			targets[i] = det.Result.Projection.Targets[i].Price
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO wave_scans
		(id, timestamp, symbol, interval, bar_count, current_price, outcome,
		 wave1_low, wave1_high, wave2_low, retrace, pattern, in_entry_zone,
		 zone_lower, zone_upper, target_1618, target_200, target_2618, candidates)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.ScannedAt.Unix(), rec.Symbol, rec.Interval, rec.BarCount, rec.CurrentPrice, Outcome(det),
		w1Low, w1High, w2Low, retrace, pattern, inZone,
		zoneLower, zoneUpper, targets[0], targets[1], targets[2], len(det.Audit),
	); err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	for i, c := range det.Audit {
		if _, err := tx.Exec(`INSERT INTO wave_candidates
			(scan_id, seq, wave1_low_idx, wave1_low, wave1_high_idx, wave1_high, wave2_low_idx, wave2_low,
			 retrace, pattern, volume_surge, ema_confluence, confirmed, round_trip)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			rec.ID, i,
			c.Wave1Low.Index, c.Wave1Low.Price,
			c.Wave1High.Index, c.Wave1High.Price,
			c.Wave2Low.Index, c.Wave2Low.Price,
			c.RetraceRatio, c.Pattern.String(),
			c.VolumeSurge, c.EMAConfluence, c.Confirmed, c.RoundTrip,
		); err != nil {
			return fmt.Errorf("insert candidate %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecentScans(limit int) ([]ScanSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, symbol, interval, outcome, current_price,
			wave1_low, wave1_high, wave2_low, retrace, in_entry_zone, candidates
		FROM wave_scans ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var out []ScanSummary
	for rows.Next() {
		var s ScanSummary
		var ts int64
		if err := rows.Scan(&s.ID, &ts, &s.Symbol, &s.Interval, &s.Outcome, &s.CurrentPrice,
			&s.Wave1Low, &s.Wave1High, &s.Wave2Low, &s.Retrace, &s.InEntryZone, &s.Candidates); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		s.ScannedAt = time.Unix(ts, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
