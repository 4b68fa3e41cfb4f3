// Package indexdb records generation runs in a SQLite database so maps can
// be compared and searched without regenerating them.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/OCharnyshevich/biomemap/pkg/world"
	"github.com/OCharnyshevich/biomemap/pkg/world/gen"
	"github.com/OCharnyshevich/biomemap/pkg/world/region"
)

// Index is a SQLite-backed record of generated worlds.
type Index struct {
	db  *sql.DB
	log *slog.Logger
}

// RegionRow summarises one recorded region.
type RegionRow struct {
	X, Y       int
	Sites      int
	Cells      int
	Degenerate int
	Influences int
	Ocean      int
}

// Open opens (creating if needed) the index database at path.
func Open(path string, log *slog.Logger) (*Index, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db, log: log}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed INTEGER NOT NULL,
			config TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS regions (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			sites INTEGER NOT NULL,
			cells INTEGER NOT NULL,
			degenerate INTEGER NOT NULL,
			influences INTEGER NOT NULL,
			ocean INTEGER NOT NULL,
			PRIMARY KEY (run_id, cx, cy)
		);`,
		`CREATE TABLE IF NOT EXISTS biome_counts (
			run_id INTEGER NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			biome TEXT NOT NULL,
			cells INTEGER NOT NULL,
			PRIMARY KEY (run_id, cx, cy, biome),
			FOREIGN KEY (run_id, cx, cy) REFERENCES regions(run_id, cx, cy) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS biome_counts_biome ON biome_counts(biome);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// BeginRun records a new generation run and returns its id. cfg is stored
// as JSON for later inspection.
func (x *Index) BeginRun(ctx context.Context, seed int64, cfg any) (int64, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("marshal run config: %w", err)
	}
	res, err := x.db.ExecContext(ctx,
		`INSERT INTO runs (seed, config, created_at) VALUES (?, ?, ?)`,
		seed, string(b), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// RecordRegion stores the summary and biome histogram of r under run.
func (x *Index) RecordRegion(ctx context.Context, run int64, r *region.Region) error {
	row := RegionRow{
		X:          r.Chunk.X,
		Y:          r.Chunk.Y,
		Sites:      len(r.Sites),
		Cells:      len(r.Diagram.Cells),
		Influences: len(r.Influences),
	}
	for i, c := range r.Diagram.Cells {
		if c.Degenerate {
			row.Degenerate++
			continue
		}
		if r.Attributes[i].Ocean() {
			row.Ocean++
		}
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO regions (run_id, cx, cy, sites, cells, degenerate, influences, ocean)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run, row.X, row.Y, row.Sites, row.Cells, row.Degenerate, row.Influences, row.Ocean); err != nil {
		return fmt.Errorf("insert region %s: %w", r.Chunk, err)
	}
	for b, n := range r.BiomeCounts() {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO biome_counts (run_id, cx, cy, biome, cells) VALUES (?, ?, ?, ?, ?)`,
			run, row.X, row.Y, b.String(), n); err != nil {
			return fmt.Errorf("insert biome count %s: %w", r.Chunk, err)
		}
	}
	return tx.Commit()
}

// RecordWorld stores a run for every generated region of w.
func (x *Index) RecordWorld(ctx context.Context, w *world.World, cfg any) (int64, error) {
	run, err := x.BeginRun(ctx, w.Config().Seed, cfg)
	if err != nil {
		return 0, err
	}
	regions := w.Regions()
	for _, r := range regions {
		if err := x.RecordRegion(ctx, run, r); err != nil {
			return run, err
		}
	}
	x.log.Info("recorded run in index", "run", run, "regions", len(regions))
	return run, nil
}

// Regions returns the recorded regions of a run in chunk order.
func (x *Index) Regions(ctx context.Context, run int64) ([]RegionRow, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT cx, cy, sites, cells, degenerate, influences, ocean
		 FROM regions WHERE run_id = ? ORDER BY cy, cx`, run)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	var out []RegionRow
	for rows.Next() {
		var r RegionRow
		if err := rows.Scan(&r.X, &r.Y, &r.Sites, &r.Cells, &r.Degenerate, &r.Influences, &r.Ocean); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BiomeTotals sums the biome histogram of a run across its regions.
func (x *Index) BiomeTotals(ctx context.Context, run int64) (map[gen.Biome]int, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT biome, SUM(cells) FROM biome_counts WHERE run_id = ? GROUP BY biome`, run)
	if err != nil {
		return nil, fmt.Errorf("query biome totals: %w", err)
	}
	defer rows.Close()

	out := make(map[gen.Biome]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan biome total: %w", err)
		}
		b, err := gen.ParseBiome(name)
		if err != nil {
			return nil, err
		}
		out[b] = n
	}
	return out, rows.Err()
}

// RunsWithBiome lists the runs in which biome covers at least minCells
// cells, newest first.
func (x *Index) RunsWithBiome(ctx context.Context, b gen.Biome, minCells int) ([]int64, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT run_id FROM biome_counts WHERE biome = ?
		 GROUP BY run_id HAVING SUM(cells) >= ? ORDER BY run_id DESC`, b.String(), minCells)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
