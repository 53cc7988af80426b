// Package sqlitestore persists the tracker snapshot in a single SQLite file.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/trackerstore"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = "1"

// Store is a trackerstore.Store backed by one SQLite database file.
type Store struct {
	path string
}

// New creates a store for the database file at path. Nothing is opened until
// Load or Save.
func New(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

// Path implements trackerstore.Store.
func (s *Store) Path() string { return s.path }

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps the database a single file with no shared cache.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

// Load implements trackerstore.Store.
func (s *Store) Load(ctx context.Context) (trackerstore.Snapshot, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return trackerstore.Snapshot{}, nil
		}
		return nil, fmt.Errorf("stat tracker db %s: %w", s.path, err)
	}

	db, err := open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", trackerstore.ErrCorrupt, err)
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&version); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read version: %v", trackerstore.ErrCorrupt, err)
	}
	if version != schemaVersion {
		return nil, fmt.Errorf("%w: unsupported version %s", trackerstore.ErrCorrupt, version)
	}

	snap := trackerstore.Snapshot{}
	rows, err := db.QueryContext(ctx, `SELECT path, fingerprint FROM tracked_assets ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("%w: query assets: %v", trackerstore.ErrCorrupt, err)
	}
	for rows.Next() {
		rec := &trackerstore.Record{}
		if err := rows.Scan(&rec.AssetPath, &rec.Fingerprint); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan asset: %v", trackerstore.ErrCorrupt, err)
		}
		snap[rec.AssetPath] = rec
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%w: iterate assets: %v", trackerstore.ErrCorrupt, err)
	}
	rows.Close()

	deps, err := db.QueryContext(ctx, `SELECT path, kind, file FROM dependencies ORDER BY path, kind, seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: query dependencies: %v", trackerstore.ErrCorrupt, err)
	}
	defer deps.Close()
	for deps.Next() {
		var path, kind, file string
		if err := deps.Scan(&path, &kind, &file); err != nil {
			return nil, fmt.Errorf("%w: scan dependency: %v", trackerstore.ErrCorrupt, err)
		}
		rec, ok := snap[path]
		if !ok {
			return nil, fmt.Errorf("%w: dependency of untracked asset '%s'", trackerstore.ErrCorrupt, path)
		}
		switch kind {
		case "input":
			rec.Inputs = append(rec.Inputs, file)
		case "output":
			rec.Outputs = append(rec.Outputs, file)
		}
	}
	if err := deps.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate dependencies: %v", trackerstore.ErrCorrupt, err)
	}
	return trackerstore.Normalize(snap)
}

// Save implements trackerstore.Store. The snapshot is written to a fresh
// database next to the target which then replaces it, so a corrupt or
// half-written previous file never leaks into the new one.
func (s *Store) Save(ctx context.Context, snap trackerstore.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create tracker dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp tracker db: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := writeSnapshot(ctx, tmpPath, snap); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("commit tracker db: %w", err)
	}
	return nil
}

func writeSnapshot(ctx context.Context, path string, snap trackerstore.Snapshot) error {
	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('version', ?)`, schemaVersion); err != nil {
		return fmt.Errorf("write version: %w", err)
	}

	paths := make([]string, 0, len(snap))
	for p := range snap {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, p := range paths {
		rec := snap[p]
		if _, err := tx.ExecContext(ctx, `INSERT INTO tracked_assets (path, fingerprint) VALUES (?, ?)`, p, rec.Fingerprint); err != nil {
			return fmt.Errorf("insert asset '%s': %w", p, err)
		}
		if err := insertDeps(ctx, tx, p, "input", rec.Inputs); err != nil {
			return err
		}
		if err := insertDeps(ctx, tx, p, "output", rec.Outputs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertDeps(ctx context.Context, tx *sql.Tx, path, kind string, files []string) error {
	for i, f := range files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dependencies (path, kind, seq, file) VALUES (?, ?, ?, ?)`,
			path, kind, i, f,
		); err != nil {
			return fmt.Errorf("insert %s dependency of '%s': %w", kind, path, err)
		}
	}
	return nil
}
