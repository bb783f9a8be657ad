// Package migrate aplica las migraciones SQL embebidas sobre database/sql.
//
// Formato de archivo: {version}_{name}.up.sql (ej: 0001_accounts.up.sql).
// Cada migración se aplica junto con su registro en una sola transacción.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver "pgx" para database/sql
)

const defaultTable = "schema_migrations"

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Applied es una migración ya registrada.
type Applied struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

// Result resume una corrida de Up.
type Result struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

var filePattern = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

// Migrator aplica migraciones desde un fs.FS.
type Migrator struct {
	db    *sql.DB
	fsys  fs.FS
	dir   string
	table string
}

// Open abre un *sql.DB con el driver pgx.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("migrate: open: %w", err)
	}
	return db, nil
}

// New crea un Migrator.
func New(db *sql.DB, fsys fs.FS, dir string) *Migrator {
	return &Migrator{db: db, fsys: fsys, dir: dir, table: defaultTable}
}

// Parse lee las migraciones del FS, ordenadas por versión.
func (m *Migrator) Parse() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("migrate: read dir: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := filePattern.FindStringSubmatch(e.Name())
		if match == nil {
			continue // .down.sql y otros
		}
		version, _ := strconv.Atoi(match[1])
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrate: duplicate version %d (%s, %s)", version, prev, e.Name())
		}
		seen[version] = e.Name()

		content, err := fs.ReadFile(m.fsys, path.Join(m.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("migrate: reading %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: match[2], SQL: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Up aplica las migraciones pendientes.
func (m *Migrator) Up(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}

	if err := m.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("migrate: creating %s: %w", m.table, err)
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	migrations, err := m.Parse()
	if err != nil {
		return nil, err
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			res.Skipped = append(res.Skipped, mig.Version)
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return res, fmt.Errorf("migrate: applying %04d_%s: %w", mig.Version, mig.Name, err)
		}
		res.Applied = append(res.Applied, mig.Version)
	}

	res.Duration = time.Since(start)
	return res, nil
}

// Status retorna las migraciones registradas en orden de versión.
func (m *Migrator) Status(ctx context.Context) ([]Applied, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("migrate: creating %s: %w", m.table, err)
	}
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`SELECT version, name, applied_at FROM %s ORDER BY version`, m.table))
	if err != nil {
		return nil, fmt.Errorf("migrate: status: %w", err)
	}
	defer rows.Close()

	var out []Applied
	for rows.Next() {
		var a Applied
		if err := rows.Scan(&a.Version, &a.Name, &a.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INT PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, m.table))
	return err
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`SELECT version FROM %s`, m.table))
	if err != nil {
		return nil, fmt.Errorf("migrate: list applied: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (version, name) VALUES ($1, $2)`, m.table),
		mig.Version, mig.Name,
	); err != nil {
		return err
	}
	return tx.Commit()
}
