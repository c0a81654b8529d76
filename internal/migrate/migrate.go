package migrate

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"

	gomigrate "github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// MigrationError is fatal: the pipeline halts before fetching anything.
// Version is 0 when the failure is not tied to a single step.
type MigrationError struct {
	Version uint
	Err     error
}

func (e *MigrationError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("migration %d: %v", e.Version, e.Err)
	}
	return fmt.Sprintf("migration: %v", e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

var migrationFile = regexp.MustCompile(`^(\d+)_.+\.(up|down)\.sql$`)

// Run applies every embedded migration above the recorded schema version,
// in order, and returns the version the store ends at. Each step runs in
// its own transaction, and the recorded version advances per step, so a
// crash mid-run resumes from the next unapplied step. Re-running against
// an up-to-date store is a no-op.
func Run(db *sql.DB) (uint, error) {
	if db == nil {
		return 0, &MigrationError{Err: errors.New("database handle is required")}
	}

	if err := validateSet(embeddedMigrations); err != nil {
		return 0, err
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return 0, &MigrationError{Err: fmt.Errorf("open migrations: %w", err)}
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return 0, &MigrationError{Err: fmt.Errorf("create migration source: %w", err)}
	}

	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return 0, &MigrationError{Err: fmt.Errorf("create migration driver: %w", err)}
	}

	migrator, err := gomigrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return 0, &MigrationError{Err: fmt.Errorf("create migrator: %w", err)}
	}
	// Do not call migrator.Close here because it would close the shared handle.

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, gomigrate.ErrNoChange) {
		v, _, _ := migrator.Version()
		return v, &MigrationError{Version: v, Err: upErr}
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, gomigrate.ErrNilVersion) {
		return 0, &MigrationError{Err: fmt.Errorf("read schema version: %w", err)}
	}
	if dirty {
		return version, &MigrationError{Version: version, Err: errors.New("schema left dirty")}
	}
	return version, nil
}

// validateSet enforces the versioning invariant on the embedded files
// before anything touches the store: up migrations must start at 1 and
// increase by exactly 1, with no duplicates, and every up file needs a
// matching down file.
func validateSet(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, migrationsDir)
	if err != nil {
		return &MigrationError{Err: fmt.Errorf("read migrations dir: %w", err)}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return validateNames(names)
}

func validateNames(names []string) error {
	ups := map[uint]bool{}
	downs := map[uint]bool{}

	for _, name := range names {
		m := migrationFile.FindStringSubmatch(name)
		if m == nil {
			return &MigrationError{Err: fmt.Errorf("unrecognized migration file %q", name)}
		}
		v64, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil || v64 == 0 {
			return &MigrationError{Err: fmt.Errorf("bad version in migration file %q", name)}
		}
		v := uint(v64)

		set := ups
		if m[2] == "down" {
			set = downs
		}
		if set[v] {
			return &MigrationError{Version: v, Err: fmt.Errorf("duplicate version %d", v)}
		}
		set[v] = true
	}

	if len(ups) == 0 {
		return &MigrationError{Err: errors.New("no migrations found")}
	}

	versions := make([]uint, 0, len(ups))
	for v := range ups {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })

	for i, v := range versions {
		want := uint(i + 1)
		if v != want {
			return &MigrationError{Version: v, Err: fmt.Errorf("non-contiguous versions: expected %d, found %d", want, v)}
		}
		if !downs[v] {
			return &MigrationError{Version: v, Err: fmt.Errorf("missing down migration for version %d", v)}
		}
	}
	return nil
}
