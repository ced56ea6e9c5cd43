package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/FordLabs/PeopleMover/db"
)

const commandTimeout = time.Minute

// Migration describes one schema migration and whether it has run.
type Migration struct {
	Version   int64     `json:"version"`
	Path      string    `json:"path"`
	Applied   bool      `json:"applied"`
	AppliedAt time.Time `json:"appliedAt,omitempty"`
}

// Runner applies the PeopleMover schema with goose.
type Runner struct {
	db       *sql.DB
	provider *goose.Provider
	log      *slog.Logger
}

// Source returns the migration files to run: dir when set, otherwise the
// migrations compiled into the binary.
func Source(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(db.Migrations, "migrations")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("locate migrations dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations path %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// New opens a dedicated connection for dsn and prepares a goose provider.
func New(dsn string, migrations fs.FS, log *slog.Logger) (*Runner, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}
	if migrations == nil {
		return nil, errors.New("nil migrations source")
	}
	if log == nil {
		log = slog.Default()
	}
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sql connection: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, conn, migrations)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("configure goose: %w", err)
	}
	return &Runner{db: conn, provider: provider, log: log}, nil
}

// Up applies pending migrations.
func (r *Runner) Up(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	results, err := r.provider.Up(ctx)
	for _, res := range results {
		r.logResult(res)
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	r.log.Info("migrations applied", "count", len(results))
	return nil
}

// Status lists every known migration in version order.
func (r *Runner) Status(ctx context.Context) ([]Migration, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]Migration, 0, len(statuses))
	for _, st := range statuses {
		m := Migration{Applied: st.State == goose.StateApplied, AppliedAt: st.AppliedAt}
		if st.Source != nil {
			m.Version = st.Source.Version
			m.Path = st.Source.Path
		}
		out = append(out, m)
	}
	return out, nil
}

// Down rolls back the latest migration, or every migration above targetVersion when it is positive.
func (r *Runner) Down(ctx context.Context, targetVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if targetVersion > 0 {
		r.log.Info("rolling back migrations", "target", targetVersion)
		results, err := r.provider.DownTo(ctx, targetVersion)
		for _, res := range results {
			r.logResult(res)
		}
		if err != nil {
			return fmt.Errorf("rollback to version %d: %w", targetVersion, err)
		}
		return nil
	}
	r.log.Info("rolling back latest migration")
	res, err := r.provider.Down(ctx)
	if res != nil {
		r.logResult(res)
	}
	if err != nil {
		return fmt.Errorf("rollback latest migration: %w", err)
	}
	return nil
}

// Version reports the current schema version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	return r.provider.GetDBVersion(ctx)
}

// Close releases the migration connection.
func (r *Runner) Close() error {
	return r.db.Close()
}

func (r *Runner) logResult(res *goose.MigrationResult) {
	if res == nil || res.Source == nil {
		return
	}
	fields := []any{
		"version", res.Source.Version,
		"direction", res.Direction,
		"duration_ms", res.Duration.Milliseconds(),
	}
	if res.Error != nil {
		r.log.Error("migration failed", append(fields, "error", res.Error)...)
		return
	}
	r.log.Info("migration complete", fields...)
}
