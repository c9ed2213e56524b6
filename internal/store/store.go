// Package store is the PostgreSQL adapter: schema setup, the three
// persister mutations, and the read queries the dashboard needs.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"scylla/internal/config"
	"scylla/internal/probeset"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a PostgreSQL connection pool shared by the persister, the
// prepare command's Setup, and the dashboard's read handlers.
type Store struct {
	db *sqlx.DB
}

// Open connects to storeURL and runs pending migrations.
func Open(storeURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", storeURL)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	driver, err := postgres.WithInstance(s.db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Setup inserts one row per team, per (team, machine), and per
// (team, machine, service) named in round. Re-running Setup on a
// populated store is expected to fail on a primary-key conflict.
func (s *Store) Setup(ctx context.Context, round *config.Round) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, team := range round.Teams {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO teams (team_id, pass) VALUES ($1, $2)`,
			team.ID, team.Password); err != nil {
			return fmt.Errorf("insert team %s: %w", team.ID, err)
		}
	}

	for _, machine := range round.Machines {
		for _, team := range round.Teams {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vms (vm_id, team_id) VALUES ($1, $2)`,
				machine.ID, team.ID); err != nil {
				return fmt.Errorf("insert vm %s/%s: %w", machine.ID, team.ID, err)
			}
			for _, svc := range machine.Services {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO services (svc_id, vm_id, team_id) VALUES ($1, $2, $3)`,
					svc.ID, machine.ID, team.ID); err != nil {
					return fmt.Errorf("insert service %s/%s/%s: %w", svc.ID, machine.ID, team.ID, err)
				}
			}
		}
	}

	return tx.Commit()
}

// PersistUptime implements the §4.5 uptime mutation: resets the failure
// streak and marks the service live.
func (s *Store) PersistUptime(ctx context.Context, meta probeset.Meta) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE services
		SET check_count = check_count + 1,
		    uptime_score = uptime_score + 1,
		    recurring_down = 0,
		    latest_uptime_status = TRUE
		WHERE svc_id = $1 AND vm_id = $2 AND team_id = $3`,
		meta.ServiceID, meta.MachineID, meta.TeamID)
	return err
}

// PersistDowntime implements the §4.5 downtime mutation, returning the new
// recurring_down streak so the caller can apply the SLA rule.
func (s *Store) PersistDowntime(ctx context.Context, meta probeset.Meta) (int, error) {
	var recurringDown int
	err := s.db.QueryRowContext(ctx, `
		UPDATE services
		SET check_count = check_count + 1,
		    recurring_down = recurring_down + 1,
		    latest_uptime_status = FALSE
		WHERE svc_id = $1 AND vm_id = $2 AND team_id = $3
		RETURNING recurring_down`,
		meta.ServiceID, meta.MachineID, meta.TeamID).Scan(&recurringDown)
	return recurringDown, err
}

// PersistSLA increments the SLA counter for meta.
func (s *Store) PersistSLA(ctx context.Context, meta probeset.Meta) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE services SET sla_count = sla_count + 1 WHERE svc_id = $1 AND vm_id = $2 AND team_id = $3`,
		meta.ServiceID, meta.MachineID, meta.TeamID)
	return err
}
