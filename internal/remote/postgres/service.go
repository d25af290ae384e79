// Package postgres implements remote.TaskService directly against the
// consultancy database for self-hosted deployments, where Mesa and the
// ERP share one PostgreSQL instance and no upstream HTTP API exists.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ohsdesk/mesa/internal/domain"
	"github.com/ohsdesk/mesa/internal/remote"
)

type Service struct {
	pool *pgxpool.Pool
}

var _ remote.TaskService = (*Service)(nil) //nolint:gochecknoglobals // compile-time check

func New(ctx context.Context, dsn string, maxConns int32) (*Service, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Service{pool: pool}, nil
}

func (s *Service) Close() {
	s.pool.Close()
}

func (s *Service) FetchTasks(ctx context.Context, scope string) ([]domain.TaskRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company, unit, finalidade, sector, sector_id, status, priority,
		        responsible_name, responsible_id, due_date, updated_at
		 FROM tasks WHERE scope = $1
		 ORDER BY position, due_date NULLS LAST, id
		 LIMIT 1000`,
		scope,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres.Service.FetchTasks: %w", err)
	}
	defer rows.Close()

	var records []domain.TaskRecord
	for rows.Next() {
		var t domain.TaskRecord
		if scanErr := rows.Scan(
			&t.ID, &t.Company, &t.Unit, &t.Purpose, &t.Sector, &t.SectorID,
			&t.Status, &t.Priority, &t.ResponsibleName, &t.ResponsibleID,
			&t.DueDate, &t.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("postgres.Service.FetchTasks: scan: %w", scanErr)
		}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.Service.FetchTasks: rows: %w", err)
	}

	return records, nil
}

func (s *Service) SetTaskFields(ctx context.Context, id int64, patch domain.FieldPatch) (*domain.TaskRecord, error) {
	var t domain.TaskRecord

	err := s.pool.QueryRow(ctx,
		`UPDATE tasks SET
		   status          = COALESCE($1, status),
		   priority        = COALESCE($2, priority),
		   responsible_id  = COALESCE($3, responsible_id),
		   responsible_name = COALESCE(
		     (SELECT display_name FROM users WHERE users.id = $3), responsible_name),
		   sector_id       = COALESCE($4, sector_id),
		   sector          = COALESCE((SELECT name FROM sectors WHERE sectors.id = $4), sector),
		   due_date        = COALESCE($5, due_date),
		   updated_at      = now()
		 WHERE id = $6
		 RETURNING id, company, unit, finalidade, sector, sector_id, status, priority,
		           responsible_name, responsible_id, due_date, updated_at`,
		patch.Status, patch.Priority, patch.ResponsibleID, patch.SectorID, patch.DueDate, id,
	).Scan(
		&t.ID, &t.Company, &t.Unit, &t.Purpose, &t.Sector, &t.SectorID,
		&t.Status, &t.Priority, &t.ResponsibleName, &t.ResponsibleID,
		&t.DueDate, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres.Service.SetTaskFields: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres.Service.SetTaskFields: %w", err)
	}

	return &t, nil
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres.Service.DeleteTask: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres.Service.DeleteTask: %w", domain.ErrNotFound)
	}

	return nil
}

// PersistOrder rewrites the position column for the given ids in one
// transaction. Ids missing from the scope are skipped, matching the
// engine's tolerance for rows deleted under a concurrent refresh.
func (s *Service) PersistOrder(ctx context.Context, scope string, ids []int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres.Service.PersistOrder: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for pos, id := range ids {
		if _, err := tx.Exec(ctx,
			`UPDATE tasks SET position = $1 WHERE scope = $2 AND id = $3`,
			pos, scope, id,
		); err != nil {
			return fmt.Errorf("postgres.Service.PersistOrder: position %d: %w", pos, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.Service.PersistOrder: commit: %w", err)
	}

	return nil
}

func (s *Service) FetchUsersForUnit(ctx context.Context, scope string) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.display_name, u.email
		 FROM users u
		 JOIN unit_members m ON m.user_id = u.id
		 WHERE m.scope = $1
		 ORDER BY u.display_name`,
		scope,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres.Service.FetchUsersForUnit: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if scanErr := rows.Scan(&u.ID, &u.DisplayName, &u.Email); scanErr != nil {
			return nil, fmt.Errorf("postgres.Service.FetchUsersForUnit: scan: %w", scanErr)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.Service.FetchUsersForUnit: rows: %w", err)
	}

	return users, nil
}

func (s *Service) FetchSectors(ctx context.Context) ([]domain.Sector, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM sectors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres.Service.FetchSectors: %w", err)
	}
	defer rows.Close()

	var sectors []domain.Sector
	for rows.Next() {
		var sec domain.Sector
		if scanErr := rows.Scan(&sec.ID, &sec.Name); scanErr != nil {
			return nil, fmt.Errorf("postgres.Service.FetchSectors: scan: %w", scanErr)
		}
		sectors = append(sectors, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.Service.FetchSectors: rows: %w", err)
	}

	return sectors, nil
}
