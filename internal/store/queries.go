package store

import "context"

// ServiceRow is one (team, vm, service) cell of the dashboard grid.
type ServiceRow struct {
	TeamID      string `db:"team_id"`
	VMID        string `db:"vm_id"`
	ServiceID   string `db:"svc_id"`
	CheckCount  int    `db:"check_count"`
	UptimeScore int    `db:"uptime_score"`
	SLACount    int    `db:"sla_count"`
}

// GridRows returns every service row, ordered by team ascending so the
// dashboard can group rows by team without a second pass.
func (s *Store) GridRows(ctx context.Context) ([]ServiceRow, error) {
	var rows []ServiceRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT team_id, vm_id, svc_id, check_count, uptime_score, sla_count
		FROM services
		ORDER BY team_id ASC`)
	return rows, err
}

// ServiceColumn is a distinct (vm_id, svc_id) pair forming one grid column.
type ServiceColumn struct {
	VMID      string `db:"vm_id"`
	ServiceID string `db:"svc_id"`
}

// Columns returns every distinct (vm_id, svc_id) pair, sorted descending
// by svc_id per spec.md §4.8.
func (s *Store) Columns(ctx context.Context) ([]ServiceColumn, error) {
	var cols []ServiceColumn
	err := s.db.SelectContext(ctx, &cols, `
		SELECT DISTINCT vm_id, svc_id
		FROM services
		ORDER BY svc_id DESC`)
	return cols, err
}

// LeaderboardRow is one team's ranked score.
type LeaderboardRow struct {
	TeamID string `db:"team_id"`
	Score  int    `db:"score"`
}

// Leaderboard ranks teams by Σ(uptime_score − sla_count) descending.
func (s *Store) Leaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT team_id, SUM(uptime_score - sla_count)::int AS score
		FROM services
		GROUP BY team_id
		ORDER BY score DESC`)
	return rows, err
}
