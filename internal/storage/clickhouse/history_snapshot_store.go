package clickhouse

import (
	"context"
	"fmt"
	"time"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

const dateLayout = "2006-01-02"

// HistorySnapshotStore implements storage.HistorySnapshotStore using ClickHouse.
type HistorySnapshotStore struct {
	conn *Conn
}

// NewHistorySnapshotStore creates a new HistorySnapshotStore.
func NewHistorySnapshotStore(conn *Conn) *HistorySnapshotStore {
	return &HistorySnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.HistorySnapshotStore = (*HistorySnapshotStore)(nil)

// Insert adds a new snapshot. Returns ErrDuplicateKey if (goal_id, snapshot_date) exists.
// MergeTree does not enforce uniqueness, so the key is checked before insert.
func (s *HistorySnapshotStore) Insert(ctx context.Context, snap *domain.GoalHistorySnapshot) error {
	if snap == nil || snap.GoalID == "" || snap.SnapshotDate.IsZero() {
		return storage.ErrInvalidInput
	}

	day := domain.SnapshotDay(snap.SnapshotDate)

	exists, err := s.exists(ctx, snap.GoalID, day)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO goal_history (
			goal_id, snapshot_date, current_allocation, required_pv, success_probability, recorded_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	recordedAt := snap.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	err = batch.Append(
		snap.GoalID, day, snap.CurrentAllocation, snap.RequiredPV,
		snap.SuccessProbability, recordedAt,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByGoalID retrieves all snapshots for a goal, ordered by snapshot_date ASC.
func (s *HistorySnapshotStore) GetByGoalID(ctx context.Context, goalID string) ([]*domain.GoalHistorySnapshot, error) {
	query := `
		SELECT goal_id, snapshot_date, current_allocation, required_pv, success_probability, recorded_at
		FROM goal_history
		WHERE goal_id = ?
		ORDER BY snapshot_date ASC
	`

	rows, err := s.conn.Query(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("query by goal id: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByDateRange retrieves snapshots for a goal within [start, end] (inclusive).
func (s *HistorySnapshotStore) GetByDateRange(ctx context.Context, goalID string, start, end time.Time) ([]*domain.GoalHistorySnapshot, error) {
	query := `
		SELECT goal_id, snapshot_date, current_allocation, required_pv, success_probability, recorded_at
		FROM goal_history
		WHERE goal_id = ? AND snapshot_date >= toDate(?) AND snapshot_date <= toDate(?)
		ORDER BY snapshot_date ASC
	`

	rows, err := s.conn.Query(ctx, query, goalID,
		domain.SnapshotDay(start).Format(dateLayout),
		domain.SnapshotDay(end).Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query by date range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// DeleteByGoalID removes all snapshots for a goal using a lightweight delete.
func (s *HistorySnapshotStore) DeleteByGoalID(ctx context.Context, goalID string) error {
	if err := s.conn.Exec(ctx, `DELETE FROM goal_history WHERE goal_id = ?`, goalID); err != nil {
		return fmt.Errorf("delete goal history: %w", err)
	}
	return nil
}

// exists checks if a snapshot for the goal and day exists.
func (s *HistorySnapshotStore) exists(ctx context.Context, goalID string, day time.Time) (bool, error) {
	query := `
		SELECT count(*) FROM goal_history
		WHERE goal_id = ? AND snapshot_date = toDate(?)
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, goalID, day.Format(dateLayout)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows chRows) ([]*domain.GoalHistorySnapshot, error) {
	var snaps []*domain.GoalHistorySnapshot

	for rows.Next() {
		var s domain.GoalHistorySnapshot
		var date time.Time

		err := rows.Scan(
			&s.GoalID, &date, &s.CurrentAllocation, &s.RequiredPV,
			&s.SuccessProbability, &s.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan goal history row: %w", err)
		}

		s.SnapshotDate = domain.SnapshotDay(date)
		s.RecordedAt = s.RecordedAt.UTC()
		snaps = append(snaps, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal history rows: %w", err)
	}

	return snaps, nil
}
