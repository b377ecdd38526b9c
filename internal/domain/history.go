package domain

import "time"

// GoalHistorySnapshot is a point-in-time record for trend display.
// At most one per goal per day.
type GoalHistorySnapshot struct {
	GoalID             string
	SnapshotDate       time.Time // truncated to UTC day
	CurrentAllocation  float64
	RequiredPV         float64
	SuccessProbability *float64 // nil when the goal had never been simulated
	RecordedAt         time.Time
}

// SnapshotDay truncates t to its UTC calendar day.
func SnapshotDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
