package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"wealth-planner/internal/domain"
)

// RenderHistoryCSV renders history snapshots as CSV string.
// An absent success probability is an empty field.
func RenderHistoryCSV(history []*domain.GoalHistorySnapshot) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	// Header
	if err := w.Write([]string{"goal_id", "snapshot_date", "current_allocation", "required_pv", "success_probability"}); err != nil {
		return "", err
	}

	// Rows
	for _, h := range history {
		prob := ""
		if h.SuccessProbability != nil {
			prob = strconv.FormatFloat(*h.SuccessProbability, 'f', 2, 64)
		}
		if err := w.Write([]string{
			h.GoalID,
			h.SnapshotDate.Format(time.DateOnly),
			strconv.FormatFloat(h.CurrentAllocation, 'f', 2, 64),
			strconv.FormatFloat(h.RequiredPV, 'f', 2, 64),
			prob,
		}); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}

// RenderProjectionCSV renders projection rows as CSV string.
func RenderProjectionCSV(rows []ProjectionRow) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{"year", "worst", "median", "best", "required"}); err != nil {
		return "", err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			strconv.FormatFloat(r.Year, 'g', -1, 64),
			strconv.FormatFloat(r.Worst, 'f', 2, 64),
			strconv.FormatFloat(r.Median, 'f', 2, 64),
			strconv.FormatFloat(r.Best, 'f', 2, 64),
			strconv.FormatFloat(r.Required, 'f', 2, 64),
		}); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}
