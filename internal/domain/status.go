package domain

// Status is the health classification of a goal.
type Status string

// Status constants
const (
	StatusOnTrack Status = "ON_TRACK"
	StatusMonitor Status = "MONITOR"
	StatusAtRisk  Status = "AT_RISK"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOnTrack, StatusMonitor, StatusAtRisk:
		return true
	}
	return false
}
