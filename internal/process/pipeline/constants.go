package pipeline

// Log field constants
const (
	LogFieldCycleID    = "cycle_id"
	LogFieldReviewID   = "review_id"
	LogFieldCount      = "count"
	LogFieldCandidates = "candidates"
	LogFieldScored     = "scored"
	LogFieldGroups     = "groups"
	LogFieldSelected   = "selected"
	LogFieldDryRun     = "dry_run"
	LogFieldPath       = "path"
)

// Cycle outcome labels for metrics.
const (
	cycleStatusSuccess = "success"
	cycleStatusError   = "error"
	cycleStatusLocked  = "locked"
)
