package model

// ExclusionReason enumerates why a season was excluded from metric
// computation. Reasons are closed-set so aggregation can group by cause.
type ExclusionReason string

const (
	// ExclusionNone marks a valid season.
	ExclusionNone ExclusionReason = ""

	// ExclusionInsufficientData marks a season whose missing-hour fraction
	// exceeded the configured maximum.
	ExclusionInsufficientData ExclusionReason = "insufficient_data"

	// ExclusionInsufficientCoreDays marks a season with fewer valid core
	// days than the configured minimum.
	ExclusionInsufficientCoreDays ExclusionReason = "insufficient_core_days"

	// ExclusionZeroRuntime marks a season whose equipment never ran.
	ExclusionZeroRuntime ExclusionReason = "zero_runtime"

	// ExclusionNoDemandResponse marks a season where no balance-point
	// candidate produced a usable fit (flat or undefined slope everywhere).
	ExclusionNoDemandResponse ExclusionReason = "no_demand_response"
)
