package models

// Tier is the user's subscription level. Limit checks are always evaluated
// against the tier reported by the backend at mutation time, never a cached
// value.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Limits are the tier-gated ceilings. Zero means unlimited.
type Limits struct {
	MaxReminders int
	MaxCourses   int
	MonthlyTasks int
}

// Limits returns the ceilings for the tier. Unknown tiers get free limits.
func (t Tier) Limits() Limits {
	switch t {
	case TierPremium:
		return Limits{MaxReminders: 10}
	default:
		return Limits{MaxReminders: 3, MaxCourses: 5, MonthlyTasks: 60}
	}
}

// User is the authenticated account as reported by the backend.
type User struct {
	ID   string `json:"id"`
	Tier Tier   `json:"tier"`
}
