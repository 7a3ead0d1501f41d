package models

// Preference is the user's channel filter
type Preference string

const (
	PreferenceOnline  Preference = "online"
	PreferenceOffline Preference = "offline"
	PreferenceBoth    Preference = "both"
)

// Valid reports whether p is one of the known preferences
func (p Preference) Valid() bool {
	return p == PreferenceOnline || p == PreferenceOffline || p == PreferenceBoth
}

// Accepts reports whether a method in category c passes the preference filter
func (p Preference) Accepts(c Category) bool {
	return p == PreferenceBoth || string(p) == string(c)
}

// UserQuery is the input of a single recommendation request
type UserQuery struct {
	Investment  int        `json:"investment"`
	MonthlyGoal int        `json:"monthlyGoal"`
	Preference  Preference `json:"preference"`
}

// MatchResult pairs a catalog entry with its match score. Method points
// into the catalog and must be treated as read-only.
type MatchResult struct {
	Method     *EarningMethod `json:"method"`
	MatchScore float64        `json:"matchScore"`
}

// SortKey selects a presentation order for a result set
type SortKey string

const (
	SortByMatch      SortKey = "match"      // default closest-to-goal order
	SortByEarning    SortKey = "earning"    // maxEarning descending
	SortByInvestment SortKey = "investment" // minInvestment ascending
	SortByDifficulty SortKey = "difficulty" // beginner first
)

// Valid reports whether k is a known sort key
func (k SortKey) Valid() bool {
	switch k {
	case SortByMatch, SortByEarning, SortByInvestment, SortByDifficulty:
		return true
	}
	return false
}

// RecommendRequest is the API body for a recommendation request
type RecommendRequest struct {
	UserQuery
	SortBy SortKey `json:"sortBy,omitempty"`
}

// RecommendResponse is returned by the recommendation endpoints
type RecommendResponse struct {
	Query   UserQuery     `json:"query"`
	SortBy  SortKey       `json:"sortBy"`
	Results []MatchResult `json:"results"`
	Total   int           `json:"total"`
}

// ScoreResponse is returned by the single-method scoring endpoint
type ScoreResponse struct {
	MethodID   string  `json:"methodId"`
	MatchScore float64 `json:"matchScore"`
	Eligible   bool    `json:"eligible"`
}
