package models

// Category is the channel an earning method runs through
type Category string

const (
	CategoryOnline  Category = "online"
	CategoryOffline Category = "offline"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	return c == CategoryOnline || c == CategoryOffline
}

// Difficulty represents how hard an earning method is to start
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Rank returns the ordering position of the difficulty (beginner first).
// Unknown values rank after every known one.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyBeginner:
		return 0
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	default:
		return 3
	}
}

// Valid reports whether d is one of the known difficulties
func (d Difficulty) Valid() bool {
	return d.Rank() < 3
}

// EarningMethod is a single catalog entry. Entries are created when the
// catalog is loaded and are never modified afterwards.
type EarningMethod struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Category      Category   `json:"category" yaml:"category"`
	MinInvestment int        `json:"minInvestment" yaml:"min_investment"`
	MaxInvestment int        `json:"maxInvestment" yaml:"max_investment"`
	MinEarning    int        `json:"minEarning" yaml:"min_earning"`
	MaxEarning    int        `json:"maxEarning" yaml:"max_earning"`
	Difficulty    Difficulty `json:"difficulty" yaml:"difficulty"`
	Description   string     `json:"description" yaml:"description"`
	Image         string     `json:"image,omitempty" yaml:"image"`
	LearningLink  string     `json:"learningLink,omitempty" yaml:"learning_link"`
	PlatformLink  string     `json:"platformLink,omitempty" yaml:"platform_link"`
	TimeToStart   string     `json:"timeToStart,omitempty" yaml:"time_to_start"`
	Requirements  []string   `json:"requirements,omitempty" yaml:"requirements"`
}
