// internal/stages/apply-scoring-rules/config.go
package applyscoringrules

// Config carries the tunable rule thresholds. Defaults mirror the
// production rule set; no deployment has overridden them yet.
type Config struct {
	BudgetGraceFraction  float64
	MaxBudgetPenalty     float64
	PenaltyPerExcessUnit float64

	HighEmploymentRate  float64
	HighEmploymentBonus float64
	GoodEmploymentRate  float64
	GoodEmploymentBonus float64

	StateMatchBonus float64

	HighRating      float64
	HighRatingBonus float64
	GoodRating      float64
	GoodRatingBonus float64
}

func LoadConfig() *Config {
	return &Config{
		BudgetGraceFraction:  0.10,
		MaxBudgetPenalty:     0.30,
		PenaltyPerExcessUnit: 0.30,

		HighEmploymentRate:  90,
		HighEmploymentBonus: 1.10,
		GoodEmploymentRate:  80,
		GoodEmploymentBonus: 1.05,

		StateMatchBonus: 1.08,

		HighRating:      4.5,
		HighRatingBonus: 1.05,
		GoodRating:      4.0,
		GoodRatingBonus: 1.02,
	}
}
