package focus

// CompletionReward summarises what one completion credited to the owner.
type CompletionReward struct {
	Minutes       int  `json:"minutes"`
	PointsEarned  int  `json:"points_earned"`
	BonusPoints   int  `json:"bonus_points"`
	EarlyBird     bool `json:"early_bird"`
	NightOwl      bool `json:"night_owl"`
	Weekend       bool `json:"weekend"`
	PerfectDay    bool `json:"perfect_day"`
	CurrentStreak int  `json:"current_streak"`
}
