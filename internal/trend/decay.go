package trend

// Reputation decay: confidence in a score erodes linearly over inactivity,
// down to a floor of 1.0 - DecayMax after DecayDays.
const (
	DecayDays = 90.0
	DecayMax  = 0.5
)

// DecayFactor returns a multiplier in [0.5, 1.0] reflecting reduced
// confidence in a wallet's score due to inactivity.
//
// An absent profile means unknown history, which is not penalized (1.0).
// Callers round the result to 4 decimals before publishing.
func DecayFactor(profile *Profile, nowTS int64) float64 {
	if profile == nil {
		return 1.0
	}
	daysInactive := float64(nowTS-profile.LastSeenAt) / SecondsPerDay
	if daysInactive <= 0 {
		return 1.0
	}
	if daysInactive >= DecayDays {
		return 1.0 - DecayMax
	}
	return 1.0 - (daysInactive/DecayDays)*DecayMax
}
