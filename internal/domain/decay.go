package domain

import (
	"math"
	"time"
)

// Neutral fallbacks for missing statistical inputs. Scoring never
// errors on absent emotional tags or timestamps.
const (
	DefaultValence  = 0.0
	DefaultArousal  = 0.3
	DefaultStrength = 1.0
)

const (
	// MaxMemoryStrength bounds strengthening from any combination of
	// accesses and reviews.
	MaxMemoryStrength = 10.0
	// AccessBoostFactor is the multiplicative nudge applied on every
	// access; pure use is what keeps hot items resisting decay.
	AccessBoostFactor = 1.05
	// MinMemoryStrength is the floor after failed reviews.
	MinMemoryStrength = 0.5
	// BaseDecayRate is the linear fact decay in strength-per-day
	// before arousal modulation.
	BaseDecayRate = 0.1
)

// Decay tier windows, measured from last access (facts).
const (
	HotWindow  = 7 * 24 * time.Hour
	WarmWindow = 30 * 24 * time.Hour
)

// DecayTier buckets facts purely by elapsed time since last access.
type DecayTier string

const (
	TierHot  DecayTier = "hot"
	TierWarm DecayTier = "warm"
	TierCold DecayTier = "cold"
)

// TierFor maps time-since-access onto the hot/warm/cold partition.
// Every duration lands in exactly one tier.
func TierFor(sinceAccess time.Duration) DecayTier {
	switch {
	case sinceAccess <= HotWindow:
		return TierHot
	case sinceAccess <= WarmWindow:
		return TierWarm
	default:
		return TierCold
	}
}

// TierTerm is the step function the retrieval score weighs at 0.4.
func TierTerm(t DecayTier) float64 {
	switch t {
	case TierHot:
		return 1.0
	case TierWarm:
		return 0.5
	default:
		return 0.1
	}
}

// Retention is the Ebbinghaus forgetting curve R = e^(-t/S), with S
// expressed as memory_strength in days.
func Retention(strength float64, sinceReference time.Duration) float64 {
	if strength <= 0 {
		strength = DefaultStrength
	}
	s := strength * 24 // hours
	return math.Exp(-sinceReference.Hours() / s)
}

// InitialEventStrength seeds an event's memory strength from its
// importance and emotional salience at creation time.
func InitialEventStrength(importance, valence float64) float64 {
	return 1.0 + importance*2 + math.Abs(valence)*1.5
}

// BoostStrength applies the bounded access/review nudge.
func BoostStrength(strength float64) float64 {
	if strength <= 0 {
		strength = DefaultStrength
	}
	return math.Min(MaxMemoryStrength, strength*AccessBoostFactor)
}

// ReviewStrength computes post-review memory strength. Successful
// recalls (quality >= 3) strengthen more the closer the item was to
// being forgotten; failed recalls weaken toward the floor.
func ReviewStrength(strength, retentionBefore float64, quality int) float64 {
	if strength <= 0 {
		strength = DefaultStrength
	}
	if quality < 3 {
		return math.Max(MinMemoryStrength, strength*0.7)
	}
	retentionBonus := 1.0 + (1.0-retentionBefore)*0.5
	multiplier := 1.1 + float64(quality-3)*0.1 // 1.1 .. 1.3
	return math.Min(MaxMemoryStrength, strength*multiplier*retentionBonus)
}

// ReviewIntervals is the fixed SM-2 style schedule indexed by
// repetition count: 20min, 1h, 1d, 3d, 1wk, 2wk, 1mo, 3mo, 6mo, 1yr.
var ReviewIntervals = []time.Duration{
	20 * time.Minute,
	time.Hour,
	24 * time.Hour,
	72 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
	30 * 24 * time.Hour,
	90 * 24 * time.Hour,
	180 * 24 * time.Hour,
	365 * 24 * time.Hour,
}

// NextReviewInterval returns the scheduling interval for a repetition
// count, holding at the last table entry past generation 9.
func NextReviewInterval(repetitionCount int) time.Duration {
	if repetitionCount < 0 {
		repetitionCount = 0
	}
	if repetitionCount >= len(ReviewIntervals) {
		repetitionCount = len(ReviewIntervals) - 1
	}
	return ReviewIntervals[repetitionCount]
}

// FactCurrentStrength is the linear decay model for facts.
func FactCurrentStrength(strength, decayRate float64, sinceAccess time.Duration) float64 {
	days := sinceAccess.Hours() / 24
	return strength - decayRate*days
}

// DecayRateFor modulates the base fact decay rate by arousal: maximum
// arousal halves the rate.
func DecayRateFor(arousal float64) float64 {
	return BaseDecayRate * (1 - arousal*0.5)
}

// Salience is the combined emotional magnitude |valence| + arousal.
func Salience(valence, arousal float64) float64 {
	return math.Abs(valence) + arousal
}

// HighSalience is the trigger condition for the backup outbox.
func HighSalience(valence, arousal float64) bool {
	return arousal >= 0.7 || Salience(valence, arousal) >= 1.2
}

// EmotionalHighlight is the threshold for the highlight view.
func EmotionalHighlight(valence, arousal float64) bool {
	return arousal > 0.5 || math.Abs(valence) > 0.5
}

// RetrievalWeights are policy constants for the fact retrieval score.
// They are configurable but the defaults define expected behavior.
type RetrievalWeights struct {
	Frequency float64
	Salience  float64
	Tier      float64
}

func DefaultRetrievalWeights() RetrievalWeights {
	return RetrievalWeights{Frequency: 0.3, Salience: 0.3, Tier: 0.4}
}

// FactRetrievalScore ranks what surfaces first. Frequency saturates at
// ten accesses; salience at |valence|+arousal = 2.
func FactRetrievalScore(accessCount int, valence, arousal float64, tier DecayTier, w RetrievalWeights) float64 {
	freq := math.Min(1.0, float64(accessCount)/10.0)
	sal := math.Min(1.0, Salience(valence, arousal)/2.0)
	return w.Frequency*freq + w.Salience*sal + w.Tier*TierTerm(tier)
}

// RecencyBonus decays linearly from 1 to 0 over 30 days.
func RecencyBonus(age time.Duration) float64 {
	days := age.Hours() / 24
	return math.Max(0, 1-days/30)
}

// EventPriority is the event retrieval ranking score.
func EventPriority(importance, valence, arousal float64, age time.Duration) float64 {
	return importance + 0.3*Salience(valence, arousal) + 0.3*RecencyBonus(age)
}

// EmotionOrDefault resolves optional fact emotional tags.
func EmotionOrDefault(valence, arousal *float64) (float64, float64) {
	v, a := DefaultValence, DefaultArousal
	if valence != nil {
		v = *valence
	}
	if arousal != nil {
		a = *arousal
	}
	return v, a
}
