// Package scoring ranks leads by urgency and value with an additive point
// model over replaceable rule tables.
package scoring

// Factor names, in evaluation order.
const (
	FactorJobType        = "job_type"
	FactorUrgency        = "urgency"
	FactorPhotos         = "photos"
	FactorInsuranceClaim = "insurance_claim"
	FactorLargeRoof      = "large_roof"
)

const (
	minScore = 0
	maxScore = 100
)

// Tier is the coarse classification derived from a score.
type Tier string

const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCool Tier = "cool"
)

// Input carries the signals known about a lead. Zero values mean "unknown"
// and contribute nothing.
type Input struct {
	JobType           string
	Timeline          string
	PhotoCount        int
	HasInsuranceClaim bool
	RoofSizeSqFt      float64
}

// Factor is one contribution to a score, uncapped.
type Factor struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Result is the outcome of scoring a single lead.
type Result struct {
	Score   int      `json:"score"`
	Tier    Tier     `json:"tier"`
	Factors []Factor `json:"factors"`
}

// Scorer applies one immutable Rules value. It is safe for concurrent use.
type Scorer struct {
	rules Rules
}

// New validates rules and returns a Scorer that owns a private copy of them.
func New(rules Rules) (*Scorer, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{rules: rules.clone()}, nil
}

// Default returns a Scorer over DefaultRules.
func Default() *Scorer {
	s, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return s
}

// Rules returns a copy of the scorer's rules.
func (s *Scorer) Rules() Rules {
	return s.rules.clone()
}

// Score never fails: unknown or missing signals contribute zero. Only the
// total is clamped, so factor points always show the true contribution.
func (s *Scorer) Score(in Input) Result {
	factors := make([]Factor, 0, 5)
	total := 0

	add := func(name string, pts int) {
		factors = append(factors, Factor{Name: name, Points: pts})
		total += pts
	}

	if pts, ok := s.rules.JobTypePoints[normaliseKey(in.JobType)]; ok && in.JobType != "" {
		add(FactorJobType, pts)
	}
	if pts, ok := s.rules.UrgencyPoints[normaliseKey(in.Timeline)]; ok && in.Timeline != "" {
		add(FactorUrgency, pts)
	}
	if in.PhotoCount > 0 {
		add(FactorPhotos, s.photoPoints(in.PhotoCount))
	}
	if in.HasInsuranceClaim {
		add(FactorInsuranceClaim, s.rules.InsuranceClaimBonus)
	}
	if in.RoofSizeSqFt > s.rules.LargeRoofThresholdSqFt {
		add(FactorLargeRoof, s.rules.LargeRoofBonus)
	}

	score := clamp(total)
	return Result{
		Score:   score,
		Tier:    TierFor(score, s.rules),
		Factors: factors,
	}
}

// TierFor maps an already-clamped score onto the tier ladder. Each tier
// includes its lower edge.
func TierFor(score int, rules Rules) Tier {
	switch {
	case score >= rules.HotThreshold:
		return TierHot
	case score >= rules.WarmThreshold:
		return TierWarm
	default:
		return TierCool
	}
}

func clamp(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}

// photoPoints caps the photo contribution before multiplying so large counts
// cannot overflow.
func (s *Scorer) photoPoints(count int) int {
	per, limit := s.rules.PointsPerPhoto, s.rules.MaxPhotoPoints
	if per <= 0 {
		return 0
	}
	if count > limit/per {
		return limit
	}
	return min(count*per, limit)
}
