package scoring

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules holds the point tables and tier thresholds. Business rules change by
// swapping a Rules value; the algorithm in Scorer stays fixed.
type Rules struct {
	JobTypePoints          map[string]int `yaml:"job_type_points"`
	UrgencyPoints          map[string]int `yaml:"urgency_points"`
	PointsPerPhoto         int            `yaml:"points_per_photo"`
	MaxPhotoPoints         int            `yaml:"max_photo_points"`
	InsuranceClaimBonus    int            `yaml:"insurance_claim_bonus"`
	LargeRoofBonus         int            `yaml:"large_roof_bonus"`
	LargeRoofThresholdSqFt float64        `yaml:"large_roof_threshold_sqft"`
	HotThreshold           int            `yaml:"hot_threshold"`
	WarmThreshold          int            `yaml:"warm_threshold"`
}

// DefaultRules returns the production point tables.
func DefaultRules() Rules {
	return Rules{
		JobTypePoints: map[string]int{
			"full_replacement": 25,
			"new_construction": 20,
			"storm_damage":     20,
			"repair":           15,
			"gutters":          8,
			"inspection":       5,
		},
		UrgencyPoints: map[string]int{
			"emergency":       30,
			"within_week":     20,
			"within_month":    12,
			"within_3_months": 6,
			"flexible":        2,
		},
		PointsPerPhoto:         2,
		MaxPhotoPoints:         10,
		InsuranceClaimBonus:    15,
		LargeRoofBonus:         5,
		LargeRoofThresholdSqFt: 2000,
		HotThreshold:           70,
		WarmThreshold:          40,
	}
}

// Validate rejects tables that would break monotonic scoring or invert the
// tier ladder.
func (r Rules) Validate() error {
	for key, pts := range r.JobTypePoints {
		if pts < 0 {
			return fmt.Errorf("job type %q: negative points %d", key, pts)
		}
	}
	for key, pts := range r.UrgencyPoints {
		if pts < 0 {
			return fmt.Errorf("urgency %q: negative points %d", key, pts)
		}
	}
	switch {
	case r.PointsPerPhoto < 0, r.MaxPhotoPoints < 0:
		return fmt.Errorf("photo points must not be negative")
	case r.InsuranceClaimBonus < 0:
		return fmt.Errorf("insurance claim bonus must not be negative")
	case r.LargeRoofBonus < 0:
		return fmt.Errorf("large roof bonus must not be negative")
	case r.WarmThreshold > r.HotThreshold:
		return fmt.Errorf("warm threshold %d above hot threshold %d", r.WarmThreshold, r.HotThreshold)
	}
	return nil
}

// clone deep-copies the maps and normalises their keys so a Scorer never
// shares mutable state with the caller.
func (r Rules) clone() Rules {
	out := r
	out.JobTypePoints = normaliseKeys(r.JobTypePoints)
	out.UrgencyPoints = normaliseKeys(r.UrgencyPoints)
	return out
}

func normaliseKeys(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[normaliseKey(k)] = v
	}
	return out
}

func normaliseKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseRules decodes a YAML rules document on top of DefaultRules. A table
// present in the document replaces the default table wholesale.
func ParseRules(data []byte) (Rules, error) {
	rules := DefaultRules()
	var doc Rules
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Rules{}, fmt.Errorf("parse scoring rules: %w", err)
	}

	if doc.JobTypePoints != nil {
		rules.JobTypePoints = doc.JobTypePoints
	}
	if doc.UrgencyPoints != nil {
		rules.UrgencyPoints = doc.UrgencyPoints
	}

	// Scalars use a second pass over a node map so an explicit 0 overrides
	// the default while an absent key does not.
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Rules{}, fmt.Errorf("parse scoring rules: %w", err)
	}
	if _, ok := raw["points_per_photo"]; ok {
		rules.PointsPerPhoto = doc.PointsPerPhoto
	}
	if _, ok := raw["max_photo_points"]; ok {
		rules.MaxPhotoPoints = doc.MaxPhotoPoints
	}
	if _, ok := raw["insurance_claim_bonus"]; ok {
		rules.InsuranceClaimBonus = doc.InsuranceClaimBonus
	}
	if _, ok := raw["large_roof_bonus"]; ok {
		rules.LargeRoofBonus = doc.LargeRoofBonus
	}
	if _, ok := raw["large_roof_threshold_sqft"]; ok {
		rules.LargeRoofThresholdSqFt = doc.LargeRoofThresholdSqFt
	}
	if _, ok := raw["hot_threshold"]; ok {
		rules.HotThreshold = doc.HotThreshold
	}
	if _, ok := raw["warm_threshold"]; ok {
		rules.WarmThreshold = doc.WarmThreshold
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// LoadRules reads a YAML rules file. An empty path yields DefaultRules.
func LoadRules(path string) (Rules, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read scoring rules: %w", err)
	}
	return ParseRules(data)
}
