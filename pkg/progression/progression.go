package progression

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProfile marks profiles the engine refuses to advance.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrInvalidDiscrepancy marks discrepancy values outside [0,100].
	ErrInvalidDiscrepancy = errors.New("discrepancy out of range")
)

// MaxLevel is the level cap. XP keeps accumulating past it but the level
// never exceeds this value.
const MaxLevel = 10

// thresholds holds the minimum cumulative XP for each level, indexed by
// level-1. The table is fixed and exposed read-only through Thresholds.
var thresholds = [MaxLevel]int{0, 100, 250, 500, 850, 1300, 1850, 2500, 3250, 4100}

// XP awards per graded analysis: a flat base plus an accuracy bonus.
const (
	BaseXP        = 10
	bonusLow      = 5
	bonusModerate = 2
)

// Profile is the progression snapshot the engine advances. Level is always
// the value derived from XP; the store recomputes it on read.
type Profile struct {
	Username      string  `json:"username"`
	XP            int     `json:"xp"`
	Level         int     `json:"level"`
	TotalAnalyses int     `json:"total_analyses"`
	AvgAccuracy   float64 `json:"avg_accuracy"`
}

// Progress describes the position inside the current level window.
// Needed is 0 at the level cap, where the window is open-ended.
type Progress struct {
	Current int `json:"current"`
	Needed  int `json:"needed"`
}

// Result is the outcome of advancing a profile by one analysis.
type Result struct {
	Profile  Profile  `json:"profile"`
	Awarded  int      `json:"awarded"`
	Bonus    int      `json:"bonus"`
	LevelUp  bool     `json:"level_up"`
	Progress Progress `json:"progress"`
}

// BonusFor returns the accuracy bonus for a graded analysis.
func BonusFor(discrepancy int) int {
	switch {
	case discrepancy <= 10:
		return bonusLow
	case discrepancy <= 25:
		return bonusModerate
	default:
		return 0
	}
}

// Bonuses returns the accuracy bonus per discrepancy band.
func Bonuses() map[string]int {
	return map[string]int{"low": bonusLow, "moderate": bonusModerate, "high": 0}
}

// DeriveLevel returns the highest level whose threshold the given XP meets,
// capped at MaxLevel.
func DeriveLevel(xp int) int {
	for lvl := MaxLevel; lvl >= 2; lvl-- {
		if xp >= thresholds[lvl-1] {
			return lvl
		}
	}
	return 1
}

// ProgressAt returns the window position for the given XP.
func ProgressAt(xp int) Progress {
	level := DeriveLevel(xp)
	base := thresholds[level-1]
	if level == MaxLevel {
		return Progress{Current: xp - base}
	}
	return Progress{Current: xp - base, Needed: thresholds[level] - base}
}

// Thresholds returns a copy of the level threshold table (level -> minimum XP).
func Thresholds() map[int]int {
	out := make(map[int]int, MaxLevel)
	for i, xp := range thresholds {
		out[i+1] = xp
	}
	return out
}

// Advance applies one analysis to a profile. A nil discrepancy means the
// analysis was ungraded: no XP is awarded but the analysis still counts.
// The input profile is not mutated.
func Advance(p Profile, discrepancy *int) (Result, error) {
	if p.XP < 0 {
		return Result{}, fmt.Errorf("%w: negative xp %d", ErrInvalidProfile, p.XP)
	}
	if p.Level < 1 || p.Level > MaxLevel {
		return Result{}, fmt.Errorf("%w: level %d outside [1,%d]", ErrInvalidProfile, p.Level, MaxLevel)
	}

	out := p
	var res Result
	if discrepancy != nil {
		d := *discrepancy
		if d < 0 || d > 100 {
			return Result{}, fmt.Errorf("%w: %d", ErrInvalidDiscrepancy, d)
		}
		res.Bonus = BonusFor(d)
		res.Awarded = BaseXP + res.Bonus
		out.XP += res.Awarded
		// Running mean weighted by the pre-increment analysis count.
		accuracy := float64(100 - d)
		out.AvgAccuracy = (p.AvgAccuracy*float64(p.TotalAnalyses) + accuracy) / float64(p.TotalAnalyses+1)
	}
	out.TotalAnalyses++
	out.Level = DeriveLevel(out.XP)

	res.Profile = out
	res.LevelUp = out.Level > p.Level
	res.Progress = ProgressAt(out.XP)
	return res, nil
}
