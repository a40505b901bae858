// Package scoring implements the grading rules for events, cycles and
// simulator sessions. Everything here is pure and has no storage dependencies.
package scoring

import (
	"math"

	"github.com/gridtrain/eval-api/pkg/config"
)

// Policy carries the tunable grading parameters.
type Policy struct {
	// Precision is the number of decimal places kept on computed scores.
	Precision int
	// PenaltyRate is the share of the raw score deducted on penalised re-attempts.
	PenaltyRate float64
	// DefaultMinPassing applies to cycles created without an explicit threshold.
	DefaultMinPassing float64
	// SessionPassingScore applies to scenarios without their own passing score.
	SessionPassingScore float64
}

// DefaultPolicy returns the standard grading policy.
func DefaultPolicy() Policy {
	return Policy{Precision: 2, PenaltyRate: 0.30, DefaultMinPassing: 70, SessionPassingScore: 70}
}

// PolicyFromConfig builds a policy from configuration, keeping defaults for unset values.
func PolicyFromConfig(cfg config.ScoringConfig) Policy {
	p := DefaultPolicy()
	if cfg.Precision >= 0 {
		p.Precision = cfg.Precision
	}
	if cfg.PenaltyRate > 0 && cfg.PenaltyRate <= 1 {
		p.PenaltyRate = cfg.PenaltyRate
	}
	if cfg.DefaultMinPassing > 0 {
		p.DefaultMinPassing = cfg.DefaultMinPassing
	}
	if cfg.SessionPassingScore > 0 {
		p.SessionPassingScore = cfg.SessionPassingScore
	}
	return p
}

// Round rounds v half away from zero to the policy precision.
func (p Policy) Round(v float64) float64 {
	return roundTo(v, p.Precision)
}

func roundTo(v float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

func floatPtr(v float64) *float64 {
	return &v
}
