// Package severity classifies a predicted yield into a healthy/warning/alert tier.
//
// Three policies exist and the deployment picks one by configuration. On every
// boundary the healthy side is inclusive: a yield equal to a threshold is never
// classified below it.
package severity

import (
	"fmt"
	"strings"
)

type Tier string

const (
	TierHealthy Tier = "healthy"
	TierWarning Tier = "warning"
	TierAlert   Tier = "alert"
)

// Policy names accepted in configuration.
const (
	PolicyTwoTier   = "two-tier"
	PolicyThreeTier = "three-tier"
	PolicyDynamic   = "dynamic"
)

// Default thresholds, in metric tons per hectare.
const (
	DefaultAlertThreshold    = 25.0
	DefaultCriticalThreshold = 20.0
	DefaultWarningThreshold  = 30.0
	DefaultReferenceYield    = 136.711982
	DefaultAlertFraction     = 0.15
)

const (
	msgHealthy = "Yield is within healthy range."
	msgAlert   = "ALERT: Predicted yield is critically low! Check soil nutrients."
)

// Assessment is the outcome of classifying one prediction.
type Assessment struct {
	Tier    Tier
	Alert   bool
	Message string
}

type Policy interface {
	Name() string
	Classify(yield float64, crop string) Assessment
}

// TwoTier alerts below a single threshold.
type TwoTier struct {
	Threshold float64
}

func (p TwoTier) Name() string { return PolicyTwoTier }

func (p TwoTier) Classify(yield float64, _ string) Assessment {
	return binary(yield, p.Threshold)
}

// ThreeTier separates a warning band from the critical alert band and names the crop.
type ThreeTier struct {
	Critical float64
	Warning  float64
}

func (p ThreeTier) Name() string { return PolicyThreeTier }

func (p ThreeTier) Classify(yield float64, crop string) Assessment {
	if strings.TrimSpace(crop) == "" {
		crop = "Crop"
	}
	switch {
	case yield < p.Critical:
		return Assessment{
			Tier:    TierAlert,
			Alert:   true,
			Message: fmt.Sprintf("CRITICAL: Predicted %s yield is critically low! Check soil nutrients and irrigation.", crop),
		}
	case yield < p.Warning:
		return Assessment{
			Tier:    TierWarning,
			Message: fmt.Sprintf("WARNING: %s yield is below optimal. Consider adjusting fertilizer.", crop),
		}
	default:
		return Assessment{Tier: TierHealthy, Message: fmt.Sprintf("%s yield is within healthy range.", crop)}
	}
}

// Dynamic alerts below a fraction of a reference yield.
type Dynamic struct {
	Fraction  float64
	Reference float64
}

func (p Dynamic) Name() string { return PolicyDynamic }

func (p Dynamic) Threshold() float64 { return p.Fraction * p.Reference }

func (p Dynamic) Classify(yield float64, _ string) Assessment {
	return binary(yield, p.Threshold())
}

func binary(yield, threshold float64) Assessment {
	if yield < threshold {
		return Assessment{Tier: TierAlert, Alert: true, Message: msgAlert}
	}
	return Assessment{Tier: TierHealthy, Message: msgHealthy}
}

// Default is the policy used when nothing is configured.
func Default() Policy { return TwoTier{Threshold: DefaultAlertThreshold} }
