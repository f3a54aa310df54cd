package advisor

import "github.com/narongchai190/soiler/internal/knowledge"

// RiskLevel grades a pest or disease threat.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// FieldConditions are the environment inputs for threat assessment. Zero
// values fall back to rainy season at 75% relative humidity, the typical
// growing conditions in the covered provinces.
type FieldConditions struct {
	Season   string
	Humidity float64
}

// ThreatRisk is one assessed pest or disease threat.
type ThreatRisk struct {
	Name       string    `json:"name"`
	ThaiName   string    `json:"thai_name,omitempty"`
	Kind       string    `json:"kind"`
	Risk       RiskLevel `json:"risk"`
	Prevention string    `json:"prevention"`
}

// PestRiskResult is the combined pest and disease outlook for a crop.
type PestRiskResult struct {
	Overall RiskLevel    `json:"overall"`
	Score   float64      `json:"score"`
	Threats []ThreatRisk `json:"threats"`
}

const (
	defaultSeason   = "rainy"
	defaultHumidity = 75.0
	humidThreshold  = 80.0
)

// AssessThreats grades each entry of a crop's threat table against the
// field conditions. Pests outside their season drop one grade; diseases
// favoured by high humidity or a wet season rise to high. Three or more
// high grades make the overall outlook high, one or two make it medium.
func AssessThreats(threats []knowledge.PestThreat, cond FieldConditions) PestRiskResult {
	if cond.Season == "" {
		cond.Season = defaultSeason
	}
	if cond.Humidity <= 0 {
		cond.Humidity = defaultHumidity
	}

	result := PestRiskResult{Threats: make([]ThreatRisk, 0, len(threats))}
	high := 0
	for _, t := range threats {
		risk := RiskLevel(t.BaseRisk)
		switch t.Kind {
		case knowledge.ThreatPest:
			if t.Season != "all" && t.Season != cond.Season {
				if risk == RiskHigh {
					risk = RiskMedium
				} else {
					risk = RiskLow
				}
			}
		case knowledge.ThreatDisease:
			switch {
			case t.Condition == "humid" && cond.Humidity > humidThreshold:
				risk = RiskHigh
			case t.Condition == "wet" && cond.Season == "rainy" && risk == RiskMedium:
				risk = RiskHigh
			}
		}
		if risk == RiskHigh {
			high++
		}
		result.Threats = append(result.Threats, ThreatRisk{
			Name:       t.Name,
			ThaiName:   t.ThaiName,
			Kind:       t.Kind,
			Risk:       risk,
			Prevention: t.Prevention,
		})
	}

	switch {
	case high >= 3:
		result.Overall, result.Score = RiskHigh, 75
	case high >= 1:
		result.Overall, result.Score = RiskMedium, 50
	default:
		result.Overall, result.Score = RiskLow, 25
	}
	return result
}
