// Package advisor implements the deterministic rule calculators behind the
// advisory pipeline: pH and nutrient classification, nutrient gap
// computation, fertilizer planning, and lime requirement. All thresholds
// follow Thai Department of Agriculture and FAO guideline values.
package advisor

// PHStatus classifies a measured soil pH.
type PHStatus string

const (
	PHVeryAcidic       PHStatus = "very_acidic"
	PHAcidic           PHStatus = "acidic"
	PHSlightlyAcidic   PHStatus = "slightly_acidic"
	PHOptimal          PHStatus = "optimal"
	PHSlightlyAlkaline PHStatus = "slightly_alkaline"
	PHAlkaline         PHStatus = "alkaline"
	PHVeryAlkaline     PHStatus = "very_alkaline"
)

// phBand is one row of the pH classification table.
type phBand struct {
	status PHStatus
	low    float64
	high   float64
	score  float64
}

var phBands = []phBand{
	{PHVeryAcidic, 0.0, 4.5, 20},
	{PHAcidic, 4.5, 5.5, 50},
	{PHSlightlyAcidic, 5.5, 6.0, 80},
	{PHOptimal, 6.0, 7.0, 100},
	{PHSlightlyAlkaline, 7.0, 7.5, 80},
	{PHAlkaline, 7.5, 8.5, 50},
	{PHVeryAlkaline, 8.5, 14.0, 20},
}

// PHResult is the outcome of classifying a pH reading.
type PHResult struct {
	Value  float64  `json:"value"`
	Status PHStatus `json:"status"`
	Score  float64  `json:"score"`
}

// ClassifyPH places a pH reading in its band. Bands are half-open [low,
// high); readings outside 0–14 clamp to the outermost bands.
func ClassifyPH(ph float64) PHResult {
	for _, band := range phBands {
		if ph >= band.low && ph < band.high {
			return PHResult{Value: ph, Status: band.status, Score: band.score}
		}
	}
	if ph < 0 {
		return PHResult{Value: ph, Status: PHVeryAcidic, Score: 20}
	}
	return PHResult{Value: ph, Status: PHVeryAlkaline, Score: 20}
}

// NutrientLevel classifies a soil nutrient concentration.
type NutrientLevel string

const (
	LevelVeryLow  NutrientLevel = "very_low"
	LevelLow      NutrientLevel = "low"
	LevelMedium   NutrientLevel = "medium"
	LevelHigh     NutrientLevel = "high"
	LevelVeryHigh NutrientLevel = "very_high"
)

// Nutrient names accepted by ClassifyNutrient.
const (
	Nitrogen   = "nitrogen"
	Phosphorus = "phosphorus"
	Potassium  = "potassium"
)

// nutrientThresholds maps nutrient name to the upper bound (mg/kg) of each
// level except very_high, which is open-ended.
var nutrientThresholds = map[string][4]float64{
	Nitrogen:   {10, 20, 40, 60},
	Phosphorus: {5, 15, 30, 50},
	Potassium:  {30, 60, 120, 200},
}

// NutrientResult is the outcome of classifying one nutrient reading.
type NutrientResult struct {
	Nutrient string        `json:"nutrient"`
	Value    float64       `json:"value"`
	Level    NutrientLevel `json:"level"`
	Deficit  bool          `json:"deficit"`
}

// ClassifyNutrient places a nutrient concentration (mg/kg) in its level
// band. Unknown nutrient names use a generic mid-range table.
func ClassifyNutrient(nutrient string, mgkg float64) NutrientResult {
	bounds, ok := nutrientThresholds[nutrient]
	if !ok {
		bounds = [4]float64{10, 25, 50, 75}
	}
	level := LevelVeryHigh
	switch {
	case mgkg < bounds[0]:
		level = LevelVeryLow
	case mgkg < bounds[1]:
		level = LevelLow
	case mgkg < bounds[2]:
		level = LevelMedium
	case mgkg < bounds[3]:
		level = LevelHigh
	}
	return NutrientResult{
		Nutrient: nutrient,
		Value:    mgkg,
		Level:    level,
		Deficit:  level == LevelVeryLow || level == LevelLow,
	}
}

// limeTextureFactors scale the lime rate by soil buffer capacity; heavier
// textures need more lime per pH unit.
var limeTextureFactors = map[string]float64{
	"sand":            0.8,
	"loamy sand":      1.0,
	"sandy loam":      1.2,
	"loam":            1.5,
	"silt loam":       1.6,
	"clay loam":       2.0,
	"silty clay loam": 2.2,
	"silty clay":      2.5,
	"clay":            3.0,
}

// LimeResult is a lime application recommendation.
type LimeResult struct {
	Needed        bool    `json:"needed"`
	CurrentPH     float64 `json:"current_ph"`
	TargetPH      float64 `json:"target_ph"`
	KgPerRai      float64 `json:"kg_per_rai"`
	TotalKg       float64 `json:"total_kg"`
	Texture       string  `json:"texture,omitempty"`
	TextureFactor float64 `json:"texture_factor,omitempty"`
}

// limeBaseRate is kg of agricultural lime per rai per 0.5 pH unit for a
// medium-texture soil.
const limeBaseRate = 200.0

// LimeRequirement computes the agricultural lime needed to raise soil pH
// from current to target over fieldRai rai. A pH already at or above target
// needs no lime. Unknown textures use the loam factor.
func LimeRequirement(currentPH, targetPH float64, texture string, fieldRai float64) LimeResult {
	if currentPH >= targetPH {
		return LimeResult{Needed: false, CurrentPH: currentPH, TargetPH: targetPH}
	}
	factor, ok := limeTextureFactors[texture]
	if !ok {
		factor = 1.5
	}
	perRai := (targetPH - currentPH) / 0.5 * limeBaseRate * factor
	return LimeResult{
		Needed:        true,
		CurrentPH:     currentPH,
		TargetPH:      targetPH,
		KgPerRai:      round2(perRai),
		TotalKg:       round2(perRai * fieldRai),
		Texture:       texture,
		TextureFactor: factor,
	}
}
