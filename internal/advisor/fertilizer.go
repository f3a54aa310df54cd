package advisor

import (
	"math"

	"github.com/narongchai190/soiler/internal/knowledge"
)

// NPK holds a soil test's nutrient concentrations in mg/kg.
type NPK struct {
	Nitrogen   float64 `json:"nitrogen"`
	Phosphorus float64 `json:"phosphorus"`
	Potassium  float64 `json:"potassium"`
}

// NutrientGap is the fertilizer nutrient shortfall for a field, in kg.
type NutrientGap struct {
	NitrogenKg float64 `json:"nitrogen_gap_kg"`
	P2O5Kg     float64 `json:"p2o5_gap_kg"`
	K2OKg      float64 `json:"k2o_gap_kg"`
	FieldRai   float64 `json:"field_size_rai"`
	NFactor    float64 `json:"soil_n_factor"`
	PFactor    float64 `json:"soil_p_factor"`
	KFactor    float64 `json:"soil_k_factor"`
}

// Soil contribution divisors: the fraction of the crop's optimal requirement
// still needed shrinks linearly as soil levels approach these ceilings.
const (
	nCeiling = 80.0
	pCeiling = 50.0
	kCeiling = 200.0
)

// Gap computes the nutrient shortfall between measured soil levels and a
// crop's optimal requirement, scaled to the field size. Higher soil levels
// reduce the fertilizer need down to zero at the ceiling.
func Gap(npk NPK, crop knowledge.CropRequirement, fieldRai float64) NutrientGap {
	nf := clamp01(1 - npk.Nitrogen/nCeiling)
	pf := clamp01(1 - npk.Phosphorus/pCeiling)
	kf := clamp01(1 - npk.Potassium/kCeiling)
	return NutrientGap{
		NitrogenKg: round2(crop.Nitrogen.Optimal * nf * fieldRai),
		P2O5Kg:     round2(crop.Phosphorus.Optimal * pf * fieldRai),
		K2OKg:      round2(crop.Potassium.Optimal * kf * fieldRai),
		FieldRai:   fieldRai,
		NFactor:    round2(nf),
		PFactor:    round2(pf),
		KFactor:    round2(kf),
	}
}

// Application is one fertilizer application in the plan.
type Application struct {
	Fertilizer knowledge.Fertilizer `json:"fertilizer"`
	AmountKg   float64              `json:"amount_kg"`
	PerRaiKg   float64              `json:"amount_per_rai_kg"`
	ProvidedN  float64              `json:"provided_n_kg"`
	ProvidedP  float64              `json:"provided_p2o5_kg"`
	ProvidedK  float64              `json:"provided_k2o_kg"`
	Stage      string               `json:"application_stage"`
	Timing     string               `json:"timing"`
	CostTHB    float64              `json:"cost_thb"`
}

// Plan is the full fertilizer recommendation with cost totals.
type Plan struct {
	Applications []Application `json:"applications"`
	TotalCostTHB float64       `json:"total_cost_thb"`
}

// basalCapPerRai caps the compound basal application at a reasonable rate.
const basalCapPerRai = 50.0

// BuildPlan converts a nutrient gap into concrete fertilizer applications:
// a compound 16-20-0 basal dressing sized from the P requirement first, then
// urea and potash top-ups for whatever N and K remain.
func BuildPlan(gap NutrientGap, catalogue *knowledge.Base) Plan {
	nNeeded := gap.NitrogenKg
	pNeeded := gap.P2O5Kg
	kNeeded := gap.K2OKg
	fieldRai := gap.FieldRai
	if fieldRai <= 0 {
		fieldRai = 1
	}

	plan := Plan{Applications: []Application{}}

	if compound, ok := catalogue.FertilizerByFormula("16-20-0"); ok && pNeeded > 0 && compound.NPK.P > 0 {
		amount := pNeeded / (compound.NPK.P / 100)
		amount = math.Min(amount, basalCapPerRai*fieldRai)
		providedN := amount * compound.NPK.N / 100
		providedP := amount * compound.NPK.P / 100
		plan.Applications = append(plan.Applications, Application{
			Fertilizer: compound,
			AmountKg:   round2(amount),
			PerRaiKg:   round2(amount / fieldRai),
			ProvidedN:  round2(providedN),
			ProvidedP:  round2(providedP),
			Stage:      "basal",
			Timing:     "Before transplanting or at planting",
			CostTHB:    round2(amount * compound.PriceTHBPerKg),
		})
		nNeeded -= providedN
		pNeeded -= providedP
	}

	if urea, ok := catalogue.FertilizerByFormula("46-0-0"); ok && nNeeded > 0 && urea.NPK.N > 0 {
		amount := nNeeded / (urea.NPK.N / 100)
		plan.Applications = append(plan.Applications, Application{
			Fertilizer: urea,
			AmountKg:   round2(amount),
			PerRaiKg:   round2(amount / fieldRai),
			ProvidedN:  round2(nNeeded),
			Stage:      "top-dress",
			Timing:     "Split: 50% at tillering, 50% at panicle initiation",
			CostTHB:    round2(amount * urea.PriceTHBPerKg),
		})
	}

	if potash, ok := catalogue.FertilizerByFormula("0-0-60"); ok && kNeeded > 0 && potash.NPK.K > 0 {
		amount := kNeeded / (potash.NPK.K / 100)
		plan.Applications = append(plan.Applications, Application{
			Fertilizer: potash,
			AmountKg:   round2(amount),
			PerRaiKg:   round2(amount / fieldRai),
			ProvidedK:  round2(kNeeded),
			Stage:      "split",
			Timing:     "50% basal, 50% at panicle initiation",
			CostTHB:    round2(amount * potash.PriceTHBPerKg),
		})
	}

	for _, app := range plan.Applications {
		plan.TotalCostTHB += app.CostTHB
	}
	plan.TotalCostTHB = round2(plan.TotalCostTHB)
	return plan
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
