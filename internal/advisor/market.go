package advisor

import "github.com/narongchai190/soiler/internal/knowledge"

// MarketResult is the profitability projection for the planned field,
// valued at the farm-gate price.
type MarketResult struct {
	FarmGateTHBPerKg  float64 `json:"farm_gate_thb_per_kg"`
	WholesaleTHBPerKg float64 `json:"wholesale_thb_per_kg"`
	RetailTHBPerKg    float64 `json:"retail_thb_per_kg"`
	Trend             string  `json:"trend,omitempty"`
	YieldKgPerRai     float64 `json:"yield_kg_per_rai"`
	TotalYieldKg      float64 `json:"total_yield_kg"`
	RevenueTHB        float64 `json:"revenue_thb"`
	CostTHB           float64 `json:"cost_thb"`
	NetProfitTHB      float64 `json:"net_profit_thb"`
	ProfitPerRaiTHB   float64 `json:"profit_per_rai_thb"`
	ROIPercent        float64 `json:"roi_percent"`
	BreakEvenKgPerRai float64 `json:"break_even_kg_per_rai"`
	Profitable        bool    `json:"profitable"`
}

// YieldTarget picks the yield tier a field can realistically reach given
// its soil suitability score.
func YieldTarget(y knowledge.YieldPotential, soilScore float64) float64 {
	switch {
	case soilScore >= 80:
		return y.HighKgPerRai
	case soilScore >= 60:
		return y.AverageKgPerRai
	default:
		return y.LowKgPerRai
	}
}

// EstimateMarket projects revenue, cost and profit for the field. A
// positive fertilizerTHB replaces the template's reference fertilizer line
// with the cost of the actual plan.
func EstimateMarket(price knowledge.MarketPrice, costs knowledge.CostTemplate, yieldKgPerRai, fieldRai, fertilizerTHB float64) MarketResult {
	if fieldRai <= 0 {
		fieldRai = 1
	}
	costPerRai := costs.TotalPerRai()
	if fertilizerTHB > 0 {
		costPerRai = costPerRai - costs.FertilizerTHB + fertilizerTHB/fieldRai
	}

	totalYield := yieldKgPerRai * fieldRai
	revenue := totalYield * price.FarmGateTHB
	totalCost := costPerRai * fieldRai
	net := revenue - totalCost

	result := MarketResult{
		FarmGateTHBPerKg:  price.FarmGateTHB,
		WholesaleTHBPerKg: price.WholesaleTHB,
		RetailTHBPerKg:    price.RetailTHB,
		Trend:             price.Trend,
		YieldKgPerRai:     yieldKgPerRai,
		TotalYieldKg:      round2(totalYield),
		RevenueTHB:        round2(revenue),
		CostTHB:           round2(totalCost),
		NetProfitTHB:      round2(net),
		ProfitPerRaiTHB:   round2(net / fieldRai),
		Profitable:        net > 0,
	}
	if totalCost > 0 {
		result.ROIPercent = round2(net / totalCost * 100)
	}
	if price.FarmGateTHB > 0 {
		result.BreakEvenKgPerRai = round2(totalCost / price.FarmGateTHB / fieldRai)
	}
	return result
}
