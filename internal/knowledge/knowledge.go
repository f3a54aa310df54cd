// Package knowledge holds the static agronomy reference tables: soil series,
// crop nutrient requirements, the fertilizer catalogue, pest and disease
// threats, and market prices with production costs. Tables are loaded from a
// YAML master data file with compiled-in fallbacks, and are read-only after
// load.
package knowledge

import (
	"fmt"
	"log/slog"
	"os"

	apperrors "github.com/narongchai190/soiler/pkg/errors"
	"gopkg.in/yaml.v3"
)

// NutrientRange is a crop's requirement for one nutrient in kg per rai.
type NutrientRange struct {
	Min     float64 `yaml:"min" json:"min"`
	Optimal float64 `yaml:"optimal" json:"optimal"`
	Max     float64 `yaml:"max" json:"max"`
}

// YieldPotential is a crop's yield range in kg per rai by soil condition.
type YieldPotential struct {
	LowKgPerRai     float64 `yaml:"low" json:"low"`
	AverageKgPerRai float64 `yaml:"average" json:"average"`
	HighKgPerRai    float64 `yaml:"high" json:"high"`
}

// CropRequirement describes what one crop needs from the soil.
type CropRequirement struct {
	Nitrogen   NutrientRange  `yaml:"nitrogen" json:"nitrogen"`
	Phosphorus NutrientRange  `yaml:"phosphorus_p2o5" json:"phosphorus_p2o5"`
	Potassium  NutrientRange  `yaml:"potassium_k2o" json:"potassium_k2o"`
	PHMin      float64        `yaml:"ph_min" json:"ph_min"`
	PHMax      float64        `yaml:"ph_max" json:"ph_max"`
	Yield      YieldPotential `yaml:"yield_kg_per_rai" json:"yield_kg_per_rai"`
}

// NPKRatio is a fertilizer's nutrient content in percent by weight.
type NPKRatio struct {
	N float64 `yaml:"n" json:"n"`
	P float64 `yaml:"p" json:"p"`
	K float64 `yaml:"k" json:"k"`
}

// Fertilizer is one entry of the fertilizer catalogue.
type Fertilizer struct {
	Name          string   `yaml:"name" json:"name"`
	Formula       string   `yaml:"formula" json:"formula"`
	NPK           NPKRatio `yaml:"npk_ratio" json:"npk_ratio"`
	PriceTHBPerKg float64  `yaml:"price_thb_per_kg" json:"price_thb_per_kg"`
}

// SoilSeries describes a named soil series and its field characteristics.
type SoilSeries struct {
	Name          string   `yaml:"name" json:"name"`
	Texture       string   `yaml:"texture" json:"texture"`
	Drainage      string   `yaml:"drainage" json:"drainage"`
	PHMin         float64  `yaml:"ph_min" json:"ph_min"`
	PHMax         float64  `yaml:"ph_max" json:"ph_max"`
	SuitableCrops []string `yaml:"suitable_crops" json:"suitable_crops"`
}

// PestThreat kinds.
const (
	ThreatPest    = "pest"
	ThreatDisease = "disease"
)

// PestThreat is one entry of a crop's pest and disease table. Season gates
// pests (rainy, dry, storage, or all); Condition names what favours a
// disease (humid, wet, waterlogged, nutrient_deficiency).
type PestThreat struct {
	Name       string `yaml:"name" json:"name"`
	ThaiName   string `yaml:"thai_name" json:"thai_name"`
	Kind       string `yaml:"kind" json:"kind"`
	BaseRisk   string `yaml:"base_risk" json:"base_risk"`
	Season     string `yaml:"season,omitempty" json:"season,omitempty"`
	Condition  string `yaml:"condition,omitempty" json:"condition,omitempty"`
	Prevention string `yaml:"prevention" json:"prevention"`
}

// MarketPrice holds reference prices for one crop in THB per kg.
type MarketPrice struct {
	FarmGateTHB    float64 `yaml:"farm_gate_thb" json:"farm_gate_thb"`
	WholesaleTHB   float64 `yaml:"wholesale_thb" json:"wholesale_thb"`
	RetailTHB      float64 `yaml:"retail_thb" json:"retail_thb"`
	OrganicPremium float64 `yaml:"organic_premium" json:"organic_premium"`
	Trend          string  `yaml:"trend" json:"trend"`
}

// CostTemplate is the reference production cost per rai for one crop.
type CostTemplate struct {
	LandPrepTHB   float64 `yaml:"land_prep_thb" json:"land_prep_thb"`
	SeedsTHB      float64 `yaml:"seeds_thb" json:"seeds_thb"`
	FertilizerTHB float64 `yaml:"fertilizer_thb" json:"fertilizer_thb"`
	PesticideTHB  float64 `yaml:"pesticide_thb" json:"pesticide_thb"`
	WaterTHB      float64 `yaml:"water_thb" json:"water_thb"`
	LaborTHB      float64 `yaml:"labor_thb" json:"labor_thb"`
	HarvestTHB    float64 `yaml:"harvest_thb" json:"harvest_thb"`
	TransportTHB  float64 `yaml:"transport_thb" json:"transport_thb"`
}

// TotalPerRai sums the template lines.
func (c CostTemplate) TotalPerRai() float64 {
	return c.LandPrepTHB + c.SeedsTHB + c.FertilizerTHB + c.PesticideTHB +
		c.WaterTHB + c.LaborTHB + c.HarvestTHB + c.TransportTHB
}

// Base is the full reference data set.
type Base struct {
	SoilSeries  map[string]SoilSeries      `yaml:"soil_series"`
	Crops       map[string]CropRequirement `yaml:"crop_requirements"`
	Fertilizers []Fertilizer               `yaml:"fertilizers"`
	PestThreats map[string][]PestThreat    `yaml:"pest_threats"`
	Prices      map[string]MarketPrice     `yaml:"market_prices"`
	Costs       map[string]CostTemplate    `yaml:"production_costs"`
}

// Load reads the master data YAML file. A missing file is not fatal: the
// compiled-in defaults are returned with a warning so the service can still
// start in a fresh checkout.
func Load(path string) (*Base, error) {
	logger := slog.Default().With("component", "knowledge")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("master data file not found, using built-in defaults", "path", path)
			return Defaults(), nil
		}
		return nil, fmt.Errorf("reading master data %s: %w", path, err)
	}
	base := &Base{}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parsing master data %s: %w", path, err)
	}
	if base.SoilSeries == nil {
		base.SoilSeries = map[string]SoilSeries{}
	}
	if base.Crops == nil {
		base.Crops = map[string]CropRequirement{}
	}
	if base.PestThreats == nil {
		base.PestThreats = map[string][]PestThreat{}
	}
	if base.Prices == nil {
		base.Prices = map[string]MarketPrice{}
	}
	if base.Costs == nil {
		base.Costs = map[string]CostTemplate{}
	}
	logger.Info("master data loaded",
		"path", path,
		"soil_series", len(base.SoilSeries),
		"crops", len(base.Crops),
		"fertilizers", len(base.Fertilizers),
	)
	return base, nil
}

// Crop returns the requirement entry for a crop name.
func (b *Base) Crop(name string) (CropRequirement, error) {
	crop, ok := b.Crops[name]
	if !ok {
		return CropRequirement{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownCrop, name)
	}
	return crop, nil
}

// FertilizerByFormula returns the catalogue entry with the given N-P-K
// formula string, e.g. "16-20-0".
func (b *Base) FertilizerByFormula(formula string) (Fertilizer, bool) {
	for _, f := range b.Fertilizers {
		if f.Formula == formula {
			return f, true
		}
	}
	return Fertilizer{}, false
}

// Series returns the soil series entry with the given name.
func (b *Base) Series(name string) (SoilSeries, bool) {
	s, ok := b.SoilSeries[name]
	return s, ok
}

// Threats returns the pest and disease table for a crop.
func (b *Base) Threats(crop string) ([]PestThreat, bool) {
	t, ok := b.PestThreats[crop]
	return t, ok
}

// Price returns the market price entry for a crop.
func (b *Base) Price(crop string) (MarketPrice, bool) {
	p, ok := b.Prices[crop]
	return p, ok
}

// ProductionCosts returns the cost template for a crop.
func (b *Base) ProductionCosts(crop string) (CostTemplate, bool) {
	c, ok := b.Costs[crop]
	return c, ok
}

// Defaults returns the built-in reference tables used when no master data
// file is available. Values follow Thai Department of Agriculture and FAO
// guideline ranges.
func Defaults() *Base {
	riceThreats := []PestThreat{
		{Name: "Brown planthopper", ThaiName: "เพลี้ยกระโดดสีน้ำตาล", Kind: ThreatPest, BaseRisk: "high", Season: "rainy",
			Prevention: "use resistant varieties and avoid excess nitrogen"},
		{Name: "Rice stem borer", ThaiName: "หนอนกอข้าว", Kind: ThreatPest, BaseRisk: "medium", Season: "all",
			Prevention: "destroy stubble and synchronize sowing"},
		{Name: "Rice leaf folder", ThaiName: "หนอนห่อใบข้าว", Kind: ThreatPest, BaseRisk: "medium", Season: "rainy",
			Prevention: "avoid excess nitrogen and use light traps"},
		{Name: "Rice blast", ThaiName: "โรคไหม้", Kind: ThreatDisease, BaseRisk: "high", Condition: "humid",
			Prevention: "use resistant varieties and avoid excess nitrogen"},
		{Name: "Bacterial leaf blight", ThaiName: "โรคขอบใบแห้ง", Kind: ThreatDisease, BaseRisk: "medium", Condition: "wet",
			Prevention: "use resistant varieties and improve drainage"},
		{Name: "Brown spot", ThaiName: "โรคใบจุดสีน้ำตาล", Kind: ThreatDisease, BaseRisk: "low", Condition: "nutrient_deficiency",
			Prevention: "balance fertilization and raise potassium"},
	}
	cornThreats := []PestThreat{
		{Name: "Fall armyworm", ThaiName: "หนอนกระทู้ข้าวโพดลายจุด", Kind: ThreatPest, BaseRisk: "high", Season: "all",
			Prevention: "scout frequently and apply Bt biopesticide"},
		{Name: "Corn aphid", ThaiName: "เพลี้ยอ่อนข้าวโพด", Kind: ThreatPest, BaseRisk: "medium", Season: "dry",
			Prevention: "conserve natural enemies such as lady beetles"},
		{Name: "Corn weevil", ThaiName: "ด้วงงวงข้าวโพด", Kind: ThreatPest, BaseRisk: "medium", Season: "storage",
			Prevention: "dry kernels thoroughly and store sealed"},
		{Name: "Northern corn leaf blight", ThaiName: "โรคใบไหม้แผลใหญ่", Kind: ThreatDisease, BaseRisk: "high", Condition: "humid",
			Prevention: "use resistant hybrids and rotate crops"},
		{Name: "Downy mildew", ThaiName: "โรคราน้ำค้าง", Kind: ThreatDisease, BaseRisk: "medium", Condition: "wet",
			Prevention: "use certified seed with fungicide treatment"},
		{Name: "Stalk rot", ThaiName: "โรคลำต้นเน่า", Kind: ThreatDisease, BaseRisk: "medium", Condition: "waterlogged",
			Prevention: "improve drainage and avoid dense planting"},
	}
	riceCosts := CostTemplate{
		LandPrepTHB: 800, SeedsTHB: 400, FertilizerTHB: 1500, PesticideTHB: 300,
		WaterTHB: 500, LaborTHB: 2000, HarvestTHB: 800, TransportTHB: 300,
	}

	return &Base{
		PestThreats: map[string][]PestThreat{
			"Jasmine Rice":   riceThreats,
			"Riceberry Rice": riceThreats,
			"Corn":           cornThreats,
		},
		Prices: map[string]MarketPrice{
			"Jasmine Rice":   {FarmGateTHB: 12, WholesaleTHB: 16, RetailTHB: 25, OrganicPremium: 1.2, Trend: "stable"},
			"Riceberry Rice": {FarmGateTHB: 25, WholesaleTHB: 35, RetailTHB: 55, OrganicPremium: 1.3, Trend: "stable, trending up"},
			"Corn":           {FarmGateTHB: 8.5, WholesaleTHB: 10, RetailTHB: 15, OrganicPremium: 1.2, Trend: "volatile with world market"},
		},
		Costs: map[string]CostTemplate{
			"Jasmine Rice":   riceCosts,
			"Riceberry Rice": riceCosts,
			"Corn": {
				LandPrepTHB: 600, SeedsTHB: 350, FertilizerTHB: 1200, PesticideTHB: 400,
				WaterTHB: 200, LaborTHB: 1000, HarvestTHB: 500, TransportTHB: 250,
			},
		},
		SoilSeries: map[string]SoilSeries{
			"Phrae": {
				Name:          "Phrae",
				Texture:       "clay loam",
				Drainage:      "moderately well drained",
				PHMin:         5.0,
				PHMax:         6.5,
				SuitableCrops: []string{"Jasmine Rice", "Riceberry Rice", "Corn"},
			},
			"Mae Sai": {
				Name:          "Mae Sai",
				Texture:       "silt loam",
				Drainage:      "poorly drained",
				PHMin:         5.5,
				PHMax:         7.0,
				SuitableCrops: []string{"Jasmine Rice", "Riceberry Rice"},
			},
		},
		Crops: map[string]CropRequirement{
			"Jasmine Rice": {
				Nitrogen:   NutrientRange{Min: 6, Optimal: 9, Max: 12},
				Phosphorus: NutrientRange{Min: 3, Optimal: 6, Max: 9},
				Potassium:  NutrientRange{Min: 3, Optimal: 6, Max: 9},
				PHMin:      5.5,
				PHMax:      6.5,
				Yield:      YieldPotential{LowKgPerRai: 400, AverageKgPerRai: 600, HighKgPerRai: 800},
			},
			"Riceberry Rice": {
				Nitrogen:   NutrientRange{Min: 8, Optimal: 12, Max: 16},
				Phosphorus: NutrientRange{Min: 4, Optimal: 6, Max: 10},
				Potassium:  NutrientRange{Min: 4, Optimal: 8, Max: 12},
				PHMin:      5.5,
				PHMax:      6.5,
				Yield:      YieldPotential{LowKgPerRai: 400, AverageKgPerRai: 600, HighKgPerRai: 800},
			},
			"Corn": {
				Nitrogen:   NutrientRange{Min: 10, Optimal: 15, Max: 20},
				Phosphorus: NutrientRange{Min: 5, Optimal: 10, Max: 15},
				Potassium:  NutrientRange{Min: 5, Optimal: 10, Max: 15},
				PHMin:      5.8,
				PHMax:      7.0,
				Yield:      YieldPotential{LowKgPerRai: 700, AverageKgPerRai: 1000, HighKgPerRai: 1300},
			},
		},
		Fertilizers: []Fertilizer{
			{
				Name:          "Urea",
				Formula:       "46-0-0",
				NPK:           NPKRatio{N: 46, P: 0, K: 0},
				PriceTHBPerKg: 16,
			},
			{
				Name:          "Compound 16-20-0",
				Formula:       "16-20-0",
				NPK:           NPKRatio{N: 16, P: 20, K: 0},
				PriceTHBPerKg: 18,
			},
			{
				Name:          "Muriate of Potash",
				Formula:       "0-0-60",
				NPK:           NPKRatio{N: 0, P: 0, K: 60},
				PriceTHBPerKg: 20,
			},
			{
				Name:          "Compound 15-15-15",
				Formula:       "15-15-15",
				NPK:           NPKRatio{N: 15, P: 15, K: 15},
				PriceTHBPerKg: 22,
			},
		},
	}
}
