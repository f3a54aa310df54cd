package knowledge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/narongchai190/soiler/pkg/errors"
)

func TestDefaults(t *testing.T) {
	base := Defaults()

	crop, err := base.Crop("Jasmine Rice")
	if err != nil {
		t.Fatalf("Crop(Jasmine Rice) returned error: %v", err)
	}
	if crop.Nitrogen.Optimal != 9 {
		t.Errorf("Jasmine Rice optimal N = %v, want 9", crop.Nitrogen.Optimal)
	}

	if _, ok := base.FertilizerByFormula("46-0-0"); !ok {
		t.Error("urea missing from default catalogue")
	}
	if _, ok := base.FertilizerByFormula("99-99-99"); ok {
		t.Error("unknown formula should not resolve")
	}

	series, ok := base.Series("Phrae")
	if !ok {
		t.Fatal("Phrae series missing from defaults")
	}
	if series.Texture != "clay loam" {
		t.Errorf("Phrae texture = %q", series.Texture)
	}

	// Every default crop carries its threat, price, and cost tables.
	for name := range base.Crops {
		if _, ok := base.Threats(name); !ok {
			t.Errorf("no threat table for %s", name)
		}
		if _, ok := base.Price(name); !ok {
			t.Errorf("no market price for %s", name)
		}
		costs, ok := base.ProductionCosts(name)
		if !ok {
			t.Errorf("no cost template for %s", name)
			continue
		}
		if costs.TotalPerRai() <= 0 {
			t.Errorf("%s cost template sums to %v", name, costs.TotalPerRai())
		}
	}
	if corn := base.Crops["Corn"]; corn.Yield.HighKgPerRai <= corn.Yield.LowKgPerRai {
		t.Errorf("corn yield tiers not increasing: %+v", corn.Yield)
	}
}

func TestCostTemplateTotal(t *testing.T) {
	costs, ok := Defaults().ProductionCosts("Riceberry Rice")
	if !ok {
		t.Fatal("no Riceberry Rice cost template")
	}
	if got := costs.TotalPerRai(); got != 6600 {
		t.Errorf("TotalPerRai = %v, want 6600", got)
	}
}

func TestCropUnknown(t *testing.T) {
	base := Defaults()
	_, err := base.Crop("Durian")
	if !errors.Is(err, apperrors.ErrUnknownCrop) {
		t.Fatalf("err = %v, want ErrUnknownCrop", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master_data.yaml")
	content := `
soil_series:
  Sansai:
    name: Sansai
    texture: sandy loam
    drainage: well drained
    ph_min: 5.0
    ph_max: 6.0
    suitable_crops: [Cassava]
crop_requirements:
  Cassava:
    nitrogen: {min: 8, optimal: 12, max: 16}
    phosphorus_p2o5: {min: 4, optimal: 8, max: 12}
    potassium_k2o: {min: 8, optimal: 16, max: 24}
    ph_min: 5.0
    ph_max: 7.0
fertilizers:
  - name: Urea
    formula: 46-0-0
    npk_ratio: {n: 46, p: 0, k: 0}
    price_thb_per_kg: 17.5
pest_threats:
  Cassava:
    - name: Cassava mealybug
      thai_name: เพลี้ยแป้งมันสำปะหลัง
      kind: pest
      base_risk: high
      season: dry
      prevention: dip cuttings in systemic insecticide before planting
market_prices:
  Cassava:
    farm_gate_thb: 3.2
    wholesale_thb: 4
    retail_thb: 6
    organic_premium: 1.1
    trend: stable
production_costs:
  Cassava:
    land_prep_thb: 700
    seeds_thb: 500
    fertilizer_thb: 900
    labor_thb: 1200
    harvest_thb: 600
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	base, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	crop, err := base.Crop("Cassava")
	if err != nil {
		t.Fatalf("Crop(Cassava): %v", err)
	}
	if crop.Potassium.Optimal != 16 {
		t.Errorf("Cassava optimal K2O = %v, want 16", crop.Potassium.Optimal)
	}

	urea, ok := base.FertilizerByFormula("46-0-0")
	if !ok {
		t.Fatal("urea not loaded")
	}
	if urea.PriceTHBPerKg != 17.5 {
		t.Errorf("urea price = %v, want 17.5", urea.PriceTHBPerKg)
	}

	if _, ok := base.Series("Sansai"); !ok {
		t.Error("Sansai series not loaded")
	}

	threats, ok := base.Threats("Cassava")
	if !ok || len(threats) != 1 {
		t.Fatalf("Cassava threats = %v, want one entry", threats)
	}
	if threats[0].Kind != ThreatPest || threats[0].Season != "dry" {
		t.Errorf("mealybug entry = %+v", threats[0])
	}
	price, ok := base.Price("Cassava")
	if !ok || price.FarmGateTHB != 3.2 {
		t.Errorf("Cassava farm-gate price = %v, want 3.2", price.FarmGateTHB)
	}
	costs, ok := base.ProductionCosts("Cassava")
	if !ok || costs.TotalPerRai() != 3900 {
		t.Errorf("Cassava cost total = %v, want 3900", costs.TotalPerRai())
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	base, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back, got error: %v", err)
	}
	if len(base.Crops) == 0 {
		t.Error("fallback base has no crops")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("soil_series: [not: a: map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}
