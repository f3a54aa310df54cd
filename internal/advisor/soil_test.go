package advisor

import "testing"

func TestClassifyPH(t *testing.T) {
	tests := []struct {
		ph     float64
		status PHStatus
		score  float64
	}{
		{3.8, PHVeryAcidic, 20},
		{4.5, PHAcidic, 50},
		{5.4, PHAcidic, 50},
		{5.5, PHSlightlyAcidic, 80},
		{6.0, PHOptimal, 100},
		{6.9, PHOptimal, 100},
		{7.0, PHSlightlyAlkaline, 80},
		{7.5, PHAlkaline, 50},
		{9.2, PHVeryAlkaline, 20},
	}
	for _, tt := range tests {
		got := ClassifyPH(tt.ph)
		if got.Status != tt.status {
			t.Errorf("ClassifyPH(%.1f).Status = %s, want %s", tt.ph, got.Status, tt.status)
		}
		if got.Score != tt.score {
			t.Errorf("ClassifyPH(%.1f).Score = %v, want %v", tt.ph, got.Score, tt.score)
		}
		if got.Value != tt.ph {
			t.Errorf("ClassifyPH(%.1f).Value = %v", tt.ph, got.Value)
		}
	}
}

func TestClassifyPHOutOfRange(t *testing.T) {
	if got := ClassifyPH(-1); got.Status != PHVeryAcidic {
		t.Errorf("negative pH = %s, want very_acidic", got.Status)
	}
	if got := ClassifyPH(14.5); got.Status != PHVeryAlkaline {
		t.Errorf("pH above 14 = %s, want very_alkaline", got.Status)
	}
}

func TestClassifyNutrient(t *testing.T) {
	tests := []struct {
		nutrient string
		mgkg     float64
		level    NutrientLevel
		deficit  bool
	}{
		{Nitrogen, 5, LevelVeryLow, true},
		{Nitrogen, 15, LevelLow, true},
		{Nitrogen, 30, LevelMedium, false},
		{Nitrogen, 50, LevelHigh, false},
		{Nitrogen, 80, LevelVeryHigh, false},
		{Phosphorus, 4, LevelVeryLow, true},
		{Phosphorus, 15, LevelMedium, false},
		{Potassium, 29, LevelVeryLow, true},
		{Potassium, 60, LevelMedium, false},
		{Potassium, 250, LevelVeryHigh, false},
	}
	for _, tt := range tests {
		got := ClassifyNutrient(tt.nutrient, tt.mgkg)
		if got.Level != tt.level {
			t.Errorf("ClassifyNutrient(%s, %.0f).Level = %s, want %s", tt.nutrient, tt.mgkg, got.Level, tt.level)
		}
		if got.Deficit != tt.deficit {
			t.Errorf("ClassifyNutrient(%s, %.0f).Deficit = %v, want %v", tt.nutrient, tt.mgkg, got.Deficit, tt.deficit)
		}
	}
}

func TestClassifyNutrientUnknownName(t *testing.T) {
	got := ClassifyNutrient("magnesium", 30)
	if got.Level != LevelMedium {
		t.Errorf("unknown nutrient at 30 mg/kg = %s, want medium from generic table", got.Level)
	}
}

func TestLimeRequirement(t *testing.T) {
	// Raising pH 5.0 to 6.0 on loam: 2 half-units at 200 kg each, factor 1.5.
	result := LimeRequirement(5.0, 6.0, "loam", 2)
	if !result.Needed {
		t.Fatal("lime should be needed below target")
	}
	if result.KgPerRai != 600 {
		t.Errorf("KgPerRai = %v, want 600", result.KgPerRai)
	}
	if result.TotalKg != 1200 {
		t.Errorf("TotalKg = %v, want 1200", result.TotalKg)
	}
}

func TestLimeRequirementTextures(t *testing.T) {
	sand := LimeRequirement(5.0, 6.0, "sand", 1)
	clay := LimeRequirement(5.0, 6.0, "clay", 1)
	if sand.KgPerRai >= clay.KgPerRai {
		t.Errorf("sand (%v) should need less lime than clay (%v)", sand.KgPerRai, clay.KgPerRai)
	}
	// Unknown textures use the loam factor.
	unknown := LimeRequirement(5.0, 6.0, "volcanic", 1)
	loam := LimeRequirement(5.0, 6.0, "loam", 1)
	if unknown.KgPerRai != loam.KgPerRai {
		t.Errorf("unknown texture = %v, want loam rate %v", unknown.KgPerRai, loam.KgPerRai)
	}
}

func TestLimeRequirementNotNeeded(t *testing.T) {
	result := LimeRequirement(6.5, 6.0, "loam", 3)
	if result.Needed {
		t.Error("pH above target should need no lime")
	}
	if result.TotalKg != 0 {
		t.Errorf("TotalKg = %v, want 0", result.TotalKg)
	}
}
