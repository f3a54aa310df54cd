package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/narongchai190/soiler/internal/advisor"
	"github.com/narongchai190/soiler/internal/knowledge"
	"github.com/narongchai190/soiler/internal/retrieval"
	"github.com/narongchai190/soiler/internal/retrieval/index"
	"github.com/narongchai190/soiler/pkg/config"
	apperrors "github.com/narongchai190/soiler/pkg/errors"
)

func testRunner(t *testing.T, docs []index.Document) *Runner {
	t.Helper()
	idx, err := index.Build(docs)
	if err != nil {
		t.Fatal(err)
	}
	retriever := retrieval.New(idx, config.RetrievalConfig{DefaultTopK: 3, MaxTopK: 10, SnippetLength: 200})
	return NewRunner(knowledge.Defaults(), retriever, nil, 3)
}

func corpusDocs() []index.Document {
	return []index.Document{
		{ID: "DOC-LIME", Source: "Soil Amendment Guide", Text: "Lime application corrects acidic soil pH before planting."},
		{ID: "DOC-N", Source: "Nutrient Handbook", Text: "Nitrogen deficiency fertilizer application rates for paddy fields."},
		{ID: "DOC-RICE", Source: "Rice Manual", Text: "Jasmine rice fertilizer schedule with split urea dressing."},
	}
}

func TestRunAcidicDeficientSoil(t *testing.T) {
	runner := testRunner(t, corpusDocs())
	report, err := runner.Run(context.Background(), Input{
		Location:   "Chiang Rai",
		Crop:       "Jasmine Rice",
		PH:         5.0,
		Nitrogen:   8,
		Phosphorus: 4,
		Potassium:  25,
		FieldRai:   2,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.PH.Status != advisor.PHAcidic {
		t.Errorf("pH status = %s, want acidic", report.PH.Status)
	}
	if !report.Lime.Needed {
		t.Error("acidic soil should get a lime recommendation")
	}
	if report.Lime.TargetPH != 6.0 {
		t.Errorf("lime target = %v, want 6.0", report.Lime.TargetPH)
	}
	if len(report.Plan.Applications) == 0 {
		t.Error("deficient soil should get a fertilizer plan")
	}

	// One finding per issue: acidic pH, three deficient nutrients, three
	// high-risk rice threats in the default rainy season, the crop
	// schedule, and the negative margin at the low yield tier.
	if len(report.Findings) != 9 {
		t.Fatalf("got %d findings, want 9", len(report.Findings))
	}
	var cited int
	for _, f := range report.Findings {
		cited += len(f.Citations)
	}
	if cited == 0 {
		t.Error("no finding carried a citation from the corpus")
	}
}

func TestRunHealthySoil(t *testing.T) {
	runner := testRunner(t, corpusDocs())
	report, err := runner.Run(context.Background(), Input{
		Crop:       "Jasmine Rice",
		PH:         6.5,
		Nitrogen:   70,
		Phosphorus: 45,
		Potassium:  180,
		FieldRai:   1,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Lime.Needed {
		t.Error("optimal pH should need no lime")
	}
	// No soil findings remain; what is left is the seasonal threat
	// outlook and the crop schedule.
	topics := map[string]int{}
	for _, f := range report.Findings {
		topics[f.Topic]++
	}
	if topics["ph"] != 0 || topics["nitrogen"] != 0 || topics["phosphorus"] != 0 || topics["potassium"] != 0 {
		t.Errorf("healthy soil produced soil findings: %v", topics)
	}
	if topics["crop"] != 1 {
		t.Errorf("crop schedule findings = %d, want 1", topics["crop"])
	}
	if topics["pest"]+topics["disease"] != 3 {
		t.Errorf("high-risk threat findings = %d, want 3 for rice in the rainy season",
			topics["pest"]+topics["disease"])
	}
	if topics["economics"] != 0 {
		t.Errorf("high-yield optimal soil should be profitable, got economics finding")
	}
	if report.Market == nil || !report.Market.Profitable {
		t.Error("optimal soil at the high yield tier should project a profit")
	}
}

func TestRunEmptyCorpusDegrades(t *testing.T) {
	runner := testRunner(t, nil)
	report, err := runner.Run(context.Background(), Input{
		Crop:     "Corn",
		PH:       5.2,
		FieldRai: 1,
	})
	if err != nil {
		t.Fatalf("empty corpus must not fail the run: %v", err)
	}
	for _, f := range report.Findings {
		if len(f.Citations) != 0 {
			t.Errorf("finding %q has citations with an empty corpus", f.Topic)
		}
	}
}

func TestRunUnknownCrop(t *testing.T) {
	runner := testRunner(t, corpusDocs())
	_, err := runner.Run(context.Background(), Input{Crop: "Durian", PH: 6.0, FieldRai: 1})
	if !errors.Is(err, apperrors.ErrUnknownCrop) {
		t.Fatalf("err = %v, want ErrUnknownCrop", err)
	}
}

func TestRunValidation(t *testing.T) {
	runner := testRunner(t, corpusDocs())
	tests := []struct {
		name string
		in   Input
	}{
		{"missing crop", Input{PH: 6.0, FieldRai: 1}},
		{"ph below range", Input{Crop: "Corn", PH: -0.1, FieldRai: 1}},
		{"ph above range", Input{Crop: "Corn", PH: 14.2, FieldRai: 1}},
		{"negative nutrient", Input{Crop: "Corn", PH: 6.0, Nitrogen: -5, FieldRai: 1}},
		{"humidity above range", Input{Crop: "Corn", PH: 6.0, Humidity: 130, FieldRai: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runner.Run(context.Background(), tt.in); !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRunPestRisk(t *testing.T) {
	runner := testRunner(t, corpusDocs())
	report, err := runner.Run(context.Background(), Input{
		Crop:     "Corn",
		PH:       6.2,
		Season:   "dry",
		FieldRai: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Pests == nil {
		t.Fatal("corn has a threat table, pest risk missing from report")
	}
	// Fall armyworm (all seasons) and northern corn leaf blight stay
	// high in the dry season; two highs grade the outlook medium.
	if report.Pests.Overall != advisor.RiskMedium || report.Pests.Score != 50 {
		t.Errorf("overall = %s score %v, want medium 50", report.Pests.Overall, report.Pests.Score)
	}
	var highFindings []Finding
	for _, f := range report.Findings {
		if f.Topic == "pest" || f.Topic == "disease" {
			highFindings = append(highFindings, f)
		}
	}
	if len(highFindings) != 2 {
		t.Fatalf("threat findings = %d, want 2", len(highFindings))
	}
	for _, f := range highFindings {
		if f.Query == "" || f.Query != strings.ToLower(f.Query) {
			t.Errorf("threat query %q should be a lowercase retrieval query", f.Query)
		}
	}
	// The storage pest is out of season and must not surface.
	for _, tr := range report.Pests.Threats {
		if tr.Name == "Corn weevil" && tr.Risk != advisor.RiskLow {
			t.Errorf("corn weevil risk = %s in the dry season, want low", tr.Risk)
		}
	}
}

func TestRunMarketOutlook(t *testing.T) {
	runner := testRunner(t, corpusDocs())
	report, err := runner.Run(context.Background(), Input{
		Crop:       "Corn",
		PH:         6.2,
		Nitrogen:   80,
		Phosphorus: 50,
		Potassium:  200,
		FieldRai:   2,
	})
	if err != nil {
		t.Fatal(err)
	}
	m := report.Market
	if m == nil {
		t.Fatal("corn has a price entry, market outlook missing from report")
	}
	// Optimal pH picks the high yield tier; saturated soil means the
	// template fertilizer line is kept as-is.
	if m.YieldKgPerRai != 1300 {
		t.Errorf("yield = %v kg/rai, want high tier 1300", m.YieldKgPerRai)
	}
	if m.CostTHB != 9000 {
		t.Errorf("cost = %v THB, want 4500/rai over 2 rai", m.CostTHB)
	}
	if m.NetProfitTHB != 13100 || !m.Profitable {
		t.Errorf("net = %v profitable=%v, want 13100 true", m.NetProfitTHB, m.Profitable)
	}
}

func TestRunDefaultsFieldSize(t *testing.T) {
	runner := testRunner(t, corpusDocs())
	report, err := runner.Run(context.Background(), Input{Crop: "Corn", PH: 6.2})
	if err != nil {
		t.Fatal(err)
	}
	if report.Gap.FieldRai != 1 {
		t.Errorf("FieldRai = %v, want default 1", report.Gap.FieldRai)
	}
}

func TestRunSoilSeries(t *testing.T) {
	runner := testRunner(t, corpusDocs())
	report, err := runner.Run(context.Background(), Input{
		Crop:       "Jasmine Rice",
		SoilSeries: "Phrae",
		PH:         5.0,
		FieldRai:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Soil == nil || report.Soil.Name != "Phrae" {
		t.Errorf("soil series not resolved: %v", report.Soil)
	}
	// Clay loam buffers harder than the default loam.
	if report.Soil.Texture != "clay loam" || report.Lime.TextureFactor != 2.0 {
		t.Errorf("lime texture factor = %v, want 2.0 for clay loam", report.Lime.TextureFactor)
	}

	// Unknown series is a warning, not an error.
	if _, err := runner.Run(context.Background(), Input{
		Crop: "Jasmine Rice", SoilSeries: "Atlantis", PH: 6.5, FieldRai: 1,
	}); err != nil {
		t.Errorf("unknown soil series should not fail the run: %v", err)
	}
}
