// Package pipeline runs one advisory analysis end to end: soil
// classification, nutrient gap and fertilizer planning, pest risk and
// market outlook, then knowledge retrieval to ground each finding with
// citations. Retrieval coming back
// empty degrades to a finding without citations; only an index integrity
// violation aborts a run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/narongchai190/soiler/internal/advisor"
	"github.com/narongchai190/soiler/internal/analytics"
	"github.com/narongchai190/soiler/internal/knowledge"
	"github.com/narongchai190/soiler/internal/retrieval"
	"github.com/narongchai190/soiler/internal/retrieval/citation"
	apperrors "github.com/narongchai190/soiler/pkg/errors"
	"github.com/narongchai190/soiler/pkg/tracing"
)

// Input is one analysis request. Season and Humidity feed the pest risk
// assessment and default to rainy season at 75% when omitted.
type Input struct {
	Location   string  `json:"location"`
	SoilSeries string  `json:"soil_series,omitempty"`
	Crop       string  `json:"crop"`
	PH         float64 `json:"ph"`
	Nitrogen   float64 `json:"nitrogen"`
	Phosphorus float64 `json:"phosphorus"`
	Potassium  float64 `json:"potassium"`
	FieldRai   float64 `json:"field_size_rai"`
	Season     string  `json:"season,omitempty"`
	Humidity   float64 `json:"humidity,omitempty"`
}

// Finding is one advisory observation with its supporting citations.
// Citations may be empty when the knowledge base has nothing relevant.
type Finding struct {
	Topic     string                  `json:"topic"`
	Query     string                  `json:"query"`
	Summary   string                  `json:"summary"`
	Citations []citation.SearchResult `json:"citations"`
}

// Report is the full result of one analysis run.
type Report struct {
	CreatedAt time.Time                `json:"created_at"`
	Input     Input                    `json:"input"`
	PH        advisor.PHResult         `json:"ph"`
	Nutrients []advisor.NutrientResult `json:"nutrients"`
	Gap       advisor.NutrientGap      `json:"nutrient_gap"`
	Plan      advisor.Plan             `json:"fertilizer_plan"`
	Lime      advisor.LimeResult       `json:"lime"`
	Soil      *knowledge.SoilSeries    `json:"soil_series,omitempty"`
	Pests     *advisor.PestRiskResult  `json:"pest_risk,omitempty"`
	Market    *advisor.MarketResult    `json:"market,omitempty"`
	Findings  []Finding                `json:"findings"`
}

// limeTargetPH is the pH that lime recommendations aim for on acidic soil.
const limeTargetPH = 6.0

// Runner wires the calculators, the knowledge base, and the retriever into
// the analysis pipeline. History and analytics are optional.
type Runner struct {
	base      *knowledge.Base
	retriever *retrieval.Retriever
	collector *analytics.Collector
	topK      int
	logger    *slog.Logger
}

// NewRunner creates a Runner. collector may be nil.
func NewRunner(base *knowledge.Base, retriever *retrieval.Retriever, collector *analytics.Collector, topK int) *Runner {
	return &Runner{
		base:      base,
		retriever: retriever,
		collector: collector,
		topK:      topK,
		logger:    slog.Default().With("component", "pipeline"),
	}
}

// Run executes one analysis. Input errors (unknown crop, out-of-range
// values) and index integrity violations are returned; everything else
// degrades.
func (r *Runner) Run(ctx context.Context, in Input) (*Report, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "pipeline.run", fmt.Sprintf("analysis-%d", start.UnixNano()))
	defer func() {
		span.End()
		span.Log()
	}()
	span.SetAttr("crop", in.Crop)

	if err := validate(&in); err != nil {
		return nil, err
	}
	crop, err := r.base.Crop(in.Crop)
	if err != nil {
		return nil, err
	}

	report := &Report{
		CreatedAt: start.UTC(),
		Input:     in,
	}

	_, soilSpan := tracing.StartChildSpan(ctx, "pipeline.soil")
	report.PH = advisor.ClassifyPH(in.PH)
	report.Nutrients = []advisor.NutrientResult{
		advisor.ClassifyNutrient(advisor.Nitrogen, in.Nitrogen),
		advisor.ClassifyNutrient(advisor.Phosphorus, in.Phosphorus),
		advisor.ClassifyNutrient(advisor.Potassium, in.Potassium),
	}
	texture := ""
	if in.SoilSeries != "" {
		if series, ok := r.base.Series(in.SoilSeries); ok {
			report.Soil = &series
			texture = series.Texture
		} else {
			r.logger.Warn("unknown soil series, continuing without it", "series", in.SoilSeries)
		}
	}
	if report.PH.Status == advisor.PHAcidic || report.PH.Status == advisor.PHVeryAcidic ||
		report.PH.Status == advisor.PHSlightlyAcidic {
		report.Lime = advisor.LimeRequirement(in.PH, limeTargetPH, texture, in.FieldRai)
	}
	soilSpan.End()

	_, fertSpan := tracing.StartChildSpan(ctx, "pipeline.fertilizer")
	npk := advisor.NPK{Nitrogen: in.Nitrogen, Phosphorus: in.Phosphorus, Potassium: in.Potassium}
	report.Gap = advisor.Gap(npk, crop, in.FieldRai)
	report.Plan = advisor.BuildPlan(report.Gap, r.base)
	fertSpan.End()

	_, riskSpan := tracing.StartChildSpan(ctx, "pipeline.risk")
	if threats, ok := r.base.Threats(in.Crop); ok {
		assessed := advisor.AssessThreats(threats, advisor.FieldConditions{
			Season:   in.Season,
			Humidity: in.Humidity,
		})
		report.Pests = &assessed
	}
	if price, ok := r.base.Price(in.Crop); ok {
		costs, _ := r.base.ProductionCosts(in.Crop)
		estimate := advisor.EstimateMarket(price, costs,
			advisor.YieldTarget(crop.Yield, report.PH.Score),
			in.FieldRai, report.Plan.TotalCostTHB)
		report.Market = &estimate
	}
	riskSpan.End()

	_, ragSpan := tracing.StartChildSpan(ctx, "pipeline.retrieval")
	report.Findings, err = r.ground(report)
	ragSpan.End()
	if err != nil {
		// Only index/corpus desynchronization lands here. It is a
		// deployment fault, not a bad request.
		return nil, err
	}

	if r.collector != nil {
		citations := 0
		for _, f := range report.Findings {
			citations += len(f.Citations)
		}
		r.collector.Track(analytics.AnalysisEvent{
			Type:      analytics.EventAnalysis,
			Crop:      in.Crop,
			Location:  in.Location,
			PHStatus:  string(report.PH.Status),
			Issues:    len(report.Findings),
			Citations: citations,
			LatencyMs: time.Since(start).Milliseconds(),
			Timestamp: time.Now().UTC(),
		})
	}

	r.logger.Info("analysis completed",
		"crop", in.Crop,
		"ph_status", report.PH.Status,
		"findings", len(report.Findings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// ground derives a retrieval query from each finding and attaches citations.
func (r *Runner) ground(report *Report) ([]Finding, error) {
	findings := make([]Finding, 0, 5)

	switch report.PH.Status {
	case advisor.PHVeryAcidic, advisor.PHAcidic, advisor.PHSlightlyAcidic:
		findings = append(findings, Finding{
			Topic:   "ph",
			Query:   "soil pH correction acidic lime",
			Summary: fmt.Sprintf("Soil pH %.1f is %s; liming recommended.", report.PH.Value, report.PH.Status),
		})
	case advisor.PHSlightlyAlkaline, advisor.PHAlkaline, advisor.PHVeryAlkaline:
		findings = append(findings, Finding{
			Topic:   "ph",
			Query:   "soil pH correction alkaline sulfur",
			Summary: fmt.Sprintf("Soil pH %.1f is %s; acidifying amendment recommended.", report.PH.Value, report.PH.Status),
		})
	}

	for _, n := range report.Nutrients {
		if !n.Deficit {
			continue
		}
		findings = append(findings, Finding{
			Topic:   n.Nutrient,
			Query:   fmt.Sprintf("%s deficiency fertilizer application", n.Nutrient),
			Summary: fmt.Sprintf("Soil %s is %s (%.0f mg/kg); supplementation recommended.", n.Nutrient, n.Level, n.Value),
		})
	}

	if report.Pests != nil {
		for _, t := range report.Pests.Threats {
			if t.Risk != advisor.RiskHigh {
				continue
			}
			findings = append(findings, Finding{
				Topic:   t.Kind,
				Query:   fmt.Sprintf("%s prevention control", strings.ToLower(t.Name)),
				Summary: fmt.Sprintf("High risk of %s; %s.", t.Name, t.Prevention),
			})
		}
	}

	findings = append(findings, Finding{
		Topic:   "crop",
		Query:   fmt.Sprintf("%s fertilizer schedule", report.Input.Crop),
		Summary: fmt.Sprintf("Fertilizer plan for %s over %.1f rai.", report.Input.Crop, report.Gap.FieldRai),
	})

	if report.Market != nil && !report.Market.Profitable {
		findings = append(findings, Finding{
			Topic: "economics",
			Query: fmt.Sprintf("%s production cost yield improvement", report.Input.Crop),
			Summary: fmt.Sprintf("Projected net loss of %.0f THB at the farm-gate price; cost review recommended.",
				-report.Market.NetProfitTHB),
		})
	}

	for i := range findings {
		results, err := r.retriever.Search(findings[i].Query, r.topK)
		if err != nil {
			return nil, fmt.Errorf("grounding finding %q: %w", findings[i].Topic, err)
		}
		findings[i].Citations = results
		if len(results) == 0 {
			r.logger.Debug("no supporting citation found", "query", findings[i].Query)
		}
	}
	return findings, nil
}

func validate(in *Input) error {
	if in.Crop == "" {
		return fmt.Errorf("%w: crop is required", apperrors.ErrInvalidInput)
	}
	if in.PH < 0 || in.PH > 14 {
		return fmt.Errorf("%w: ph %.2f out of range [0, 14]", apperrors.ErrInvalidInput, in.PH)
	}
	if in.Nitrogen < 0 || in.Phosphorus < 0 || in.Potassium < 0 {
		return fmt.Errorf("%w: nutrient levels must be non-negative", apperrors.ErrInvalidInput)
	}
	if in.Humidity < 0 || in.Humidity > 100 {
		return fmt.Errorf("%w: humidity %.1f out of range [0, 100]", apperrors.ErrInvalidInput, in.Humidity)
	}
	if in.FieldRai <= 0 {
		in.FieldRai = 1
	}
	return nil
}
