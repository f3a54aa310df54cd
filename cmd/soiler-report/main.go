// Command soiler-report runs a single advisory analysis from the command
// line and prints the report, without requiring any backing services.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/narongchai190/soiler/internal/corpus"
	"github.com/narongchai190/soiler/internal/knowledge"
	"github.com/narongchai190/soiler/internal/pipeline"
	"github.com/narongchai190/soiler/internal/retrieval"
	"github.com/narongchai190/soiler/internal/retrieval/index"
	"github.com/narongchai190/soiler/pkg/config"
	"github.com/narongchai190/soiler/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (optional)")
		crop       = flag.String("crop", "", "target crop name (required)")
		location   = flag.String("location", "", "field location label")
		series     = flag.String("soil-series", "", "soil series name")
		ph         = flag.Float64("ph", 6.5, "soil pH")
		nitrogen   = flag.Float64("n", 0, "soil nitrogen mg/kg")
		phosphorus = flag.Float64("p", 0, "soil phosphorus mg/kg")
		potassium  = flag.Float64("k", 0, "soil potassium mg/kg")
		fieldRai   = flag.Float64("rai", 1, "field size in rai")
		season     = flag.String("season", "", "growing season: rainy or dry (default rainy)")
		humidity   = flag.Float64("humidity", 0, "relative humidity percent (default 75)")
		format     = flag.String("format", "text", "output format: text or json")
	)
	flag.Parse()

	if *crop == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: -crop")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("warn", "text")

	base, err := knowledge.Load(cfg.Knowledge.MasterDataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load knowledge base: %v\n", err)
		os.Exit(1)
	}
	docs, err := corpus.Load(cfg.Corpus.Dir)
	if err != nil {
		// A missing corpus just means reports without citations.
		docs = nil
	}
	idx, err := index.Build(docs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build index: %v\n", err)
		os.Exit(1)
	}
	retriever := retrieval.New(idx, cfg.Retrieval)
	runner := pipeline.NewRunner(base, retriever, nil, cfg.Retrieval.DefaultTopK)

	report, err := runner.Run(context.Background(), pipeline.Input{
		Location:   *location,
		SoilSeries: *series,
		Crop:       *crop,
		PH:         *ph,
		Nitrogen:   *nitrogen,
		Phosphorus: *phosphorus,
		Potassium:  *potassium,
		FieldRai:   *fieldRai,
		Season:     *season,
		Humidity:   *humidity,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
			os.Exit(1)
		}
	default:
		printText(report)
	}
}

func printText(report *pipeline.Report) {
	fmt.Printf("Soil analysis for %s", report.Input.Crop)
	if report.Input.Location != "" {
		fmt.Printf(" at %s", report.Input.Location)
	}
	fmt.Printf(" (%.1f rai)\n\n", report.Gap.FieldRai)

	fmt.Printf("pH %.1f: %s (score %.0f)\n", report.PH.Value, report.PH.Status, report.PH.Score)
	for _, n := range report.Nutrients {
		fmt.Printf("%-12s %6.1f mg/kg: %s\n", n.Nutrient, n.Value, n.Level)
	}

	if report.Lime.Needed {
		fmt.Printf("\nLime: %.1f kg/rai (%.1f kg total) to reach pH %.1f\n",
			report.Lime.KgPerRai, report.Lime.TotalKg, report.Lime.TargetPH)
	}

	if len(report.Plan.Applications) > 0 {
		fmt.Println("\nFertilizer plan:")
		for _, app := range report.Plan.Applications {
			fmt.Printf("  %s (%s): %.1f kg (%.1f kg/rai), %s, %.0f THB\n",
				app.Fertilizer.Name, app.Fertilizer.Formula,
				app.AmountKg, app.PerRaiKg, app.Timing, app.CostTHB)
		}
		fmt.Printf("  Total cost: %.0f THB\n", report.Plan.TotalCostTHB)
	}

	if report.Pests != nil {
		fmt.Printf("\nPest and disease outlook: %s risk\n", report.Pests.Overall)
		for _, t := range report.Pests.Threats {
			if t.Risk == "low" {
				continue
			}
			fmt.Printf("  %-28s %s risk, %s\n", t.Name, t.Risk, t.Prevention)
		}
	}

	if report.Market != nil {
		m := report.Market
		fmt.Printf("\nMarket outlook: %.0f kg/rai at %.2f THB/kg farm-gate\n",
			m.YieldKgPerRai, m.FarmGateTHBPerKg)
		fmt.Printf("  Revenue %.0f THB, cost %.0f THB, net %.0f THB (ROI %.1f%%)\n",
			m.RevenueTHB, m.CostTHB, m.NetProfitTHB, m.ROIPercent)
	}

	if len(report.Findings) > 0 {
		fmt.Println("\nFindings:")
		for _, f := range report.Findings {
			fmt.Printf("  - %s\n", f.Summary)
			for _, c := range f.Citations {
				snippet := c.Snippet
				if len(snippet) > 80 {
					snippet = strings.TrimSpace(snippet[:80]) + "..."
				}
				fmt.Printf("    [%s] %s: %s\n", c.DocumentID, c.Source, snippet)
			}
		}
	}
}
