// simctl runs a scenario file through the forecast, valuation and optional
// tornado engines and prints a markdown (or HTML) report.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"finsim/pkg/core/cashflow"
	"finsim/pkg/core/model"
	"finsim/pkg/core/report"
	"finsim/pkg/core/scenario"
	"finsim/pkg/core/sensitivity"
	"finsim/pkg/core/valuation"
)

type cliConfig struct {
	Valuation valuation.ValuationConfig `yaml:"valuation"`
}

func loadValuationConfig(path string) valuation.ValuationConfig {
	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[CONFIG] %s not found, using defaults\n", path)
		return valuation.ValuationConfig{DiscountRate: 0.18, TerminalGrowth: 0.02, TaxRate: 0.21}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "[CONFIG] failed to parse %s: %v\n", path, err)
		os.Exit(1)
	}
	return cfg.Valuation
}

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "scenario file (JSON or Hjson)")
		configPath   = flag.String("config", "config/app.yaml", "application config")
		dsoDays      = flag.Float64("dso", 0, "days sales outstanding")
		dpoDays      = flag.Float64("dpo", 0, "days payable outstanding")
		dioDays      = flag.Float64("dio", 0, "days inventory outstanding")
		openingCash  = flag.Float64("cash", 0, "opening cash")
		tornado      = flag.Bool("tornado", false, "include a tornado sweep over categories")
		format       = flag.String("format", "md", "output format: md or html")
	)
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: simctl -scenario <file> [-config <file>] [-tornado] [-format md|html]")
		os.Exit(2)
	}

	s, err := scenario.LoadFile(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
	vcfg := loadValuationConfig(*configPath)

	wc := cashflow.WorkingCapitalConfig{DSODays: *dsoDays, DPODays: *dpoDays, DIODays: *dioDays}
	tf := cashflow.TaxFinancingConfig{
		OpeningCash: decimal.NewFromFloat(*openingCash),
		TaxRate:     vcfg.TaxRate,
	}

	fc, err := cashflow.BuildForecast(s, wc, tf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] forecast: %v\n", err)
		os.Exit(1)
	}
	pnl, err := cashflow.HorizonPnL(s, tf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] horizon P&L: %v\n", err)
		os.Exit(1)
	}
	bridge, err := cashflow.Reconcile(pnl, fc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] reconcile: %v\n", err)
		os.Exit(1)
	}

	breakdown, err := valuation.ComputeValuation(s, &vcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] valuation: %v\n", err)
		os.Exit(1)
	}
	annual, err := model.DeriveIncomeStatement(s, vcfg.TaxRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] income statement: %v\n", err)
		os.Exit(1)
	}

	var out strings.Builder
	out.WriteString(report.BuildForecastReport(s, fc, bridge))
	out.WriteString("\n")
	out.WriteString(report.BuildValuationReport(s, annual, breakdown))

	if *tornado {
		drivers := []sensitivity.DriverSpec{
			{Name: "Revenue", Kind: sensitivity.DriverRevenue},
			{Name: "Expenses", Kind: sensitivity.DriverExpense},
		}
		engine := sensitivity.NewEngine(0, 0)
		results, err := engine.RunTornado(s, drivers, 0.1, sensitivity.NetProfitMetric(vcfg.TaxRate))
		if err != nil {
			fmt.Fprintf(os.Stderr, "[FATAL] tornado: %v\n", err)
			os.Exit(1)
		}
		out.WriteString("\n## Sensitivity (±10%)\n\n")
		out.WriteString("| Driver | Low | High | Impact |\n|---|---|---|---|\n")
		for _, t := range results {
			fmt.Fprintf(&out, "| %s | %.0f | %.0f | %.0f |\n", t.Driver, t.LowMetric, t.HighMetric, t.Impact)
		}
	}

	if s.Notes != "" {
		out.WriteString("\n## Notes\n\n")
		out.WriteString(report.CleanNotes(s.Notes))
		out.WriteString("\n")
	}

	if *format == "html" {
		html, err := report.RenderHTML(out.String())
		if err != nil {
			fmt.Fprintf(os.Stderr, "[FATAL] render: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(html)
		return
	}
	fmt.Println(out.String())
}
