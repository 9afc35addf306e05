// Package output provides utilities for formatting and displaying rebalancing
// results.
package output

import (
	"fmt"
	"strings"

	"github.com/quantfolio/rebalance/internal/rebalancer"
	"github.com/quantfolio/rebalance/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(report *rebalancer.Report) {
	p := message.NewPrinter(language.English)

	fmt.Printf("--- Recommended rebalancing ---\n")
	fmt.Printf("Asset / Segment       | Multiplier | New Exposure  | Change\n")
	fmt.Printf("_____________________ | __________ | _____________ | ______\n")
	for _, decision := range report.Decisions {
		change := p.Sprintf("$%.2f", decision.ExposureChange)
		if mathutil.IsZero(decision.ExposureChange) {
			change = "hold"
		}
		_, _ = p.Printf("%-21s | %10.4f | $%.2f | %s\n",
			decision.Asset+"/"+decision.Segment, decision.Multiplier,
			decision.OptimizedExposure, change)
	}

	fmt.Printf("\n--- Asset mix ---\n")
	for _, asset := range report.Assets {
		_, _ = p.Printf("%-21s | $%.2f | %.2f%% of book | avg risk weight %.4f\n",
			asset.Name, asset.OptimizedExposure, asset.SharePercent, asset.AverageRiskWeight)
	}

	fmt.Printf("\n--- Scenario outcomes (priority order) ---\n")
	for _, outcome := range report.Scenarios {
		_, _ = p.Printf("priority %d (%s): downside $%.2f, net profit $%.2f\n",
			outcome.Priority, outcome.Scenario, outcome.Downside, outcome.NetProfit)
	}

	fmt.Printf("\n--- Portfolio summary ---\n")
	_, _ = p.Printf("Expected profit:     $%.2f\n", report.ExpectedProfit)
	_, _ = p.Printf("Transaction costs:   $%.2f\n", report.TransactionCost)
	_, _ = p.Printf("Net profit:          $%.2f\n", report.NetProfit)
	_, _ = p.Printf("Average risk weight: %.4f\n", report.AverageRiskWeight)
	_, _ = p.Printf("Total exposure:      $%.2f (from $%.2f, %+.2f%%)\n",
		report.OptimizedExposure, report.InitialExposure,
		mathutil.CalculatePercentage(report.OptimizedExposure-report.InitialExposure, report.InitialExposure))
	_, _ = p.Printf("Total downside:      $%.2f\n", report.TotalDownside)
	if report.Partial {
		fmt.Printf("NOTE: partial result - the scenario sequence was interrupted after %d scenario(s)\n",
			len(report.Scenarios))
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(report *rebalancer.Report) {
	fmt.Print(CsvString(report))
}

// CsvString renders the CSV output as a string. Used by the HTTP server.
func CsvString(report *rebalancer.Report) string {
	var builder strings.Builder

	builder.WriteString(`"asset","segment","multiplier","initial_exposure","optimized_exposure","exposure_change"`)
	builder.WriteString("\n")
	for _, decision := range report.Decisions {
		builder.WriteString(fmt.Sprintf(`"%s","%s","%.6f","%.2f","%.2f","%.2f"`,
			decision.Asset, decision.Segment, decision.Multiplier,
			decision.InitialExposure, decision.OptimizedExposure, decision.ExposureChange))
		builder.WriteString("\n")
	}

	builder.WriteString("\n")
	builder.WriteString(`"scenario","priority","downside","net_profit"`)
	builder.WriteString("\n")
	for _, outcome := range report.Scenarios {
		builder.WriteString(fmt.Sprintf(`"%s","%d","%.2f","%.2f"`,
			outcome.Scenario, outcome.Priority, outcome.Downside, outcome.NetProfit))
		builder.WriteString("\n")
	}

	return builder.String()
}
