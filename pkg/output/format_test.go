package output

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/quantfolio/rebalance/internal/rebalancer"
)

func sampleReport() *rebalancer.Report {
	return &rebalancer.Report{
		Decisions: []rebalancer.SegmentDecision{
			{Asset: "A1", Segment: "s1", Multiplier: 1.25, InitialExposure: 100, OptimizedExposure: 125, ExposureChange: 25},
			{Asset: "A2", Segment: "s1", Multiplier: 0.875, InitialExposure: 200, OptimizedExposure: 175, ExposureChange: -25},
			{Asset: "A3", Segment: "s1", Multiplier: 1, InitialExposure: 50, OptimizedExposure: 50, ExposureChange: 0},
		},
		Assets: []rebalancer.AssetSummary{
			{Name: "A1", InitialExposure: 100, OptimizedExposure: 125, AverageRiskWeight: 0.5, SharePercent: 35.71},
			{Name: "A2", InitialExposure: 200, OptimizedExposure: 175, AverageRiskWeight: 0.4, SharePercent: 50},
			{Name: "A3", InitialExposure: 50, OptimizedExposure: 50, AverageRiskWeight: 0.45, SharePercent: 14.29},
		},
		Scenarios: []rebalancer.ScenarioOutcome{
			{Scenario: "baseline", Priority: 1, Downside: 12.34, NetProfit: 56.78},
		},
		InitialExposure:   350,
		OptimizedExposure: 350,
		ExpectedProfit:    18.25,
		TransactionCost:   0.75,
		NetProfit:         17.50,
		AverageRiskWeight: 0.45,
		TotalDownside:     12.34,
		SolverCalls:       1,
	}
}

// captureOutput redirects stdout during fn and returns what was written.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("reading captured output: %v", err)
	}
	return buf.String()
}

func TestPrettyFormat(t *testing.T) {
	got := captureOutput(t, func() {
		PrettyFormat(sampleReport())
	})

	for _, want := range []string{
		"Recommended rebalancing",
		"A1/s1",
		"priority 1 (baseline)",
		"Net profit:",
		"$17.50",
		"Asset mix",
		"35.71% of book",
		"+0.00%",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("pretty output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "partial result") {
		t.Error("pretty output mentions partial result for a complete run")
	}
	if !strings.Contains(got, "| hold") {
		t.Errorf("pretty output does not mark the unchanged segment as held:\n%s", got)
	}
}

func TestPrettyFormatPartial(t *testing.T) {
	report := sampleReport()
	report.Partial = true

	got := captureOutput(t, func() {
		PrettyFormat(report)
	})
	if !strings.Contains(got, "partial result") {
		t.Errorf("pretty output missing partial-result note:\n%s", got)
	}
}

func TestCsvString(t *testing.T) {
	got := CsvString(sampleReport())

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if lines[0] != `"asset","segment","multiplier","initial_exposure","optimized_exposure","exposure_change"` {
		t.Errorf("unexpected decision header: %s", lines[0])
	}
	if !strings.Contains(got, `"A1","s1","1.250000","100.00","125.00","25.00"`) {
		t.Errorf("missing decision row:\n%s", got)
	}
	if !strings.Contains(got, `"scenario","priority","downside","net_profit"`) {
		t.Errorf("missing scenario header:\n%s", got)
	}
	if !strings.Contains(got, `"baseline","1","12.34","56.78"`) {
		t.Errorf("missing scenario row:\n%s", got)
	}
}

func TestCsvFormatWritesToStdout(t *testing.T) {
	report := sampleReport()
	got := captureOutput(t, func() {
		CsvFormat(report)
	})
	if got != CsvString(report) {
		t.Error("CsvFormat() output differs from CsvString()")
	}
}
