package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/miller/backend/internal/brain"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const dateLayout = "2006-01-02"

// RunHeader holds run metadata for the header block
type RunHeader struct {
	Title    string
	RunID    string
	Strategy string
	Dates    []time.Time
	Stages   []brain.Stage
}

// PrintRunHeader prints a formatted run header
func PrintRunHeader(h RunHeader) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", h.Title)
	PrintSeparator()
	fmt.Printf("  Run ID    : %s\n", h.RunID)
	fmt.Printf("  Strategy  : %s\n", h.Strategy)

	switch len(h.Dates) {
	case 0:
	case 1:
		fmt.Printf("  Date      : %s\n", h.Dates[0].Format(dateLayout))
	default:
		fmt.Printf("  Period    : %s ~ %s (%d dates)\n",
			h.Dates[0].Format(dateLayout), h.Dates[len(h.Dates)-1].Format(dateLayout), len(h.Dates))
	}

	if len(h.Stages) > 0 {
		names := make([]string, len(h.Stages))
		for i, s := range h.Stages {
			names[i] = string(s)
		}
		fmt.Printf("  Stages    : %s\n", strings.Join(names, " → "))
	}
	PrintSeparator()
}

var passColumns = []string{"Date", "Stage", "Source", "Processed", "Passed", "Sells", "Inserted", "Skipped", "Failed", "Time"}
var passWidths = []int{10, 9, 10, 9, 6, 5, 8, 7, 6, 8}

// PrintPassTable prints one row per pass
func PrintPassTable(passes []brain.PassSummary) {
	PrintTableHeader(passColumns, passWidths)
	for _, p := range passes {
		source := "-"
		if !p.SourceDate.IsZero() {
			source = p.SourceDate.Format(dateLayout)
		}
		PrintTableRow([]string{
			p.Date.Format(dateLayout),
			string(p.Stage),
			source,
			fmt.Sprint(p.Processed),
			fmt.Sprint(p.Passed),
			fmt.Sprint(p.Sells),
			fmt.Sprint(p.Inserted),
			fmt.Sprint(p.Skipped),
			fmt.Sprint(p.Failed),
			fmt.Sprintf("%.2fs", p.Duration.Seconds()),
		}, passWidths)
	}
}

// PrintRunCompletion prints run completion message
func PrintRunCompletion(result *brain.RunResult) {
	fmt.Println()
	failed := 0
	for _, p := range result.Passes {
		failed += p.Failed
	}
	if failed > 0 {
		PrintWarning(fmt.Sprintf("%d entities failed (see logs)", failed))
	}
	if result.Success {
		fmt.Printf("✅ Run %s completed in %.2fs\n", result.RunID, result.Duration.Seconds())
	} else {
		fmt.Printf("❌ Run %s aborted after %.2fs\n", result.RunID, result.Duration.Seconds())
	}
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}
