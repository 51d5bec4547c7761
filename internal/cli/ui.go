package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/packages"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached = lipgloss.NewStyle().Foreground(colorGreen)
	styleStage  = lipgloss.NewStyle().Foreground(colorCyan).Width(8)
	styleID     = lipgloss.NewStyle().Foreground(colorWhite).Width(32)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Run Summaries
// =============================================================================

// printSummary prints the outcome counts of an update check on one line,
// followed by one warning per failed package.
func printSummary(results []packages.Result) {
	s := packages.Summarize(results)
	parts := []string{
		StyleNumber.Render(fmt.Sprint(s.Total)) + StyleDim.Render(" checked"),
		StyleSuccess.Render(fmt.Sprint(s.Updates)) + StyleDim.Render(" updates"),
	}
	if s.Failed > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprint(s.Failed))+StyleDim.Render(" failed"))
	}
	if s.Cached > 0 {
		parts = append(parts, styleCached.Render(fmt.Sprint(s.Cached))+StyleDim.Render(" "+iconCached))
	}
	fmt.Println(strings.Join(parts, StyleDim.Render(" · ")))

	for _, r := range results {
		if r.Err != nil {
			printWarning("%s: %s", r.ID, errors.UserMessage(r.Err))
		}
	}
}

// printPlan prints a build plan grouped by stage.
func printPlan(steps []packages.BuildStep) {
	if len(steps) == 0 {
		printInfo("Nothing to build")
		return
	}
	fmt.Println(StyleTitle.Render("Build order"))
	for _, s := range steps {
		change := StyleDim.Render("dependency")
		if !s.Dependency {
			change = s.From + " " + StyleDim.Render(iconArrow) + " " + StyleSuccess.Render(s.To)
		}
		fmt.Println(styleStage.Render(fmt.Sprintf("stage %d", s.Stage)) + styleID.Render(s.ID) + change)
	}
}

// printPatches reports what was written back to recipes.
func printPatches(patches []packages.PatchResult, dryRun bool) {
	for _, p := range patches {
		switch {
		case p.Err != nil && errors.Is(p.Err, errors.ErrCodeUnsafePatch):
			printWarning("%s: PKG_VERS is computed, update %s to %s by hand", p.ID, p.From, p.To)
		case p.Err != nil:
			printError("%s: %s", p.ID, errors.UserMessage(p.Err))
		case dryRun:
			printInfo("%s: would update %s %s %s", p.ID, p.From, iconArrow, p.To)
		default:
			printSuccess("%s: updated %s %s %s", p.ID, p.From, iconArrow, p.To)
		}
	}
}

// =============================================================================
// Utilities
// =============================================================================

// pluralize formats a count with a singular or plural noun.
func pluralize(n int, word string) string {
	switch {
	case n == 1:
		return fmt.Sprintf("%d %s", n, word)
	case strings.HasSuffix(word, "y"):
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(word, "y"))
	}
	return fmt.Sprintf("%d %ss", n, word)
}
