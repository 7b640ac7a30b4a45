// Package cli provides output formatting for the specialist-aid command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/salulink/specialist-aid/internal/indexer"
	"github.com/salulink/specialist-aid/internal/models"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json" (case-insensitive); empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OutputText):
		return OutputText, nil
	case string(OutputJSON):
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnalysis writes an analysis result.
func WriteAnalysis(w io.Writer, result *models.AnalysisResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "\nConfidence: %.0f/100\n", result.Confidence)
	if len(result.ExtractedTerms) == 0 {
		fmt.Fprintln(w, "\nNo medical terms found.")
		return nil
	}
	fmt.Fprintf(w, "\nExtracted terms (%d):\n", len(result.ExtractedTerms))
	for _, term := range result.ExtractedTerms {
		fmt.Fprintf(w, "  - %s\n", term)
	}
	if len(result.MatchedConditions) == 0 {
		fmt.Fprintln(w, "\nNo matching chronic conditions.")
		return nil
	}
	fmt.Fprintf(w, "\nMatched conditions (%d):\n", len(result.MatchedConditions))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range result.MatchedConditions {
		fmt.Fprintf(tw, "  %d.\t%s\t%s\t%s\n", i+1, c.ICD10Code, c.Name, Truncate(c.ICD10Description, 60))
	}
	return tw.Flush()
}

// WriteConditions writes the condition list.
func WriteConditions(w io.Writer, conditions []models.ChronicCondition, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, conditions)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tCONDITION\tDESCRIPTION")
	for _, c := range conditions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ICD10Code, c.Name, Truncate(c.ICD10Description, 60))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d conditions\n", len(conditions))
	return nil
}

// WriteConditionSearch writes condition search hits.
func WriteConditionSearch(w io.Writer, resp *models.ConditionSearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	note := ""
	if resp.AutoFuzzy {
		note = " (no exact matches; showing fuzzy results)"
	}
	fmt.Fprintf(w, "\nFound %d conditions for %q%s\n\n", resp.Total, resp.Query, note)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, hit := range resp.Results {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\n", hit.Score, hit.Condition.ICD10Code, hit.Condition.Name)
	}
	return tw.Flush()
}

// WriteBaskets writes the treatment baskets for one condition.
func WriteBaskets(w io.Writer, b *models.ConditionWithBaskets, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, b)
	}
	fmt.Fprintf(w, "\n%s %s\n", b.Condition.ICD10Code, b.Condition.Name)
	fmt.Fprintf(w, "Specialist consultations covered: %d\n", b.SpecialistCoverage)
	writeBasket(w, "Diagnostic basket", b.DiagnosticBasket)
	writeBasket(w, "Ongoing management basket", b.OngoingManagementBasket)
	return nil
}

func writeBasket(w io.Writer, title string, items []models.TreatmentBasket) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, item := range items {
		fmt.Fprintf(tw, "  %s\t%s\tx%d\n", item.ProcedureCode, item.ProcedureDescription, item.CoverageLimit)
	}
	_ = tw.Flush()
}

// WriteStatus writes engine and catalogue status.
func WriteStatus(w io.Writer, st *models.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Version:            %s\n", st.Version)
	ready := "no"
	if st.Engine.Ready {
		ready = "yes"
	}
	fmt.Fprintf(w, "Ready:              %s\n", ready)
	if st.Engine.LastError != "" {
		fmt.Fprintf(w, "Last error:         %s\n", st.Engine.LastError)
	}
	fmt.Fprintf(w, "Indexed conditions: %d (%d features)\n", st.Engine.Conditions, st.Engine.Features)
	fmt.Fprintf(w, "Vocabulary:         %s (%d keywords)\n", st.Engine.VocabularyVersion, st.Engine.Keywords)
	if c := st.Catalog; c != nil {
		fmt.Fprintf(w, "Catalogue:          %d conditions, %d basket items\n", c.Conditions, c.BasketItems)
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "Database:           %s", c.DatabasePath)
			if c.DatabaseSizeBytes != nil {
				fmt.Fprintf(w, " (%s)", FormatBytes(*c.DatabaseSizeBytes))
			}
			fmt.Fprintln(w)
		}
		writeImport(w, "Conditions import:", c.LastConditions)
		writeImport(w, "Baskets import:", c.LastBaskets)
	}
	for _, f := range st.Watched {
		fmt.Fprintf(w, "Watching:           %s\n", f)
	}
	return nil
}

func writeImport(w io.Writer, label string, rec *models.ImportRecord) {
	if rec == nil {
		return
	}
	fmt.Fprintf(w, "%-20s%s, %d rows at %s\n", label, rec.Source, rec.Rows, rec.ImportedAt.Format("2006-01-02 15:04:05"))
}

// WriteSyncResults writes the outcome of an import.
func WriteSyncResults(w io.Writer, results []indexer.SyncResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, results)
	}
	for _, r := range results {
		if r.Skipped {
			fmt.Fprintf(w, "%s: %s unchanged, skipped\n", r.Kind, r.Source)
			continue
		}
		fmt.Fprintf(w, "%s: imported %d rows from %s\n", r.Kind, r.Rows, r.Source)
	}
	return nil
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// FormatBytes renders n as a human-readable size.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
