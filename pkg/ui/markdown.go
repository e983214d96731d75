package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/arthur-debert/reciper/pkg/recipe"
)

// Markdown builds the markdown document for a report.
func Markdown(report *recipe.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", report.Recipe)
	b.WriteString("| # | Step | Status | Time |\n")
	b.WriteString("|---|------|--------|------|\n")
	for _, step := range report.Steps {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n",
			step.Index, escapeCell(step.Description), step.Status, formatDuration(step))
	}
	b.WriteString("\n")

	if failed := report.Failed(); failed != nil {
		fmt.Fprintf(&b, "**Step %d failed:** `%s`\n\n", failed.Index, failed.Err)
		if failed.Command != nil && failed.Command.Stderr != "" {
			fmt.Fprintf(&b, "```\n%s\n```\n\n", strings.TrimRight(failed.Command.Stderr, "\n"))
		}
	}

	switch {
	case report.RollbackErr != nil:
		fmt.Fprintf(&b, "**Rollback failed:** `%s`\n\n", report.RollbackErr)
	case report.RolledBack:
		b.WriteString("Working copy rolled back.\n\n")
	}

	fmt.Fprintf(&b, "_%s in %s_\n", summary(report), report.Duration.Round(time.Millisecond))
	return b.String()
}

// PlanMarkdown builds the markdown list of a recipe's steps.
func PlanMarkdown(rec *recipe.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rec.Name)
	for i, step := range rec.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step.Describe())
	}
	return b.String()
}

func summary(report *recipe.Report) string {
	if report.Failed() != nil {
		return "Failed"
	}
	return fmt.Sprintf("%d steps done", len(report.Steps))
}

func formatDuration(step recipe.StepResult) string {
	if step.Status == recipe.StepSkipped {
		return "-"
	}
	return step.Duration.Round(time.Millisecond).String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// MarkdownRenderer writes the unrendered markdown report.
type MarkdownRenderer struct {
	output io.Writer
}

// NewMarkdown creates a markdown renderer
func NewMarkdown(w io.Writer) *MarkdownRenderer {
	return &MarkdownRenderer{output: w}
}

func (r *MarkdownRenderer) RenderReport(report *recipe.Report) error {
	_, err := io.WriteString(r.output, Markdown(report))
	return err
}

func (r *MarkdownRenderer) RenderPlan(rec *recipe.Recipe) error {
	_, err := io.WriteString(r.output, PlanMarkdown(rec))
	return err
}

func (r *MarkdownRenderer) RenderError(err error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "**Error:** `%v`\n", err)
	for _, line := range errorDetails(err) {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	_, werr := io.WriteString(r.output, b.String())
	return werr
}

func (r *MarkdownRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}
