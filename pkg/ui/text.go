package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/arthur-debert/reciper/pkg/recipe"
)

// TextRenderer writes plain text without any styling
type TextRenderer struct {
	output io.Writer
}

// NewText creates a plain text renderer
func NewText(w io.Writer) *TextRenderer {
	return &TextRenderer{output: w}
}

func (r *TextRenderer) RenderReport(report *recipe.Report) error {
	w := &errWriter{w: r.output}

	w.printf("Recipe: %s\n", report.Recipe)
	for _, step := range report.Steps {
		w.printf("  %2d. %-9s %s\n", step.Index, "["+string(step.Status)+"]", step.Description)
		if step.Status == recipe.StepFailed && step.Err != nil {
			w.printf("      %v\n", step.Err)
		}
	}

	switch {
	case report.RollbackErr != nil:
		w.printf("Rollback failed: %v\n", report.RollbackErr)
	case report.RolledBack:
		w.printf("Working copy rolled back.\n")
	}
	w.printf("%s in %s\n", summary(report), report.Duration.Round(time.Millisecond))
	return w.err
}

func (r *TextRenderer) RenderPlan(rec *recipe.Recipe) error {
	w := &errWriter{w: r.output}
	w.printf("Recipe: %s\n", rec.Name)
	if rec.Path != "" {
		w.printf("  file: %s\n", rec.Path)
	}
	for i, step := range rec.Steps {
		w.printf("  %2d. %s\n", i+1, step.Describe())
	}
	return w.err
}

func (r *TextRenderer) RenderError(err error) error {
	w := &errWriter{w: r.output}
	w.printf("Error: %v\n", err)
	for _, line := range errorDetails(err) {
		w.printf("  %s\n", line)
	}
	return w.err
}

func (r *TextRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}

// errWriter keeps the first write error so rendering code can stay linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
