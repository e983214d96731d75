// Package ui renders recipe run reports for the terminal, for plain text
// output and as markdown.
package ui

import (
	"io"
	"os"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/recipe"
)

// Renderer is the common interface for all output renderers.
type Renderer interface {
	// RenderReport renders the outcome of a recipe run
	RenderReport(report *recipe.Report) error

	// RenderPlan lists the steps of a recipe without running them
	RenderPlan(r *recipe.Recipe) error

	// RenderError renders an error with appropriate formatting
	RenderError(err error) error

	// RenderMessage renders a simple message
	RenderMessage(msg string) error
}

// NewRenderer creates a new renderer based on the specified format.
// With FormatAuto the format is detected from output when it is a file.
func NewRenderer(format Format, output io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		if file, ok := output.(*os.File); ok {
			return NewRenderer(DetectFormat(file), output)
		}
		return NewRenderer(FormatText, output)
	case FormatTerminal:
		return NewTerminal(output, "")
	case FormatText:
		return NewText(output), nil
	case FormatMarkdown:
		return NewMarkdown(output), nil
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format: %v", format)
	}
}
