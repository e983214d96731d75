package ui

import (
	"fmt"
	"io"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/recipe"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

// TerminalRenderer renders the markdown report through glamour and styles
// messages with lipgloss.
type TerminalRenderer struct {
	output   io.Writer
	markdown *glamour.TermRenderer
}

// NewTerminal creates a terminal renderer. An empty glamourStyle picks the
// dark or light style from the terminal background.
func NewTerminal(w io.Writer, glamourStyle string) (*TerminalRenderer, error) {
	if glamourStyle == "" {
		glamourStyle = styles.AutoStyle
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to create markdown renderer").
			WithDetail("style", glamourStyle)
	}
	return &TerminalRenderer{output: w, markdown: md}, nil
}

func (r *TerminalRenderer) RenderReport(report *recipe.Report) error {
	out, err := r.markdown.Render(Markdown(report))
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to render report")
	}
	if _, err := io.WriteString(r.output, out); err != nil {
		return err
	}

	var status string
	switch {
	case report.RollbackErr != nil:
		status = ErrorStyle.Render("✗ rollback failed, working copy left partially restored")
	case report.Failed() != nil && report.RolledBack:
		status = WarningStyle.Render("✗ failed, changes rolled back")
	case report.Failed() != nil:
		status = ErrorStyle.Render("✗ failed, changes kept")
	default:
		status = SuccessStyle.Render("✓ done")
	}
	_, err = fmt.Fprintln(r.output, "  "+status)
	return err
}

func (r *TerminalRenderer) RenderPlan(rec *recipe.Recipe) error {
	out, err := r.markdown.Render(PlanMarkdown(rec))
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to render plan")
	}
	if _, err := io.WriteString(r.output, out); err != nil {
		return err
	}
	if rec.Path == "" {
		return nil
	}
	_, err = fmt.Fprintln(r.output, "  "+MutedStyle.Render("from")+" "+PathStyle.Render(rec.Path))
	return err
}

func (r *TerminalRenderer) RenderError(err error) error {
	if _, werr := fmt.Fprintln(r.output, ErrorStyle.Render(fmt.Sprintf("Error: %v", err))); werr != nil {
		return werr
	}
	for _, line := range errorDetails(err) {
		if _, werr := fmt.Fprintln(r.output, MutedStyle.Render("  "+line)); werr != nil {
			return werr
		}
	}
	return nil
}

func (r *TerminalRenderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}
