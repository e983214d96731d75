package operations

import (
	"strings"

	"github.com/arthur-debert/reciper/pkg/errors"
	"github.com/arthur-debert/reciper/pkg/filesystem"
	"github.com/arthur-debert/reciper/pkg/journal"
	"github.com/arthur-debert/reciper/pkg/paths"
	"github.com/spf13/afero"
)

// LineRange selects lines Start through End of a file, 1-indexed and
// inclusive. An End past the last line stops at the last line.
type LineRange struct {
	Start int
	End   int
}

// PatchOptions controls LineRangePatch.
type PatchOptions struct {
	// InsertAtLine is the 1-indexed line the inserted lines end up at; they go
	// before the line currently there. Values below 1 insert at the start and
	// values past the end append.
	InsertAtLine int
	// SourceLines narrows the source to a range. Nil takes the whole file.
	SourceLines *LineRange
}

// LineRangePatch inserts lines from source into the single working copy file
// matched by targetPattern and returns the patched path. The target's full
// original content is journaled.
func (o *Operations) LineRangePatch(source, targetPattern string, opts PatchOptions) (string, error) {
	src, err := paths.Clean(source)
	if err != nil {
		return "", err
	}

	target, err := o.resolver.Resolve(targetPattern)
	if err != nil {
		return "", err
	}
	if !filesystem.IsFile(o.work, target) {
		return "", errors.Newf(errors.ErrAmbiguousTarget, "no file found for %q", targetPattern).
			WithDetail("pattern", targetPattern).
			WithDetail("matches", []string{})
	}

	if !filesystem.IsFile(o.source, src) {
		return "", errors.Newf(errors.ErrSourceNotFound, "source file not found: %s", src).
			WithDetail("source", src)
	}

	original, err := afero.ReadFile(o.work, target)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", target)
	}
	sourceContent, err := afero.ReadFile(o.source, src)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", src)
	}

	selected, err := selectLines(splitLines(string(sourceContent)), opts.SourceLines)
	if err != nil {
		return "", err
	}

	patched := insertLines(splitLines(string(original)), selected, opts.InsertAtLine)
	content := strings.Join(patched, "\n")
	if strings.HasSuffix(string(original), "\n") {
		content += "\n"
	}

	if err := filesystem.WriteFileAtomic(o.work, target, []byte(content), filesystem.FileMode(o.work, target)); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileWrite, "failed to patch %s", target)
	}

	rec := o.journal.Append(journal.Record{
		Kind:            journal.KindLineRangePatch,
		Target:          target,
		OriginalContent: original,
	})

	o.logger.Debug().
		Str("op", "line_range_patch").
		Str("source", src).
		Str("target", target).
		Int("insert_at_line", opts.InsertAtLine).
		Int("lines", len(selected)).
		Int("seq", rec.Seq).
		Msg("Patched file")

	return target, nil
}

// splitLines splits on newlines. A trailing newline does not produce an
// empty last line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func selectLines(lines []string, r *LineRange) ([]string, error) {
	if r == nil {
		return lines, nil
	}
	if r.Start < 1 || r.End < r.Start || r.Start > len(lines) {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"invalid line range %d..%d for a %d line file", r.Start, r.End, len(lines)).
			WithDetail("start", r.Start).
			WithDetail("end", r.End)
	}
	end := r.End
	if end > len(lines) {
		end = len(lines)
	}
	return lines[r.Start-1 : end], nil
}

func insertLines(lines, insert []string, atLine int) []string {
	idx := atLine - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(lines) {
		idx = len(lines)
	}

	out := make([]string, 0, len(lines)+len(insert))
	out = append(out, lines[:idx]...)
	out = append(out, insert...)
	out = append(out, lines[idx:]...)
	return out
}
