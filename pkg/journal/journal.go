package journal

import (
	"fmt"
	"io"
	"time"

	"github.com/arthur-debert/reciper/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Kind identifies the operation a record compensates.
type Kind int

const (
	// KindCopyFile undoes a copy by deleting the destination and any
	// directories the copy created, or by restoring the backup when the
	// copy replaced an existing file.
	KindCopyFile Kind = iota

	// KindLineRangePatch undoes a patch by rewriting the original bytes.
	KindLineRangePatch

	// KindRunCommand undoes a command by running its rollback command, if any.
	KindRunCommand

	// KindOverrideFile undoes an override by restoring the backup.
	KindOverrideFile
)

// String returns the snake_case name used in logs and journal dumps.
func (k Kind) String() string {
	switch k {
	case KindCopyFile:
		return "copy_file"
	case KindLineRangePatch:
		return "line_range_patch"
	case KindRunCommand:
		return "run_command"
	case KindOverrideFile:
		return "override_file"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Record is the information needed to undo one completed operation.
// Only the fields relevant to Kind are set. Paths are relative to the
// working copy root.
type Record struct {
	Seq  int
	Kind Kind
	At   time.Time

	Destination string   // KindCopyFile
	CreatedDirs []string // KindCopyFile, outermost first

	Target          string // KindLineRangePatch, KindOverrideFile
	OriginalContent []byte // KindLineRangePatch

	RollbackCommand string // KindRunCommand, empty means nothing to undo

	BackupPath string // KindOverrideFile, KindCopyFile over an existing file; absolute path in the backup store
}

// Describe returns a short human readable summary of the record.
func (r Record) Describe() string {
	switch r.Kind {
	case KindCopyFile:
		return "copy " + r.Destination
	case KindLineRangePatch:
		return "patch " + r.Target
	case KindRunCommand:
		if r.RollbackCommand == "" {
			return "command (no rollback)"
		}
		return "command, undo with: " + r.RollbackCommand
	case KindOverrideFile:
		return "override " + r.Target
	default:
		return r.Kind.String()
	}
}

// Journal is the ordered list of records for one run.
type Journal struct {
	records []Record
	seq     int
	now     func() time.Time
}

// New creates an empty journal.
func New() *Journal {
	return &Journal{now: time.Now}
}

// NextSeq returns the sequence number the next appended record will carry.
// Sequence numbers are never reused within a journal, even after a drain.
func (j *Journal) NextSeq() int {
	return j.seq + 1
}

// Append stamps rec with the next sequence number and the current time and
// adds it to the end of the journal.
func (j *Journal) Append(rec Record) Record {
	j.seq++
	rec.Seq = j.seq
	rec.At = j.now()
	j.records = append(j.records, rec)
	return rec
}

// Len returns the number of records not yet compensated.
func (j *Journal) Len() int {
	return len(j.records)
}

// Records returns a copy of the records in insertion order.
func (j *Journal) Records() []Record {
	out := make([]Record, len(j.records))
	copy(out, j.records)
	return out
}

// Drain removes and returns every record, leaving the journal empty.
func (j *Journal) Drain() []Record {
	out := j.records
	j.records = nil
	return out
}

// Restore puts records back at the front of the journal, ahead of anything
// appended since the drain. Used after a rollback stops part way so a later
// call can resume where it left off.
func (j *Journal) Restore(records []Record) {
	if len(records) == 0 {
		return
	}
	restored := make([]Record, 0, len(records)+len(j.records))
	restored = append(restored, records...)
	j.records = append(restored, j.records...)
}

type entry struct {
	Seq             int      `yaml:"seq"`
	Kind            string   `yaml:"kind"`
	At              string   `yaml:"at"`
	Destination     string   `yaml:"destination,omitempty"`
	CreatedDirs     []string `yaml:"created_dirs,omitempty"`
	Target          string   `yaml:"target,omitempty"`
	OriginalBytes   int      `yaml:"original_bytes,omitempty"`
	RollbackCommand string   `yaml:"rollback_command,omitempty"`
	BackupPath      string   `yaml:"backup_path,omitempty"`
}

// WriteYAML dumps the journal to w. Original file contents are summarized by
// size rather than written out.
func (j *Journal) WriteYAML(w io.Writer) error {
	entries := make([]entry, 0, len(j.records))
	for _, r := range j.records {
		entries = append(entries, entry{
			Seq:             r.Seq,
			Kind:            r.Kind.String(),
			At:              r.At.Format(time.RFC3339),
			Destination:     r.Destination,
			CreatedDirs:     r.CreatedDirs,
			Target:          r.Target,
			OriginalBytes:   len(r.OriginalContent),
			RollbackCommand: r.RollbackCommand,
			BackupPath:      r.BackupPath,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]interface{}{"records": entries}); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "failed to write journal")
	}
	return enc.Close()
}
