package reciper

import (
	_ "embed"
	"strings"
)

// Command descriptions
const (
	MsgRootShort       = "Replay recipes against an application, with rollback"
	MsgRunShort        = "Run a recipe"
	MsgValidateShort   = "Check a recipe file and list its steps"
	MsgVersionShort    = "Show version information"
	MsgCompletionShort = "Generate shell completion script"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig   = "Config file, read after the user and project config"
	MsgFlagSet      = "Override a config setting, e.g. --set commands.timeout=30s"
	MsgFlagWorkdir  = "Run in this existing directory instead of provisioning one"
	MsgFlagRollback = "Roll back every change once the run finishes"
	MsgFlagKeep     = "Keep a failed run's changes instead of rolling back"
	MsgFlagJournal  = "Write the pending undo journal to this YAML file"
	MsgFlagFormat   = "Output format: auto, term, text or markdown"

	// Run messages
	MsgBackupsKept = "Backups of overridden files are kept in %s\n"
	MsgValidateOK  = "%s is valid\n"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/run-long.txt
	msgRunLongRaw string
	MsgRunLong    = strings.TrimSpace(msgRunLongRaw)

	//go:embed msgs/run-example.txt
	msgRunExampleRaw string
	MsgRunExample    = strings.TrimRight(msgRunExampleRaw, "\n")

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)
