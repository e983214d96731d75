package operations

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/arthur-debert/reciper/pkg/backup"
	"github.com/arthur-debert/reciper/pkg/journal"
	"github.com/arthur-debert/reciper/pkg/runner"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// fakeCommander records commands and returns canned results.
type fakeCommander struct {
	mu       sync.Mutex
	commands []string
	results  map[string]runner.CommandResult
	errs     map[string]error
}

func newFakeCommander() *fakeCommander {
	return &fakeCommander{
		results: map[string]runner.CommandResult{},
		errs:    map[string]error{},
	}
}

func (f *fakeCommander) Run(_ context.Context, command string) (runner.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	if result, ok := f.results[command]; ok {
		return result, f.errs[command]
	}
	return runner.CommandResult{Successful: true}, f.errs[command]
}

type fixture struct {
	source  afero.Fs
	work    afero.Fs
	journal *journal.Journal
	backups *backup.Store
	backing afero.Fs
	cmds    *fakeCommander
	ops     *Operations
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/recipe", 0755))
	require.NoError(t, mem.MkdirAll("/app", 0755))

	f := &fixture{
		source:  afero.NewReadOnlyFs(afero.NewBasePathFs(mem, "/recipe")),
		work:    afero.NewBasePathFs(mem, "/app"),
		journal: journal.New(),
		backing: mem,
		cmds:    newFakeCommander(),
	}
	f.backups = backup.NewStoreFs(mem, "/backups")
	f.ops = New(Config{
		Source:      f.source,
		WorkingCopy: f.work,
		Journal:     f.journal,
		Backups:     f.backups,
		Commands:    f.cmds,
	})
	return f
}

func (f *fixture) writeSource(t *testing.T, name, content string) {
	t.Helper()
	writeFile(t, afero.NewBasePathFs(f.backing, "/recipe"), name, content)
}

func (f *fixture) writeWork(t *testing.T, name, content string) {
	t.Helper()
	writeFile(t, f.work, name, content)
}

func (f *fixture) readWork(t *testing.T, name string) string {
	t.Helper()
	data, err := afero.ReadFile(f.work, name)
	require.NoError(t, err)
	return string(data)
}

func writeFile(t *testing.T, fsys afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Dir(name), 0755))
	require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0644))
}
