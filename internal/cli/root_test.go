package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/config"
	"epbm-autofill/internal/domain/entity"
	"epbm-autofill/internal/infrastructure/presenter"
)

type fakeEnv map[string]string

func (e fakeEnv) Get(key string) string { return e[key] }

func (e fakeEnv) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

func (e fakeEnv) GetWithDefault(key, def string) string {
	if v := e[key]; v != "" {
		return v
	}
	return def
}

func (e fakeEnv) GetBool(key string, def bool) bool {
	switch e[key] {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return def
}

// fakeEngine records what a command asked of it.
type fakeEngine struct {
	discovery entity.DiscoveryOutcome
	outcome   entity.RunOutcome

	cfg     config.Config
	creds   []entity.Credentials
	runs    []entity.RunContext
	flushed int
	closed  bool
}

func (f *fakeEngine) Discover(ctx context.Context, creds entity.Credentials) entity.DiscoveryOutcome {
	f.creds = append(f.creds, creds)
	return f.discovery
}

func (f *fakeEngine) Run(ctx context.Context, rc entity.RunContext) entity.RunOutcome {
	f.runs = append(f.runs, rc)
	return f.outcome
}

func (f *fakeEngine) Flush() { f.flushed++ }
func (f *fakeEngine) Close() { f.closed = true }

func newTestApp(t *testing.T, engine *fakeEngine) (*App, *bytes.Buffer) {
	t.Helper()
	t.Setenv(config.EnvConfigKey, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out bytes.Buffer
	app := NewApp(fakeEnv{"EPBM_USERNAME": "G6401211001", "EPBM_PASSWORD": "secret", "EPBM_NO_COLOR": "true"})
	app.Out = &out
	app.Err = &out
	app.In = strings.NewReader("")
	app.NewEngine = func(cfg config.Config, p output.PresenterPort) (Engine, error) {
		engine.cfg = cfg
		return engine, nil
	}
	app.Select = func(context.Context, []entity.WorkItem, io.Reader, io.Writer) (entity.RunSelection, error) {
		t.Fatal("selector should not be shown")
		return nil, nil
	}
	return app, &out
}

func TestFill_DefaultsToIncompleteItems(t *testing.T) {
	engine := &fakeEngine{
		discovery: entity.DiscoveryOutcome{Success: true, Items: discovered},
		outcome:   entity.RunOutcome{Success: true},
	}
	app, out := newTestApp(t, engine)

	code := Execute(context.Background(), app, []string{"fill", "--preset", "mid"})

	assert.Equal(t, 0, code, out.String())
	require.Len(t, engine.runs, 1)
	rc := engine.runs[0]
	assert.Equal(t, []string{"/epbm/kom201", "/epbm/sarpras"}, refs(rc.Selection))
	assert.Equal(t, "G6401211001", rc.Credentials.Username)
	assert.Equal(t, 3, rc.Settings.Value(entity.LecturerFeedback))
	assert.NotEmpty(t, rc.ID)
	assert.Equal(t, 1, engine.flushed)
	assert.True(t, engine.closed)
	assert.Contains(t, out.String(), "Selected 2 of 3")
}

func TestFill_FlagsOverrideConfigAndEnv(t *testing.T) {
	engine := &fakeEngine{
		discovery: entity.DiscoveryOutcome{Success: true, Items: discovered},
		outcome:   entity.RunOutcome{Success: true},
	}
	app, _ := newTestApp(t, engine)

	code := Execute(context.Background(), app, []string{
		"fill", "-u", "other", "--headless", "--item", "sarana", "--suggestion", "Mantap",
	})

	require.Equal(t, 0, code)
	require.Len(t, engine.runs, 1)
	rc := engine.runs[0]
	assert.Equal(t, "other", rc.Credentials.Username)
	assert.Equal(t, "secret", rc.Credentials.Password)
	assert.True(t, rc.Headless)
	assert.Equal(t, "Mantap", rc.Settings.Suggestion())
	assert.Equal(t, []string{"/epbm/sarpras"}, refs(rc.Selection))
}

func TestFill_NothingPending(t *testing.T) {
	engine := &fakeEngine{discovery: entity.DiscoveryOutcome{Success: true, Items: discovered[1:2]}}
	app, out := newTestApp(t, engine)

	code := Execute(context.Background(), app, []string{"fill"})

	assert.Equal(t, 0, code)
	assert.Empty(t, engine.runs)
	assert.Contains(t, out.String(), "Nothing to fill")
}

func TestFill_FailedDiscoveryStops(t *testing.T) {
	engine := &fakeEngine{discovery: entity.DiscoveryOutcome{Message: "Login failed"}}
	app, _ := newTestApp(t, engine)

	assert.Equal(t, 1, Execute(context.Background(), app, []string{"fill"}))
	assert.Empty(t, engine.runs)
	assert.True(t, engine.closed)
}

func TestFill_FailedRunExitsNonZero(t *testing.T) {
	engine := &fakeEngine{
		discovery: entity.DiscoveryOutcome{Success: true, Items: discovered},
		outcome:   entity.RunOutcome{Message: "Login failed"},
	}
	app, _ := newTestApp(t, engine)

	assert.Equal(t, 1, Execute(context.Background(), app, []string{"fill"}))
	assert.Len(t, engine.runs, 1)
}

func TestFill_Interactive(t *testing.T) {
	engine := &fakeEngine{
		discovery: entity.DiscoveryOutcome{Success: true, Items: discovered},
		outcome:   entity.RunOutcome{Success: true},
	}
	app, _ := newTestApp(t, engine)

	var offered []entity.WorkItem
	app.Select = func(_ context.Context, items []entity.WorkItem, _ io.Reader, _ io.Writer) (entity.RunSelection, error) {
		offered = items
		return entity.RunSelection{items[0]}, nil
	}
	require.Equal(t, 0, Execute(context.Background(), app, []string{"fill", "--interactive"}))
	assert.Len(t, offered, 3)
	assert.Equal(t, []string{"/epbm/kom201"}, refs(engine.runs[0].Selection))

	engine.runs = nil
	app.Select = func(context.Context, []entity.WorkItem, io.Reader, io.Writer) (entity.RunSelection, error) {
		return nil, presenter.ErrSelectionCancelled
	}
	assert.Equal(t, 1, Execute(context.Background(), app, []string{"fill", "--interactive"}))
	assert.Empty(t, engine.runs)
}

func TestFill_RejectsBadInput(t *testing.T) {
	tests := map[string][]string{
		"unknown preset":       {"fill", "--preset", "min"},
		"item and interactive": {"fill", "--item", "1", "--interactive"},
		"unknown item":         {"fill", "--item", "fisika"},
		"item and all":         {"fill", "--item", "1", "--all-incomplete"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			engine := &fakeEngine{discovery: entity.DiscoveryOutcome{Success: true, Items: discovered}}
			app, _ := newTestApp(t, engine)
			assert.Equal(t, 1, Execute(context.Background(), app, args))
			assert.Empty(t, engine.runs)
		})
	}
}

func TestFill_AllIncompleteOffNeedsAChoice(t *testing.T) {
	engine := &fakeEngine{
		discovery: entity.DiscoveryOutcome{Success: true, Items: discovered},
		outcome:   entity.RunOutcome{Success: true},
	}
	app, out := newTestApp(t, engine)

	assert.Equal(t, 1, Execute(context.Background(), app, []string{"fill", "--all-incomplete=false"}))
	assert.Empty(t, engine.creds)
	assert.Empty(t, engine.runs)
	assert.Contains(t, out.String(), "--item or --interactive")

	app.Select = func(_ context.Context, items []entity.WorkItem, _ io.Reader, _ io.Writer) (entity.RunSelection, error) {
		return entity.RunSelection{items[2]}, nil
	}
	require.Equal(t, 0, Execute(context.Background(), app, []string{"fill", "--all-incomplete=false", "--interactive"}))
	require.Len(t, engine.runs, 1)
	assert.Equal(t, []string{"/epbm/sarpras"}, refs(engine.runs[0].Selection))
}

func TestDiscover_RequiresCredentials(t *testing.T) {
	engine := &fakeEngine{}
	app, out := newTestApp(t, engine)
	app.Env = fakeEnv{}

	assert.Equal(t, 1, Execute(context.Background(), app, []string{"discover"}))
	assert.Empty(t, engine.creds)
	assert.Contains(t, out.String(), "username and password are required")
}

func TestDiscover_ExitCodeFollowsOutcome(t *testing.T) {
	engine := &fakeEngine{discovery: entity.DiscoveryOutcome{Success: true, Items: discovered}}
	app, _ := newTestApp(t, engine)
	assert.Equal(t, 0, Execute(context.Background(), app, []string{"discover"}))

	engine.discovery = entity.DiscoveryOutcome{Message: "No questionnaires found on the EPBM page."}
	assert.Equal(t, 1, Execute(context.Background(), app, []string{"discover"}))
	assert.Len(t, engine.creds, 2)
}

func TestConfigInitAndShow(t *testing.T) {
	app, out := newTestApp(t, &fakeEngine{})
	path := filepath.Join(t.TempDir(), "epbm", "config.yaml")

	require.Equal(t, 0, Execute(context.Background(), app, []string{"config", "init", path}))
	assert.FileExists(t, path)
	assert.Equal(t, 1, Execute(context.Background(), app, []string{"config", "init", path}))
	require.Equal(t, 0, Execute(context.Background(), app, []string{"config", "init", path, "--force"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), "max_pages_per_item: 30", "max_pages_per_item: 12", 1)), 0o644))

	out.Reset()
	require.Equal(t, 0, Execute(context.Background(), app, []string{"--config", path, "config", "show"}))
	assert.Contains(t, out.String(), "# source: "+path)
	assert.Contains(t, out.String(), "max_pages_per_item: 12")
}
