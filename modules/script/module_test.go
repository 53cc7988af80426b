package script

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHarness(t *testing.T, script string, extra map[string]params.Value) (*testutil.ProcessorHarness, string) {
	t.Helper()
	content, out := t.TempDir(), t.TempDir()
	testutil.WriteFiles(t, content, map[string]string{
		"text/greeting.txt":   "hello",
		"text/footer.txt":     "bye",
		"tools/transform.lua": script,
	})
	a, err := asset.New("text/greeting.txt", "script")
	require.NoError(t, err)
	a.BaseParameters.Set("script", params.String("tools/transform.lua"))
	for k, v := range extra {
		a.BaseParameters.Set(k, v)
	}
	return testutil.NewProcessorHarness(a, content, out), out
}

func TestProcess(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	script := `
local body = read(source())
local suffix = param("suffix", "!")
local missing = param("missing")
depend("text/footer.txt")
if missing ~= nil then error("unexpected value") end
write("text/greeting.upper.txt", string.upper(body) .. suffix)
log("info", "transformed " .. source())
`
	h, out := newHarness(t, script, map[string]params.Value{"suffix": params.String("?")})

	// --- Act ---
	err := Processor{}.Process(context.Background(), h.Context)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "HELLO?", testutil.ReadFile(t, filepath.Join(out, "text", "greeting.upper.txt")))
	assert.Equal(t, []string{"tools/transform.lua", "text/greeting.txt", "text/footer.txt"}, h.Deps.Inputs())
	assert.Equal(t, []string{"text/greeting.upper.txt"}, h.Deps.Outputs())

	infos := h.Log.Messages(buildlog.Info)
	require.Len(t, infos, 1)
	assert.Equal(t, "transformed text/greeting.txt", infos[0].Text)
}

func TestProcess_WarningsAreCounted(t *testing.T) {
	t.Parallel()

	h, _ := newHarness(t, `log("warning", "careful") log("verbose", "details")`, nil)

	err := Processor{}.Process(context.Background(), h.Context)

	require.NoError(t, err)
	assert.Equal(t, 1, h.Context.Warnings())
	assert.Len(t, h.Log.Messages(buildlog.Verbose), 1)
}

func TestProcess_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		script  string
		wantErr string
	}{
		{name: "syntax error", script: "write(", wantErr: "load script 'tools/transform.lua'"},
		{name: "runtime error", script: `error("boom")`, wantErr: "boom"},
		{name: "missing read", script: `read("text/nothing.txt")`, wantErr: "run script"},
		{name: "escaping write", script: `write("../outside.txt", "x")`, wantErr: "escapes"},
		{name: "bad log level", script: `log("loud", "x")`, wantErr: "expected error, warning, info or verbose"},
		{name: "io library unavailable", script: `io.write("x")`, wantErr: "run script"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h, _ := newHarness(t, tc.script, nil)

			err := Processor{}.Process(context.Background(), h.Context)

			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestProcess_FileLoadersAreUnavailable(t *testing.T) {
	t.Parallel()

	outside := filepath.Join(t.TempDir(), "secret.lua")
	testutil.WriteFiles(t, filepath.Dir(outside), map[string]string{"secret.lua": `return "leaked"`})

	for _, loader := range []string{"dofile", "loadfile"} {
		t.Run(loader, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			script := fmt.Sprintf(`write("x.txt", tostring(%s(%q)))`, loader, outside)
			h, out := newHarness(t, script, nil)

			// --- Act ---
			err := Processor{}.Process(context.Background(), h.Context)

			// --- Assert ---
			require.Error(t, err)
			assert.NoFileExists(t, filepath.Join(out, "x.txt"))
			assert.Equal(t, []string{"tools/transform.lua"}, h.Deps.Inputs())
			assert.Empty(t, h.Deps.Outputs())
		})
	}
}

func TestProcess_NoScript(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, err := asset.New("a.txt", "script")
	require.NoError(t, err)
	h := testutil.NewProcessorHarness(a, t.TempDir(), t.TempDir())

	// --- Act ---
	err = Processor{}.Process(context.Background(), h.Context)

	// --- Assert ---
	require.ErrorIs(t, err, ErrNoScript)
}

func TestProcess_Cancelled(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	h, _ := newHarness(t, `while true do end`, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// --- Act ---
	err := Processor{}.Process(ctx, h.Context)

	// --- Assert ---
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
