package cli

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setevik/crashtriage/internal/report"
)

var (
	jdk8Log  = filepath.Join("..", "fatallog", "testdata", "hs_err_jdk8.log")
	jdk11Log = filepath.Join("..", "fatallog", "testdata", "hs_err_jdk11.log")
)

type result struct {
	code   int
	stdout string
	stderr string
}

// run executes the CLI with an isolated config file.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "absent.toml")
	return runWithConfig(t, cfg, stdin, args...)
}

func runWithConfig(t *testing.T, cfgPath, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append(args, "--config", cfgPath)
	code := Run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "crashtriage", cmd.Use)

	for _, flag := range []string{"config", "format", "verbose", "log-level", "db"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"analyze", "history", "rules", "version"}, names)
}

func TestVersion(t *testing.T) {
	r := run(t, "", "version")
	assert.Equal(t, ExitOK, r.code)
	assert.Equal(t, "crashtriage dev\n", r.stdout)
}

func TestAnalyzeFileWithProblems(t *testing.T) {
	r := run(t, "", "analyze", jdk8Log)

	assert.Equal(t, ExitProblems, r.code, r.stderr)
	assert.Contains(t, r.stdout, "=== crashtriage: "+jdk8Log+" ===")
	assert.Contains(t, r.stdout, "[WARNING] AGENT_YOURKIT")
	assert.Contains(t, r.stdout, "Summary: 0 critical, 4 warning, 5 info")
	assert.NotContains(t, r.stdout, "First occurrence", "store is disabled by default")
}

func TestAnalyzeCleanStdin(t *testing.T) {
	r := run(t, "uname:Linux 5.15.0 #1 SMP x86_64\nEND.\n", "analyze", "-")

	assert.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "=== crashtriage: stdin ===")
	assert.Contains(t, r.stdout, "No findings")
}

func TestAnalyzeDefaultsToStdin(t *testing.T) {
	r := run(t, "END.\n", "analyze")
	assert.Equal(t, ExitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "crashtriage: stdin")
}

func TestAnalyzeGzip(t *testing.T) {
	data, err := os.ReadFile(jdk11Log)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hs_err_pid1.log.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r := run(t, "", "analyze", path)
	assert.Equal(t, ExitProblems, r.code, r.stderr)
	assert.Contains(t, r.stdout, "[WARNING] SIGBUS")
}

func TestAnalyzeJSON(t *testing.T) {
	r := run(t, "", "analyze", jdk11Log, "--format", "json")
	require.Equal(t, ExitProblems, r.code, r.stderr)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &rep))
	assert.Equal(t, "11.0.7", rep.Crash.Version)
	assert.Equal(t, "unavailable", rep.System.MaxMapCount)
	require.Len(t, rep.Findings, 8)
	assert.Equal(t, "JAVA_HEAP_OOM", rep.Findings[0].Code)
}

func TestAnalyzeYAML(t *testing.T) {
	r := run(t, "", "analyze", jdk8Log, "-o", "yaml")
	require.Equal(t, ExitProblems, r.code, r.stderr)
	assert.Contains(t, r.stdout, "version: 8u252")
	assert.Contains(t, r.stdout, "code: AGENT_YOURKIT")
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		errText string
	}{
		{"missing file", []string{"analyze", filepath.Join(t.TempDir(), "nope.log")}, "opening log"},
		{"bad format", []string{"analyze", jdk8Log, "--format", "html"}, "report.format"},
		{"bad log level", []string{"analyze", jdk8Log, "--log-level", "loud"}, "unknown log level"},
		{"too many args", []string{"analyze", jdk8Log, jdk11Log}, "accepts at most 1 arg"},
		{"unknown command", []string{"explain"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, "", tt.args...)
			assert.Equal(t, ExitError, r.code)
			assert.Contains(t, r.stderr, tt.errText)
		})
	}
}

func TestAnalyzeConfigDisablesRules(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
[analysis]
parallelism = 4
disabled = ["SIGBUS", "LIB_JNA"]
`), 0o600))

	r := runWithConfig(t, cfg, "", "analyze", jdk11Log)
	assert.Equal(t, ExitProblems, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Findings (6):")
	assert.NotContains(t, r.stdout, "[WARNING] SIGBUS\n")
	assert.NotContains(t, r.stdout, "LIB_JNA")
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	first := run(t, "", "analyze", jdk8Log, "--db", db)
	require.Equal(t, ExitProblems, first.code, first.stderr)
	assert.Contains(t, first.stdout, "First occurrence of this crash in the last 30d")

	second := run(t, "", "analyze", jdk8Log, "--db", db)
	require.Equal(t, ExitProblems, second.code, second.stderr)
	assert.Contains(t, second.stdout, "Seen 1 time(s) before in the last 30d")

	other := run(t, "", "analyze", jdk11Log, "--db", db)
	require.Equal(t, ExitProblems, other.code, other.stderr)
	assert.Contains(t, other.stdout, "First occurrence")

	t.Run("list", func(t *testing.T) {
		r := run(t, "", "history", "--db", db)
		require.Equal(t, ExitOK, r.code, r.stderr)
		assert.Contains(t, r.stdout, "C libyjpagent.so yjp_sample")
		assert.Contains(t, r.stdout, "V libjvm.so PerfMemory::create_memory_region(unsigned long)")
		assert.Contains(t, r.stdout, "Total: 3 run(s)")
		// Newest first.
		assert.Less(t, strings.Index(r.stdout, "11.0.7"), strings.Index(r.stdout, "8u252"))
	})

	t.Run("code filter", func(t *testing.T) {
		r := run(t, "", "history", "--db", db, "--code", "agent_yourkit")
		require.Equal(t, ExitOK, r.code, r.stderr)
		assert.Contains(t, r.stdout, "Total: 2 run(s)")
		assert.NotContains(t, r.stdout, "11.0.7")
	})

	t.Run("no match", func(t *testing.T) {
		r := run(t, "", "history", "--db", db, "--code", "NATIVE_OOM")
		require.Equal(t, ExitOK, r.code, r.stderr)
		assert.Equal(t, "No runs found.\n", r.stdout)
	})

	t.Run("limit", func(t *testing.T) {
		r := run(t, "", "history", "--db", db, "--limit", "1")
		require.Equal(t, ExitOK, r.code, r.stderr)
		assert.Contains(t, r.stdout, "Total: 1 run(s)")
	})

	t.Run("digest", func(t *testing.T) {
		r := run(t, "", "history", "--db", db, "--digest", "--last", "7d")
		require.Equal(t, ExitOK, r.code, r.stderr)
		assert.Contains(t, r.stdout, "=== crashtriage digest ===")
		assert.Contains(t, r.stdout, "Runs:        3 (0 critical, 3 warning, 0 info only)")
		assert.Contains(t, r.stdout, "8u252 ×2, 11.0.7 ×1")
		assert.Contains(t, r.stdout, "AGENT_YOURKIT")
		assert.Contains(t, r.stdout, "JDK_RELEASE_STALE")
	})
}

func TestHistoryInvalidFlags(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	r := run(t, "", "history", "--db", db, "--last", "forever")
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.stderr, "invalid --last value")

	r = run(t, "", "history", "--db", db, "--limit", "-1")
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.stderr, "invalid --limit value")
}

func TestHistoryEmpty(t *testing.T) {
	r := run(t, "", "history", "--db", filepath.Join(t.TempDir(), "history.db"))
	assert.Equal(t, ExitOK, r.code, r.stderr)
	assert.Equal(t, "No runs found.\n", r.stdout)
}

func TestRules(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[analysis]\ndisabled = [\"LIB_JNA\"]\n"), 0o600))

	r := runWithConfig(t, cfg, "", "rules")
	require.Equal(t, ExitOK, r.code, r.stderr)

	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "CODE"))
	assert.True(t, strings.HasPrefix(lines[1], "NATIVE_OOM"), "catalog order starts with NATIVE_OOM: %q", lines[1])
	assert.Contains(t, lines[1], "critical")

	var jna string
	for _, l := range lines {
		if strings.HasPrefix(l, "LIB_JNA") {
			jna = l
		}
	}
	assert.Contains(t, jna, "(disabled)")
}

func TestWindowText(t *testing.T) {
	assert.Equal(t, "30d", windowText(30*24*time.Hour))
	assert.Equal(t, "36h0m0s", windowText(36*time.Hour))
	assert.Equal(t, "0s", windowText(0))
}

func TestAnalyzeNotifiesNewCrashes(t *testing.T) {
	var titles []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.Header.Get("Title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
[instance]
id = "build-07"

[store]
enabled = true
path = "`+filepath.Join(dir, "history.db")+`"

[ntfy]
url = "`+server.URL+`"
`), 0o600))

	for range 2 {
		r := runWithConfig(t, cfg, "", "analyze", jdk8Log)
		require.Equal(t, ExitProblems, r.code, r.stderr)
	}

	require.Len(t, titles, 1, "only the first occurrence is pushed")
	assert.Contains(t, titles[0], "[build-07] SIGSEGV in C libyjpagent.so yjp_sample")
}
