// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
	"github.com/xkilldash9x/vivado-fetch/internal/browser"
	"github.com/xkilldash9x/vivado-fetch/internal/config"
	"github.com/xkilldash9x/vivado-fetch/internal/navigator"
	"github.com/xkilldash9x/vivado-fetch/internal/observability"
)

func TestMain(m *testing.M) {
	// Keep test output quiet; later initializations are no-ops.
	observability.Initialize(config.LoggerConfig{Level: "fatal", Format: "console"}, zapcore.AddSync(io.Discard))
	os.Exit(m.Run())
}

const testConfig = `
logger:
  level: fatal
vendor:
  downloads_url: https://www.example.com/downloads.html
download:
  progress: false
`

type harness struct {
	t        *testing.T
	site     *stubSite
	outDir   string
	cfgFile  string
	clock    *stepClock
	launched *config.Config
	outcome  *schemas.DownloadOutcome
	launches int
	stdout   bytes.Buffer
	launch   LaunchFunc
}

func newHarness(t *testing.T) *harness {
	base := t.TempDir()
	h := &harness{
		t:       t,
		outDir:  filepath.Join(base, "out"),
		cfgFile: filepath.Join(base, "vivado-fetch.yaml"),
		clock:   &stepClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, os.WriteFile(h.cfgFile, []byte(testConfig), 0o644))
	h.site = newStubSite(h.outDir)
	h.launch = func(ctx context.Context, cfg *config.Config, outputDir string, logger *zap.Logger) (Session, error) {
		h.launches++
		h.launched = cfg
		if err := browser.PrepareOutputDir(outputDir); err != nil {
			return nil, err
		}
		return h.site, nil
	}
	return h
}

func (h *harness) command(args ...string) *cobra.Command {
	deps := Dependencies{
		Launch:    func(ctx context.Context, cfg *config.Config, dir string, l *zap.Logger) (Session, error) { return h.launch(ctx, cfg, dir, l) },
		Prompter:  func(*cobra.Command) navigator.Prompter { return refusingPrompter{} },
		Clock:     h.clock,
		Home:      func() (string, error) { return h.outDir, nil },
		OnOutcome: func(o schemas.DownloadOutcome) { h.outcome = &o },
	}
	c := NewRootCommand(deps)
	c.SetOut(&h.stdout)
	c.SetErr(io.Discard)
	c.SetArgs(append([]string{"-c", h.cfgFile}, args...))
	return c
}

func (h *harness) execute(args ...string) error {
	return h.command(args...).ExecuteContext(context.Background())
}

func TestRunDownloadsInstaller(t *testing.T) {
	h := newHarness(t)
	h.clock.onSleep = func(elapsed time.Duration) {
		if elapsed == 3*time.Second {
			require.NoError(t, h.site.finish())
		}
	}

	err := h.execute("-v", "2024.1", "-o", h.outDir, "-t", "30", "-f", "1")

	require.NoError(t, err)
	assert.Equal(t, ExitOK, ExitCode(err))
	require.NotNil(t, h.outcome)
	assert.Equal(t, schemas.ReasonOK, h.outcome.Reason)
	assert.Equal(t, []string{filepath.Join(h.outDir, "installer.bin")}, h.outcome.FilePaths)
	assert.Contains(t, h.stdout.String(), "File saved to "+filepath.Join(h.outDir, "installer.bin"))
	assert.Equal(t, 1, h.site.closed)
	assert.False(t, h.site.closeDeadline.IsZero(), "browser shutdown must be bounded")
}

func TestRunVersionNotFound(t *testing.T) {
	h := newHarness(t)

	err := h.execute("-v", "9999.9", "-o", h.outDir, "-t", "30")

	var navErr *navigator.NavError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, navigator.VersionNotFound, navErr.Kind)
	assert.Equal(t, ExitVersionNotFound, ExitCode(err))
	assert.False(t, h.site.submitted, "no download may be attempted")
	assert.Nil(t, h.outcome)
	assert.Equal(t, 1, h.site.closed)

	entries, err := os.ReadDir(h.outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunTimeout(t *testing.T) {
	h := newHarness(t)

	err := h.execute("-v", "2024.1", "-o", h.outDir, "-t", "2", "-f", "web installer")

	var outErr *OutcomeError
	require.ErrorAs(t, err, &outErr)
	assert.Equal(t, ExitTimeout, ExitCode(err))
	assert.Equal(t, []string{filepath.Join(h.outDir, "installer.bin.crdownload")}, outErr.Outcome.FilePaths)
	assert.Equal(t, 2*time.Second, h.clock.elapsed)
	assert.Equal(t, 1, h.site.closed)
	assert.Contains(t, StatusLine(err), "TIMEOUT")
}

func TestRunArgErrorsStartNoBrowser(t *testing.T) {
	tests := []struct {
		name string
		args []string
		kind config.ArgErrorKind
	}{
		{"missing version", []string{"-o", "/tmp/out"}, config.MissingVersion},
		{"malformed version", []string{"-v", "latest"}, config.InvalidVersion},
		{"non numeric timeout", []string{"-v", "2024.1", "-t", "soon"}, config.InvalidTimeout},
		{"negative timeout", []string{"-v", "2024.1", "-t", "-5"}, config.InvalidTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			err := h.execute(tt.args...)

			var argErr *config.ArgError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, tt.kind, argErr.Kind)
			assert.Equal(t, ExitArgError, ExitCode(err))
			assert.Zero(t, h.launches)
		})
	}
}

func TestRunLaunchError(t *testing.T) {
	h := newHarness(t)
	h.launch = func(ctx context.Context, cfg *config.Config, dir string, l *zap.Logger) (Session, error) {
		return nil, &browser.LaunchError{Kind: browser.DriverUnavailable, Err: errors.New("chrome not found")}
	}

	err := h.execute("-v", "2024.1")
	assert.Equal(t, ExitLaunchError, ExitCode(err))
	assert.Contains(t, StatusLine(err), "DRIVER_UNAVAILABLE")
}

func TestRunPageUnreachable(t *testing.T) {
	h := newHarness(t)
	// The stub does not serve this listing.
	t.Setenv("VIVADO_FETCH_VENDOR_DOWNLOADS_URL", "https://unreachable.example.com/")

	err := h.execute("-v", "2024.1", "-o", h.outDir)
	assert.Equal(t, ExitPageUnreachable, ExitCode(err))
	assert.Equal(t, 1, h.site.closed)
}

func TestRootFlagsReachConfig(t *testing.T) {
	h := newHarness(t)
	h.launch = func(ctx context.Context, cfg *config.Config, dir string, l *zap.Logger) (Session, error) {
		h.launched = cfg
		return nil, &browser.LaunchError{Kind: browser.DriverUnavailable, Err: errors.New("stop here")}
	}

	_ = h.execute("-v", "2024.1", "--headful")
	require.NotNil(t, h.launched)
	assert.False(t, h.launched.Browser.Headless)
	assert.Equal(t, stubDownloads, h.launched.Vendor.DownloadsURL)
	assert.False(t, h.launched.Download.Progress)
	assert.Equal(t, "fatal", h.launched.Logger.Level)

	_ = h.execute("-v", "2024.1", "--debug")
	assert.Equal(t, "debug", h.launched.Logger.Level)
}

func TestRootInvalidConfigFile(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.cfgFile, []byte("vendor:\n  login_marker: \"\"\n"), 0o644))

	err := h.execute("-v", "2024.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vendor.login_marker")
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Zero(t, h.launches)
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	c := NewRootCommand(Dependencies{})
	c.SetOut(&h.stdout)
	c.SetArgs([]string{"version"})

	require.NoError(t, c.ExecuteContext(context.Background()))
	assert.Equal(t, "vivado-fetch "+Version+"\n", h.stdout.String())
}

func TestExecutePrintsOneStatusLine(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness(t)
		h.clock.onSleep = func(elapsed time.Duration) {
			if elapsed == time.Second {
				require.NoError(t, h.site.finish())
			}
		}
		var stderr bytes.Buffer
		c := h.command("-v", "2024.1", "-o", h.outDir, "-f", "1")
		c.SetErr(&stderr)

		require.NoError(t, execute(context.Background(), c))
		assert.Equal(t, "OK: download complete\n", stderr.String())
	})

	t.Run("failure", func(t *testing.T) {
		h := newHarness(t)
		var stderr bytes.Buffer
		c := h.command("-v", "9999.9", "-o", h.outDir)
		c.SetErr(&stderr)

		require.Error(t, execute(context.Background(), c))
		assert.Equal(t, 1, strings.Count(stderr.String(), "\n"))
		assert.True(t, strings.HasPrefix(stderr.String(), "VERSION_NOT_FOUND: "), stderr.String())
	})

	t.Run("version subcommand", func(t *testing.T) {
		h := newHarness(t)
		var stderr bytes.Buffer
		c := NewRootCommand(Dependencies{})
		c.SetOut(&h.stdout)
		c.SetErr(&stderr)
		c.SetArgs([]string{"version"})

		require.NoError(t, execute(context.Background(), c))
		assert.Empty(t, stderr.String())
	})
}

func TestExitCodeAndStatusLine(t *testing.T) {
	canceledLogin := &navigator.NavError{Kind: navigator.LoginFailed, Step: "authenticate", Detail: "no credentials", Err: context.Canceled}
	tests := []struct {
		name   string
		err    error
		code   int
		prefix string
	}{
		{"ok", nil, ExitOK, "OK: download complete"},
		{"arg", &config.ArgError{Kind: config.MissingVersion, Detail: "-v/--version is required"}, ExitArgError, "ARG_ERROR: "},
		{"launch", &browser.LaunchError{Kind: browser.DirUnwritable, Path: "/x", Err: os.ErrPermission}, ExitLaunchError, "LAUNCH_ERROR DIR_UNWRITABLE: "},
		{"unreachable", &navigator.NavError{Kind: navigator.PageUnreachable}, ExitPageUnreachable, "PAGE_UNREACHABLE: "},
		{"login", &navigator.NavError{Kind: navigator.LoginFailed}, ExitLoginFailed, "LOGIN_FAILED: "},
		{"not found", &navigator.NavError{Kind: navigator.VersionNotFound}, ExitVersionNotFound, "VERSION_NOT_FOUND: "},
		{"timeout", &OutcomeError{Outcome: schemas.Failed(schemas.ReasonTimeout, []string{"/x/a.crdownload"})}, ExitTimeout, "TIMEOUT: 1 partial file(s)"},
		{"timeout empty", &OutcomeError{Outcome: schemas.Failed(schemas.ReasonTimeout, nil)}, ExitTimeout, "TIMEOUT: no file was downloaded"},
		{"interrupted prompt", canceledLogin, ExitFailure, "CANCELED: interrupted"},
		{"other", errors.New("boom"), ExitFailure, "ERROR: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ExitCode(tt.err))
			assert.True(t, strings.HasPrefix(StatusLine(tt.err), tt.prefix), StatusLine(tt.err))
		})
	}
}
