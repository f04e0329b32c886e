// internal/browser/launcher_test.go
package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/vivado-fetch/internal/config"
)

func TestLaunchStartFailure(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	var gotTimeout time.Duration
	start := func(ctx context.Context, opts []chromedp.ExecAllocatorOption, timeout time.Duration) (context.Context, context.CancelFunc, error) {
		gotTimeout = timeout
		assert.NotEmpty(t, opts)
		return nil, nil, errors.New("no chrome here")
	}

	cfg := config.NewDefaultConfig().Browser
	l := NewLauncher(cfg, zaptest.NewLogger(t), WithStartFunc(start))

	sess, err := l.Launch(context.Background(), filepath.Join(t.TempDir(), "out"))
	assert.Nil(t, sess)

	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, DriverUnavailable, launchErr.Kind)
	assert.Contains(t, err.Error(), "no chrome here")
	assert.Equal(t, cfg.LaunchTimeout, gotTimeout)

	// The temporary profile does not outlive the failed launch.
	leftovers, err := filepath.Glob(filepath.Join(tmp, "vivado-fetch-profile-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestLaunchUnwritableDir(t *testing.T) {
	called := false
	start := func(ctx context.Context, opts []chromedp.ExecAllocatorOption, timeout time.Duration) (context.Context, context.CancelFunc, error) {
		called = true
		return nil, nil, errors.New("unreachable")
	}
	l := NewLauncher(config.BrowserConfig{}, zaptest.NewLogger(t), WithStartFunc(start))

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := l.Launch(context.Background(), file)
	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, DirUnwritable, launchErr.Kind)
	assert.False(t, called, "browser must not start when the directory is unusable")
}

func TestClassifyStartError(t *testing.T) {
	err := classifyStartError(&os.PathError{Op: "exec", Path: "chrome", Err: os.ErrNotExist})
	assert.Contains(t, err.Error(), "exec_path")

	err = classifyStartError(errors.New("boom"))
	assert.Contains(t, err.Error(), "failed to start browser")
}

func TestCombineContext(t *testing.T) {
	type key struct{}
	primary := context.WithValue(context.Background(), key{}, "target")
	secondary, cancelSecondary := context.WithCancel(context.Background())

	combined, cancel := CombineContext(primary, secondary)
	defer cancel()
	assert.Equal(t, "target", combined.Value(key{}))

	cancelSecondary()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context was not canceled with the secondary")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	profile := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s := &Session{
		ctx:        ctx,
		cancel:     func() { calls++; cancel() },
		logger:     zaptest.NewLogger(t),
		profileDir: profile,
		downloads:  map[string]string{},
	}

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, calls)
	_, err := os.Stat(profile)
	assert.True(t, os.IsNotExist(err))
}
