// internal/browser/launcher.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vivado-fetch/internal/browser/stealth"
	"github.com/xkilldash9x/vivado-fetch/internal/config"
)

// StartFunc starts a browser with the given allocator options and returns
// the context of its first tab. cancel must release the browser process.
type StartFunc func(ctx context.Context, opts []chromedp.ExecAllocatorOption, timeout time.Duration) (tab context.Context, cancel context.CancelFunc, err error)

// Launcher starts browser sessions.
type Launcher struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
	start  StartFunc
}

// LauncherOption customizes a Launcher.
type LauncherOption func(*Launcher)

// WithStartFunc replaces the function that starts the browser process.
func WithStartFunc(fn StartFunc) LauncherOption {
	return func(l *Launcher) { l.start = fn }
}

// NewLauncher creates a Launcher for the given browser settings.
func NewLauncher(cfg config.BrowserConfig, logger *zap.Logger, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		cfg:    cfg,
		logger: logger.Named("browser"),
		start:  startChrome,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch prepares outputDir and starts a browser that saves downloads there
// without prompting. On failure nothing is left running and the temporary
// profile is removed.
func (l *Launcher) Launch(ctx context.Context, outputDir string) (*Session, error) {
	if err := PrepareOutputDir(outputDir); err != nil {
		return nil, err
	}

	profileDir, err := createProfile(outputDir)
	if err != nil {
		return nil, &LaunchError{Kind: DriverUnavailable, Err: err}
	}

	tabCtx, cancel, err := l.start(ctx, AllocatorOptions(l.cfg, profileDir), l.cfg.LaunchTimeout)
	if err != nil {
		os.RemoveAll(profileDir)
		return nil, &LaunchError{Kind: DriverUnavailable, Err: err}
	}

	sessionID := uuid.New().String()
	s := &Session{
		ctx:         tabCtx,
		cancel:      cancel,
		logger:      l.logger.With(zap.String("session_id", sessionID)),
		profileDir:  profileDir,
		downloadDir: outputDir,
		downloads:   make(map[string]string),
	}

	if err := s.configureDownloads(ctx); err != nil {
		s.Close(context.Background())
		return nil, &LaunchError{Kind: DriverUnavailable, Err: fmt.Errorf("failed to allow downloads: %w", err)}
	}
	if err := s.run(ctx, stealth.Apply(stealth.ForUserAgent(l.cfg.UserAgent), s.logger)); err != nil {
		s.Close(context.Background())
		return nil, &LaunchError{Kind: DriverUnavailable, Err: fmt.Errorf("failed to apply browser persona: %w", err)}
	}

	s.logger.Info("Browser session started.",
		zap.Bool("headless", l.cfg.Headless),
		zap.String("download_dir", outputDir),
	)
	return s, nil
}

// startChrome allocates a local Chrome and waits for the first tab to attach.
func startChrome(ctx context.Context, opts []chromedp.ExecAllocatorOption, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	// The first Run binds the browser lifetime to tabCtx, so the timeout is
	// enforced from outside rather than by deriving a shorter context.
	errCh := make(chan error, 1)
	go func() { errCh <- chromedp.Run(tabCtx) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-errCh:
		if err != nil {
			cancel()
			return nil, nil, classifyStartError(err)
		}
		return tabCtx, cancel, nil
	case <-timer.C:
		cancel()
		return nil, nil, fmt.Errorf("browser did not start within %s", timeout)
	case <-ctx.Done():
		cancel()
		return nil, nil, ctx.Err()
	}
}

func classifyStartError(err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("chrome executable not found (set browser.exec_path): %w", err)
	}
	return fmt.Errorf("failed to start browser: %w", err)
}
