// internal/browser/options.go
package browser

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/vivado-fetch/internal/config"
)

// allocatorFlags assembles the Chrome command line switches for a download
// session.
func allocatorFlags(cfg config.BrowserConfig, profileDir string) map[string]interface{} {
	flags := map[string]interface{}{
		"headless": cfg.Headless,
		// navigator.webdriver and the automation infobar give headless Chrome away.
		"enable-automation":      false,
		"disable-blink-features": "AutomationControlled",
		"disable-extensions":     true,
		// Downloads must never stop on a "dangerous file" interstitial.
		"safebrowsing-disable-download-protection": true,
		"user-data-dir": profileDir,
	}

	if cfg.Headless {
		flags["disable-gpu"] = true
	}
	if cfg.UserAgent != "" {
		flags["user-agent"] = cfg.UserAgent
	}
	if cfg.IgnoreTLSErrors {
		flags["ignore-certificate-errors"] = true
		flags["allow-insecure-localhost"] = true
	}
	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		flags["window-size"] = fmt.Sprintf("%d,%d", w, h)
	}

	// Needed inside containers.
	if runtime.GOOS == "linux" {
		flags["no-sandbox"] = true
		flags["disable-dev-shm-usage"] = true
	}

	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			flags[name] = value
		} else {
			flags[name] = true
		}
	}
	return flags
}

// AllocatorOptions translates the browser settings into chromedp allocator options.
func AllocatorOptions(cfg config.BrowserConfig, profileDir string) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+16)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	// Later flags override the defaults of the same name.
	for name, value := range allocatorFlags(cfg, profileDir) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}
