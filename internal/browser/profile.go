package browser

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// preferences is the Chrome "Default/Preferences" document for a throwaway profile.
// Downloads land in downloadDir without a prompt and without safe-browsing checks.
func preferences(downloadDir string) map[string]interface{} {
	return map[string]interface{}{
		"download": map[string]interface{}{
			"default_directory":   downloadDir,
			"prompt_for_download": false,
			"directory_upgrade":   true,
		},
		"safebrowsing": map[string]interface{}{
			"enabled":                     true,
			"disable_download_protection": true,
		},
		"profile": map[string]interface{}{
			"default_content_setting_values": map[string]interface{}{
				"automatic_downloads": 1,
			},
		},
		"plugins": map[string]interface{}{
			"always_open_pdf_externally": true,
		},
	}
}

// createProfile makes a temporary user-data-dir seeded with download
// preferences. The caller owns the returned directory.
func createProfile(downloadDir string) (string, error) {
	dir, err := os.MkdirTemp("", "vivado-fetch-profile-*")
	if err != nil {
		return "", fmt.Errorf("failed to create browser profile directory: %w", err)
	}

	data, err := json.MarshalIndent(preferences(downloadDir), "", "  ")
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to encode browser preferences: %w", err)
	}

	defaultDir := filepath.Join(dir, "Default")
	if err := os.MkdirAll(defaultDir, 0o700); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to create default profile: %w", err)
	}
	if err := os.WriteFile(filepath.Join(defaultDir, "Preferences"), data, 0o600); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("failed to write browser preferences: %w", err)
	}
	return dir, nil
}

// PrepareOutputDir creates dir if needed and proves it accepts new files.
func PrepareOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &LaunchError{Kind: DirUnwritable, Path: dir, Err: err}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return &LaunchError{Kind: DirUnwritable, Path: dir, Err: err}
	}
	if !info.IsDir() {
		return &LaunchError{Kind: DirUnwritable, Path: dir, Err: fmt.Errorf("not a directory")}
	}

	probe, err := os.CreateTemp(dir, ".vivado-fetch-probe-*")
	if err != nil {
		return &LaunchError{Kind: DirUnwritable, Path: dir, Err: err}
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		return &LaunchError{Kind: DirUnwritable, Path: dir, Err: err}
	}
	return nil
}
