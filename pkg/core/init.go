package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FolderName is the per-project directory holding config, saved requests,
// environments and history.
const FolderName = ".courier"

// InitializeFolder creates dir with default files if it doesn't exist and
// fills in any missing subdirectories. Progress is written to out.
func InitializeFolder(dir string, out io.Writer) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Fprintf(out, "Initializing %s folder for the first time...\n", dir)

		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s folder: %w", dir, err)
		}

		if err := createDefaultConfig(dir); err != nil {
			return err
		}

		if err := createDefaultEnvironment(dir); err != nil {
			return err
		}

		fmt.Fprintf(out, "✓ %s folder initialized\n", dir)
	}

	// Ensure subdirectories exist (for folders created by older versions)
	for _, sub := range []string{"requests", "collections", "environments"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("failed to create %s folder: %w", sub, err)
		}
	}

	return nil
}

// createDefaultEnvironment creates a default dev environment file
func createDefaultEnvironment(dir string) error {
	envContent := `# Development environment
# Add your variables here, e.g.:
# BASE_URL: http://localhost:3000
# API_TOKEN: "{{env:API_TOKEN}}"
`
	envDir := filepath.Join(dir, "environments")
	if err := os.MkdirAll(envDir, 0755); err != nil {
		return fmt.Errorf("failed to create environments folder: %w", err)
	}
	if err := os.WriteFile(filepath.Join(envDir, "dev.yaml"), []byte(envContent), 0644); err != nil {
		return fmt.Errorf("failed to write dev environment: %w", err)
	}
	return nil
}

// createDefaultConfig creates a default configuration file
func createDefaultConfig(dir string) error {
	config := map[string]any{
		"timeout":        "30s",
		"script_timeout": "5s",
		"api_key_header": "X-API-Key",
		"user":           "",
		"environment":    "dev",
		"log_level":      "warn",
		"history": map[string]any{
			"enabled": true,
			"path":    filepath.Join(dir, "history.db"),
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
