// Package paths resolves the on-disk locations the console uses.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// AppDir is the directory name under the user's config root.
	AppDir = "agentos"

	CredentialsFile = "credentials.yaml"
	ConfigFileName  = "tracewatch.toml"
)

// ConfigDir returns $XDG_CONFIG_HOME/agentos, falling back to
// ~/.config/agentos when XDG_CONFIG_HOME is unset or relative.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" && filepath.IsAbs(xdg) {
		return filepath.Join(xdg, AppDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppDir), nil
}

// Credentials returns the path of the saved credentials file.
func Credentials() (string, error) {
	return inConfigDir(CredentialsFile)
}

// ConfigFile returns the path of the optional TOML config file.
func ConfigFile() (string, error) {
	return inConfigDir(ConfigFileName)
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
