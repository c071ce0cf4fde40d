package config

import (
	"os"
	"path/filepath"

	"github.com/klauern/hubhooks/internal/constants"
)

// XDGConfig handles XDG Base Directory Specification compliant configuration
type XDGConfig struct {
	BaseDir string
}

// NewXDGConfig creates a new XDG configuration manager
func NewXDGConfig() *XDGConfig {
	baseDir := os.Getenv("XDG_CONFIG_HOME")
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			// Fallback to current directory if home directory cannot be determined
			baseDir = ".config"
		} else {
			baseDir = filepath.Join(homeDir, ".config")
		}
	}

	return &XDGConfig{
		BaseDir: filepath.Join(baseDir, constants.ConfigDirName),
	}
}

// GetConfigDir returns the XDG configuration directory for hubhooks
func (x *XDGConfig) GetConfigDir() string {
	return x.BaseDir
}

// GetConfigPath returns the path of the default configuration file
func (x *XDGConfig) GetConfigPath() string {
	return filepath.Join(x.BaseDir, constants.ConfigFileName)
}

// ResolveConfigPath returns explicit when set, otherwise the XDG config
// file if one exists. An empty result means "defaults only".
func (x *XDGConfig) ResolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(x.GetConfigPath()); err == nil {
		return x.GetConfigPath()
	}
	return ""
}
