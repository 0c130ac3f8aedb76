package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// GlobalConfig is the per-user CLI configuration stored in config.json
type GlobalConfig struct {
	APIURL string `json:"api_url"`
}

// configPathFunc is swapped out by tests.
var configPathFunc = func() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, "notesqa", "config.json"), nil
}

// GetConfigDir returns the directory holding config.json.
func GetConfigDir() (string, error) {
	path, err := configPathFunc()
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

func GetConfigPath() (string, error) {
	return configPathFunc()
}

// LoadGlobalConfig returns nil, nil when no config has been saved.
func LoadGlobalConfig() (*GlobalConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config GlobalConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveGlobalConfig writes config readable only by the current user.
func SaveGlobalConfig(config *GlobalConfig) error {
	if config == nil {
		return errors.New("config cannot be nil")
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func DeleteGlobalConfig() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.Remove(configPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}

	return nil
}

// ConfigCmd creates the config parent command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Store, show or clear the API URL kept in ~/.config/notesqa/config.json",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set-url <url>",
		Short: "Store the API URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := NewAPIClientWithURL(args[0]); err != nil {
				return err
			}
			if err := SaveGlobalConfig(&GlobalConfig{APIURL: args[0]}); err != nil {
				return err
			}
			path, _ := GetConfigPath()
			fmt.Fprintf(cmd.OutOrStdout(), "API URL saved to %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the API URL in effect and where it came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, source, err := resolveAPIURL(cmd)
			if err != nil {
				return err
			}
			api, err := NewAPIClientWithURL(baseURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", api.baseURL, source)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove stored configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return DeleteGlobalConfig()
		},
	})

	return cmd
}
