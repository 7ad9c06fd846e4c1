// Package config handles ghotrack configuration: file paths, API endpoints,
// plan-name aliases, and totals adjustments.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all ghotrack configuration.
type Config struct {
	General  GeneralConfig  `toml:"general"`
	API      APIConfig      `toml:"api"`
	Daemon   DaemonConfig   `toml:"daemon"`
	Totals   TotalsConfig   `toml:"totals"`
	Matching MatchingConfig `toml:"matching"`
}

// GeneralConfig holds input/output paths and the campaign year.
type GeneralConfig struct {
	Year            int    `toml:"year"`
	RequirementsCSV string `toml:"requirements_csv"`
	PeopleCSV       string `toml:"people_csv,omitempty"`
	OutputDir       string `toml:"output_dir"`
}

// APIConfig holds FTS endpoint settings. URLs are templates with a single
// %d verb for the year.
type APIConfig struct {
	OverviewURL string `toml:"overview_url"`
	FlowURL     string `toml:"flow_url"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

// DaemonConfig holds scheduled-run settings.
type DaemonConfig struct {
	Addr          string `toml:"addr"`
	IntervalHours int    `toml:"interval_hours"`
}

// TotalsConfig holds adjustments applied to the requirement sum only.
// Overlapping appeals (a plan counted inside another plan's requirement)
// are deducted so the aggregate is not double-counted.
type TotalsConfig struct {
	OverlapDeductions map[string]int64 `toml:"overlap_deductions,omitempty"`
}

// MatchingConfig maps spreadsheet plan names to FTS API short names where
// the two disagree.
type MatchingConfig struct {
	Aliases map[string]string `toml:"aliases,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Year:            2026,
			RequirementsCSV: "prioritized_requirements.csv",
			PeopleCSV:       "people_data.csv",
			OutputDir:       "output",
		},
		API: APIConfig{
			OverviewURL: "https://api.hpc.tools/v2/public/plan/overview/%d",
			FlowURL:     "https://api.hpc.tools/v1/public/fts/flow?year=%d&groupby=plan",
			TimeoutSecs: 30,
		},
		Daemon: DaemonConfig{
			Addr:          "127.0.0.1:8686",
			IntervalHours: 24,
		},
		Totals: TotalsConfig{
			OverlapDeductions: map[string]int64{
				"Horn of Africa to Yemen and Southern Africa (MRP)": 19_138_004,
				"Sudan (RRP)": 575_662_771,
			},
		},
		Matching: MatchingConfig{
			Aliases: map[string]string{
				"Democratic Republic of the Congo": "DRC",
				"Occupied Palestinian Territory":   "oPt",
				"Syrian Arab Republic":             "Syria",
				"Horn of Africa to Yemen and Southern Africa (MRP)": "Horn of Africa",
			},
		},
	}
}

// OverviewURL returns the plan overview endpoint for the configured year,
// honoring the GHOTRACK_API_URL override.
func (c Config) OverviewURL() string {
	if env := os.Getenv("GHOTRACK_API_URL"); env != "" {
		return env
	}
	return fmt.Sprintf(c.API.OverviewURL, c.General.Year)
}

// FlowURL returns the flow endpoint for the configured year, honoring the
// GHOTRACK_FLOW_URL override.
func (c Config) FlowURL() string {
	if env := os.Getenv("GHOTRACK_FLOW_URL"); env != "" {
		return env
	}
	return fmt.Sprintf(c.API.FlowURL, c.General.Year)
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ghotrack")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ghotrack")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Alias and deduction tables from the file are merged over the defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	var fileCfg Config
	if err := toml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	merge(&cfg, fileCfg)

	return cfg, nil
}

func merge(dst *Config, src Config) {
	if src.General.Year != 0 {
		dst.General.Year = src.General.Year
	}
	if src.General.RequirementsCSV != "" {
		dst.General.RequirementsCSV = src.General.RequirementsCSV
	}
	if src.General.PeopleCSV != "" {
		dst.General.PeopleCSV = src.General.PeopleCSV
	}
	if src.General.OutputDir != "" {
		dst.General.OutputDir = src.General.OutputDir
	}
	if src.API.OverviewURL != "" {
		dst.API.OverviewURL = src.API.OverviewURL
	}
	if src.API.FlowURL != "" {
		dst.API.FlowURL = src.API.FlowURL
	}
	if src.API.TimeoutSecs != 0 {
		dst.API.TimeoutSecs = src.API.TimeoutSecs
	}
	if src.Daemon.Addr != "" {
		dst.Daemon.Addr = src.Daemon.Addr
	}
	if src.Daemon.IntervalHours != 0 {
		dst.Daemon.IntervalHours = src.Daemon.IntervalHours
	}
	for name, amount := range src.Totals.OverlapDeductions {
		dst.Totals.OverlapDeductions[name] = amount
	}
	for name, short := range src.Matching.Aliases {
		dst.Matching.Aliases[name] = short
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
