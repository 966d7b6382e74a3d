package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete archpm configuration.
type Config struct {
	General  GeneralConfig  `toml:"general"`
	AUR      AURConfig      `toml:"aur"`
	Poll     PollConfig     `toml:"poll"`
	Server   ServerConfig   `toml:"server"`
	Output   OutputConfig   `toml:"output"`
	Featured FeaturedConfig `toml:"featured"`
}

// GeneralConfig contains general archpm settings.
type GeneralConfig struct {
	// SourcePriority defines the order in which repositories are listed.
	// Values are repository names ("core", "extra", ...), "native" for any
	// other sync repository, and "aur".
	SourcePriority []string `toml:"source_priority"`

	// AURHelper specifies which AUR helper to use (yay, paru). Empty picks
	// the first one installed.
	AURHelper string `toml:"aur_helper"`

	// Elevate is the program used to run transactions as root
	// (pkexec, sudo, doas).
	Elevate string `toml:"elevate"`

	// PacmanConf is the pacman configuration used to register sync databases.
	PacmanConf string `toml:"pacman_conf"`

	// FallbackRepos are registered when PacmanConf cannot be parsed.
	FallbackRepos []string `toml:"fallback_repos"`

	// AutoConfirm skips confirmation prompts when true (like -y flag).
	AutoConfirm bool `toml:"auto_confirm"`

	// DryRun shows what would happen without executing when true.
	DryRun bool `toml:"dry_run"`
}

// AURConfig contains AUR RPC settings.
type AURConfig struct {
	BaseURL  string   `toml:"base_url"`
	Timeout  Duration `toml:"timeout"`
	CacheTTL Duration `toml:"cache_ttl"`
}

// PollConfig contains the refresh intervals of the interactive views.
type PollConfig struct {
	Installed Duration `toml:"installed"`
	Check     Duration `toml:"check"`
	Updates   Duration `toml:"updates"`
}

// ServerConfig contains HTTP bridge settings.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Unicode enables unicode symbols in output.
	Unicode bool `toml:"unicode"`

	// Verbose enables detailed output.
	Verbose bool `toml:"verbose"`

	// Format is the default listing format: table, json or yaml.
	Format string `toml:"format"`
}

// FeaturedConfig lists the packages shown on the home view.
type FeaturedConfig struct {
	Packages []string `toml:"packages"`
}

// Duration is a time.Duration that reads and writes as a string ("5s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			SourcePriority: []string{"core", "extra", "native", "aur"},
			AURHelper:      "",
			Elevate:        "pkexec",
			PacmanConf:     "/etc/pacman.conf",
			FallbackRepos:  []string{"core", "extra"},
			AutoConfirm:    false,
			DryRun:         false,
		},
		AUR: AURConfig{
			BaseURL:  "https://aur.archlinux.org/rpc/v5",
			Timeout:  Duration{30 * time.Second},
			CacheTTL: Duration{10 * time.Minute},
		},
		Poll: PollConfig{
			Installed: Duration{5 * time.Second},
			Check:     Duration{3 * time.Second},
			Updates:   Duration{5 * time.Second},
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8642",
		},
		Output: OutputConfig{
			Color:   true,
			Unicode: true,
			Verbose: false,
			Format:  "table",
		},
		Featured: FeaturedConfig{
			Packages: []string{
				"firefox",
				"gimp",
				"vlc",
				"visual-studio-code-bin",
				"libreoffice-fresh",
				"blender",
				"zed",
			},
		},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}
