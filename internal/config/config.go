// Package config loads jt settings from flags, environment variables, a
// .env file and an optional YAML config file.
//
// Precedence, highest first: explicitly set values (flags), environment
// variables, the config file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyJiraURL      = "jira.url"
	KeyJiraEmail    = "jira.email"
	KeyJiraToken    = "jira.api_token"
	KeyJiraTimeout  = "jira.timeout"
	KeyJiraRetries  = "jira.max_retries"
	KeyExportFormat = "export.format"
	KeyExportDir    = "export.dir"
	KeyProjectLimit = "projects.list_limit"
	KeyScanWorkers  = "releases.concurrency"
	KeyWatchConfig  = "menu.watch_config"
)

// envBindings maps keys to the conventional environment variable names
// accepted in addition to the JT_ prefixed form. The first name set wins.
var envBindings = map[string][]string{
	KeyJiraURL:     {"JIRA_URL"},
	KeyJiraEmail:   {"JIRA_EMAIL", "JIRA_USERNAME"},
	KeyJiraToken:   {"JIRA_API_TOKEN"},
	KeyJiraTimeout: {"JIRA_TIMEOUT"},
}

var (
	mu      sync.RWMutex
	v       *viper.Viper
	envPath string

	// dotenvValues remembers what the env file put into the environment so
	// a reload can replace those values without overriding real variables.
	dotenvValues = map[string]string{}
)

// Options controls where Initialize looks for settings.
type Options struct {
	// ConfigFile is an explicit config path. Empty searches ./.jiratool.yaml
	// then $XDG_CONFIG_HOME/jiratool/config.yaml.
	ConfigFile string
	// EnvFile is a dotenv file loaded into the process environment. Empty
	// loads ./.env when present.
	EnvFile string
}

// Initialize (re)builds the configuration. It is safe to call more than once;
// each call starts from a fresh viper instance.
func Initialize(opts Options) error {
	loadedEnv, err := loadEnvFile(opts.EnvFile)
	if err != nil {
		return err
	}

	nv := viper.New()
	nv.SetConfigType("yaml")
	nv.SetEnvPrefix("JT")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	nv.AutomaticEnv()

	nv.SetDefault(KeyJiraURL, "")
	nv.SetDefault(KeyJiraEmail, "")
	nv.SetDefault(KeyJiraToken, "")
	nv.SetDefault(KeyJiraTimeout, 30*time.Second)
	nv.SetDefault(KeyJiraRetries, 0)
	nv.SetDefault(KeyExportFormat, "json")
	nv.SetDefault(KeyExportDir, ".")
	nv.SetDefault(KeyProjectLimit, 20)
	nv.SetDefault(KeyScanWorkers, 1)
	nv.SetDefault(KeyWatchConfig, false)

	for key, names := range envBindings {
		args := append([]string{key, "JT_" + envName(key)}, names...)
		if err := nv.BindEnv(args...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	path := opts.ConfigFile
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		nv.SetConfigFile(path)
		if err := nv.ReadInConfig(); err != nil {
			if opts.ConfigFile != "" || !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	mu.Lock()
	v = nv
	envPath = loadedEnv
	mu.Unlock()
	return nil
}

// loadEnvFile copies the dotenv file into the process environment and
// returns its path, or "" when none was loaded. Variables set outside the
// file win.
func loadEnvFile(path string) (string, error) {
	explicit := path != ""
	if !explicit {
		if _, err := os.Stat(".env"); err != nil {
			return "", nil
		}
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if explicit {
			return "", fmt.Errorf("load env file %s: %w", path, err)
		}
		return "", nil
	}

	mu.Lock()
	defer mu.Unlock()
	for key, value := range values {
		prev, ours := dotenvValues[key]
		if cur, set := os.LookupEnv(key); set && !(ours && cur == prev) {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return "", fmt.Errorf("set %s from %s: %w", key, path, err)
		}
		dotenvValues[key] = value
	}
	return path, nil
}

func findConfigFile() string {
	candidates := []string{".jiratool.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "jiratool", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func envName(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func instance() *viper.Viper {
	mu.RLock()
	cur := v
	mu.RUnlock()
	if cur != nil {
		return cur
	}
	if err := Initialize(Options{}); err != nil {
		mu.Lock()
		if v == nil {
			v = viper.New()
		}
		mu.Unlock()
	}
	mu.RLock()
	defer mu.RUnlock()
	return v
}

// GetString returns a string setting.
func GetString(key string) string {
	return strings.TrimSpace(instance().GetString(key))
}

// GetInt returns an integer setting.
func GetInt(key string) int {
	return instance().GetInt(key)
}

// GetBool returns a boolean setting.
func GetBool(key string) bool {
	return instance().GetBool(key)
}

// GetDuration returns a duration setting. Bare integers are read as seconds.
func GetDuration(key string) time.Duration {
	d := instance().GetDuration(key)
	if d > 0 && d < time.Millisecond {
		// "30" parses as 30ns
		return time.Duration(d.Nanoseconds()) * time.Second
	}
	return d
}

// Set overrides a setting for the rest of the process.
func Set(key string, value interface{}) {
	instance().Set(key, value)
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func ConfigFileUsed() string {
	return instance().ConfigFileUsed()
}

// Files returns the config and env files the settings were read from.
func Files() []string {
	var files []string
	if path := ConfigFileUsed(); path != "" {
		files = append(files, path)
	}
	mu.RLock()
	defer mu.RUnlock()
	if envPath != "" {
		files = append(files, envPath)
	}
	return files
}
