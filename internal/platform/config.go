package platform

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/slotbook/pkg/adapters/fs"
	"github.com/aretw0/slotbook/pkg/booking"
)

// Built-in defaults: data/db.json relative to the working directory,
// 50ms lock polling and a 5s lock timeout.
const (
	DefaultDataPath = "data/db.json"
	DefaultAddr     = ":5000"
	ConfigFileName  = "slotbook.yaml"
)

// Config is the resolved runtime configuration. Sources are applied in
// order: Defaults, a YAML file, SLOTBOOK_* environment variables, then
// command-line flags.
type Config struct {
	DataPath    string        `yaml:"data_path"`
	LockMode    string        `yaml:"lock_mode"`
	LockPoll    time.Duration `yaml:"lock_poll"`
	LockTimeout time.Duration `yaml:"lock_timeout"`

	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	Metrics    bool          `yaml:"metrics"`

	// AdminEmail and AdminPassword seed an administrator on serve when set.
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

func Defaults() Config {
	return Config{
		DataPath:    DefaultDataPath,
		LockMode:    string(fs.LockModeMarker),
		LockPoll:    fs.DefaultPollInterval,
		LockTimeout: fs.DefaultLockTimeout,
		Addr:        DefaultAddr,
		SessionTTL:  booking.DefaultSessionTTL,
		Metrics:     true,
	}
}

// LoadFile overlays the YAML file at path. Keys missing from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays SLOTBOOK_* variables read through lookup (os.LookupEnv
// outside tests).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("SLOTBOOK_DATA_PATH", &c.DataPath)
	str("SLOTBOOK_LOCK_MODE", &c.LockMode)
	dur("SLOTBOOK_LOCK_POLL", &c.LockPoll)
	dur("SLOTBOOK_LOCK_TIMEOUT", &c.LockTimeout)
	str("SLOTBOOK_ADDR", &c.Addr)
	dur("SLOTBOOK_SESSION_TTL", &c.SessionTTL)
	str("SLOTBOOK_ADMIN_EMAIL", &c.AdminEmail)
	str("SLOTBOOK_ADMIN_PASSWORD", &c.AdminPassword)
	if v, ok := lookup("SLOTBOOK_METRICS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SLOTBOOK_METRICS: %w", err))
		} else {
			c.Metrics = b
		}
	}
	return errors.Join(errs...)
}

func (c Config) Validate() error {
	var errs []error
	if c.DataPath == "" {
		errs = append(errs, errors.New("data path is required"))
	}
	if _, err := fs.ParseLockMode(c.LockMode); err != nil {
		errs = append(errs, err)
	}
	if c.LockPoll <= 0 {
		errs = append(errs, errors.New("lock poll interval must be positive"))
	}
	if c.LockTimeout < c.LockPoll {
		errs = append(errs, errors.New("lock timeout must be at least one poll interval"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("admin email and password must be set together"))
	}
	return errors.Join(errs...)
}

// Load resolves defaults, the optional file and the environment. An empty
// file path looks for slotbook.yaml from the working directory upwards.
func Load(file string) (Config, error) {
	cfg := Defaults()
	if file == "" {
		if wd, err := os.Getwd(); err == nil {
			if root, err := FindRoot(wd); err == nil {
				file = configPath(root)
			}
		}
	}
	if file != "" {
		if err := cfg.LoadFile(file); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}
