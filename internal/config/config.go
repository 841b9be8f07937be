package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hnrobert/teamlogin/internal/directory"
	"github.com/hnrobert/teamlogin/internal/hostfs"
	"github.com/hnrobert/teamlogin/internal/identity"
	"github.com/hnrobert/teamlogin/internal/keystore"
	"github.com/hnrobert/teamlogin/internal/reconcile"
	"github.com/hnrobert/teamlogin/internal/usercmd"
)

// EnvPrefix is the prefix of environment overrides, e.g. TEAM_LOGIN_KEY_DIR.
const EnvPrefix = "TEAM_LOGIN"

type Config struct {
	TeamURL   string `yaml:"team_url" split_words:"true"`
	KeysURL   string `yaml:"keys_url" split_words:"true"`
	UserAgent string `yaml:"user_agent" split_words:"true"`

	HostRoot string `yaml:"host_root" split_words:"true"`
	KeyDir   string `yaml:"key_dir" split_words:"true"`

	Prefix     string `yaml:"prefix" split_words:"true"`
	SSHGroup   string `yaml:"ssh_group" split_words:"true"`
	Shell      string `yaml:"shell" split_words:"true"`
	QuotaMount string `yaml:"quota_mount" split_words:"true"`

	HTTPTimeout    time.Duration `yaml:"http_timeout" split_words:"true"`
	CommandTimeout time.Duration `yaml:"command_timeout" split_words:"true"`

	LockName    string        `yaml:"lock_name" split_words:"true"`
	LockTimeout time.Duration `yaml:"lock_timeout" split_words:"true"`

	LogDir string `yaml:"log_dir" split_words:"true"`
}

func Default() Config {
	return Config{
		TeamURL:        directory.DefaultTeamURL,
		KeysURL:        directory.DefaultKeysURL,
		UserAgent:      directory.DefaultUserAgent,
		HostRoot:       hostfs.DefaultRoot,
		KeyDir:         keystore.DefaultDir,
		Prefix:         identity.DefaultPrefix,
		SSHGroup:       reconcile.DefaultGroup,
		Shell:          reconcile.DefaultShell,
		QuotaMount:     reconcile.DefaultQuotaMount,
		HTTPTimeout:    directory.DefaultTimeout,
		CommandTimeout: usercmd.DefaultTimeout,
		LockName:       "team-login",
		LockTimeout:    time.Minute,
	}
}

// Load layers defaults, the optional YAML file at path and environment
// overrides, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(b []byte, cfg *Config) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Same rule juju/mutex applies to lock names.
var lockNameRe = regexp.MustCompile(`^[a-z]+[a-z0-9.-]*$`)

func (c Config) Validate() error {
	var errs []error
	if c.TeamURL == "" {
		errs = append(errs, errors.New("team_url is required"))
	}
	if !strings.Contains(c.KeysURL, directory.UserPlaceholder) {
		errs = append(errs, fmt.Errorf("keys_url must contain %s", directory.UserPlaceholder))
	}
	if c.Prefix == "" {
		errs = append(errs, errors.New("prefix is required"))
	}
	if !strings.HasPrefix(c.HostRoot, "/") {
		errs = append(errs, errors.New("host_root must be absolute"))
	}
	if !strings.HasPrefix(c.KeyDir, "/") {
		errs = append(errs, errors.New("key_dir must be absolute"))
	}
	if !strings.HasPrefix(c.Shell, "/") {
		errs = append(errs, errors.New("shell must be absolute"))
	}
	if c.SSHGroup == "" {
		errs = append(errs, errors.New("ssh_group is required"))
	}
	if !strings.HasPrefix(c.QuotaMount, "/") {
		errs = append(errs, errors.New("quota_mount must be absolute"))
	}
	if c.HTTPTimeout <= 0 || c.CommandTimeout <= 0 || c.LockTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if !lockNameRe.MatchString(c.LockName) {
		errs = append(errs, fmt.Errorf("invalid lock_name %q", c.LockName))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
