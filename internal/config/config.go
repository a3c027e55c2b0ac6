package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"filekeeper/internal/model"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.trai.ch/zerr"
)

var (
	ErrDuplicateName = zerr.New("duplicate target name")
	ErrInvalidMode   = zerr.New(`invalid mode, use a quoted octal string such as "0600"`)
)

// Mode is an octal permission string. YAML reads an unquoted 0644 as an
// integer, so anything but a string is rejected while decoding.
type Mode string

type TargetConfig struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Source string `mapstructure:"source" yaml:"source"`
	Target string `mapstructure:"target" yaml:"target"`
	Mode   Mode   `mapstructure:"mode" yaml:"mode"`
	Owner  string `mapstructure:"owner" yaml:"owner,omitempty"`
	Group  string `mapstructure:"group" yaml:"group,omitempty"`
}

type Config struct {
	DaemonPort int            `mapstructure:"daemon_port" yaml:"daemon_port"`
	BufferSize int            `mapstructure:"buffer_size" yaml:"buffer_size"`
	Debounce   time.Duration  `mapstructure:"debounce" yaml:"debounce"`
	DBPath     string         `mapstructure:"db_path" yaml:"db_path"`
	Targets    []TargetConfig `mapstructure:"targets" yaml:"targets"`
}

var Default = Config{
	DaemonPort: 9101,
	BufferSize: 64,
	Debounce:   300 * time.Millisecond,
	DBPath:     "history.db",
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	return filepath.Join(home, ".filekeeper"), nil
}

// Load reads path, or config.yaml from the config dir when path is empty.
// Only the implicit config file may be absent.
func Load(path string) (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	v.SetDefault("daemon_port", Default.DaemonPort)
	v.SetDefault("buffer_size", Default.BufferSize)
	v.SetDefault("debounce", Default.Debounce)
	v.SetDefault("db_path", filepath.Join(configDir, Default.DBPath))

	v.SetEnvPrefix("FILEKEEPER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncType(modeHook),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = Default.Debounce
	}

	return &cfg, nil
}

// WatchTargets validates every configured target. Any error here is fatal.
func (c *Config) WatchTargets() ([]model.WatchTarget, error) {
	targets := make([]model.WatchTarget, 0, len(c.Targets))
	names := make(map[string]bool)
	paths := make(map[string]bool)

	for _, tc := range c.Targets {
		t, err := tc.WatchTarget()
		if err != nil {
			return nil, err
		}

		if names[t.Name] {
			return nil, zerr.With(ErrDuplicateName, "name", t.Name)
		}
		if paths[t.TargetPath] {
			return nil, zerr.With(zerr.Wrap(model.ErrPathInvalid, "target path configured twice"), "target", t.TargetPath)
		}

		names[t.Name] = true
		paths[t.TargetPath] = true
		targets = append(targets, t)
	}

	return targets, nil
}

func (tc TargetConfig) WatchTarget() (model.WatchTarget, error) {
	mode, err := parseMode(tc.Mode)
	if err != nil {
		return model.WatchTarget{}, zerr.With(err, "target", tc.Name)
	}

	uid, err := lookupUID(tc.Owner)
	if err != nil {
		return model.WatchTarget{}, zerr.With(err, "target", tc.Name)
	}

	gid, err := lookupGID(tc.Group)
	if err != nil {
		return model.WatchTarget{}, zerr.With(err, "target", tc.Name)
	}

	return model.NewWatchTarget(tc.Name, tc.Source, tc.Target, mode, uid, gid)
}

func modeHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeFor[Mode]() || from.Kind() == reflect.String {
		return data, nil
	}

	return nil, zerr.With(ErrInvalidMode, "mode", fmt.Sprint(data))
}

// parseMode takes an octal string. Only an absent mode defaults; an explicit
// zero would leave the target unreadable and is rejected.
func parseMode(m Mode) (os.FileMode, error) {
	if m == "" {
		return model.DefaultMode, nil
	}

	bits, err := strconv.ParseUint(string(m), 8, 32)
	if err != nil || bits == 0 || bits > 0o777 {
		return 0, zerr.With(ErrInvalidMode, "mode", string(m))
	}

	return os.FileMode(bits), nil
}

func lookupUID(owner string) (int, error) {
	if owner == "" {
		return -1, nil
	}

	if id, err := strconv.Atoi(owner); err == nil {
		return id, nil
	}

	u, err := user.Lookup(owner)
	if err != nil {
		return 0, fmt.Errorf("failed to look up owner %q: %w", owner, err)
	}

	return strconv.Atoi(u.Uid)
}

func lookupGID(group string) (int, error) {
	if group == "" {
		return -1, nil
	}

	if id, err := strconv.Atoi(group); err == nil {
		return id, nil
	}

	g, err := user.LookupGroup(group)
	if err != nil {
		return 0, fmt.Errorf("failed to look up group %q: %w", group, err)
	}

	return strconv.Atoi(g.Gid)
}
