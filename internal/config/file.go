package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layer. Unset keys leave the defaults alone.
type fileConfig struct {
	BookmarksFile *string `yaml:"bookmarks_file"`
	AudioFolder   *string `yaml:"audio_folder"`
	InitialVolume *int    `yaml:"initial_volume"`

	SeekThrottle *time.Duration `yaml:"seek_throttle"`
	TickInterval *time.Duration `yaml:"tick_interval"`
	ResyncDelay  *time.Duration `yaml:"resync_delay"`
	ResumeDelay  *time.Duration `yaml:"resume_delay"`
	RestoreDelay *time.Duration `yaml:"restore_delay"`
	SeekStep     *time.Duration `yaml:"seek_step"`

	HistoryFile *string `yaml:"history_file"`

	LogLevel  *string `yaml:"log_level"`
	PrettyLog *bool   `yaml:"pretty_log"`
	LogFile   *string `yaml:"log_file"`

	API struct {
		Listen          *string        `yaml:"listen"`
		AllowedCIDRS    []string       `yaml:"allowed_cidrs"`
		AllowedHosts    []string       `yaml:"allowed_hosts"`
		WriteBurst      *int           `yaml:"write_burst"`
		WritePerMin     *int           `yaml:"write_per_min"`
		ShutdownTimeout *time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"api"`

	Redis struct {
		Addr     *string `yaml:"addr"`
		Username *string `yaml:"username"`
		Password *string `yaml:"password"`
		DB       *int    `yaml:"db"`
		PoolSize *int    `yaml:"pool_size"`
	} `yaml:"redis"`
}

// envRef matches {{VAR}} placeholders, so secrets can stay in the environment.
var envRef = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = expandEnvRefs(data)

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml %s: %w", path, err)
	}
	return &fc, nil
}

// expandEnvRefs replaces {{VAR}} with the value of VAR, empty when unset.
func expandEnvRefs(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.BookmarksFile, fc.BookmarksFile)
	setString(&cfg.AudioFolder, fc.AudioFolder)
	setInt(&cfg.InitialVolume, fc.InitialVolume)

	setDuration(&cfg.SeekThrottle, fc.SeekThrottle)
	setDuration(&cfg.TickInterval, fc.TickInterval)
	setDuration(&cfg.ResyncDelay, fc.ResyncDelay)
	setDuration(&cfg.ResumeDelay, fc.ResumeDelay)
	setDuration(&cfg.RestoreDelay, fc.RestoreDelay)
	setDuration(&cfg.SeekStep, fc.SeekStep)

	setString(&cfg.HistoryFile, fc.HistoryFile)

	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.PrettyLog != nil {
		cfg.PrettyLog = *fc.PrettyLog
	}
	setString(&cfg.LogFile, fc.LogFile)

	setString(&cfg.APIListen, fc.API.Listen)
	if len(fc.API.AllowedCIDRS) > 0 {
		cfg.APIAllowedCIDRS = fc.API.AllowedCIDRS
	}
	if len(fc.API.AllowedHosts) > 0 {
		cfg.APIAllowedHosts = fc.API.AllowedHosts
	}
	setInt(&cfg.APIWriteBurst, fc.API.WriteBurst)
	setInt(&cfg.APIWritePerMin, fc.API.WritePerMin)
	setDuration(&cfg.ShutdownTimeout, fc.API.ShutdownTimeout)

	setString(&cfg.RedisAddr, fc.Redis.Addr)
	setString(&cfg.RedisUser, fc.Redis.Username)
	setString(&cfg.RedisPassword, fc.Redis.Password)
	setInt(&cfg.RedisDB, fc.Redis.DB)
	setInt(&cfg.RedisPoolSize, fc.Redis.PoolSize)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}
