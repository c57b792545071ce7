package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BookmarksFile string // path of the JSON bookmark list
	AudioFolder   string // managed folder opened files are copied into
	InitialVolume int    // 0..100

	SeekThrottle time.Duration // minimum spacing between slider seeks (100ms)
	TickInterval time.Duration // control loop tick (100ms)
	ResyncDelay  time.Duration // volume resync after a seek (500ms)
	ResumeDelay  time.Duration // resume after a seek while playing (10ms)
	RestoreDelay time.Duration // muted window of the resync (50ms)
	SeekStep     time.Duration // fwd/back default (5s)

	HistoryFile string // shell history, empty = in-memory only

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)
	LogFile   string // empty => stderr

	// Local control API, disabled when APIListen is empty
	APIListen       string
	APIAllowedCIDRS []string
	APIAllowedHosts []string // Host headers accepted by the API
	APIWriteBurst   int      // per-client burst for mutating requests
	APIWritePerMin  int      // per-client refill for mutating requests
	ShutdownTimeout time.Duration

	// Redis mirror, disabled when RedisAddr is empty
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, doubled each time
	RedisMaxWait        time.Duration // backoff cap
	RedisPingTimeout    time.Duration
	RedisSyncTimeout    time.Duration // bound on one mirror write
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		BookmarksFile: "bookmarks.json",
		AudioFolder:   "audio_files",
		InitialVolume: 50,

		SeekThrottle: 100 * time.Millisecond,
		TickInterval: 100 * time.Millisecond,
		ResyncDelay:  500 * time.Millisecond,
		ResumeDelay:  10 * time.Millisecond,
		RestoreDelay: 50 * time.Millisecond,
		SeekStep:     5 * time.Second,

		LogLevel:  "info",
		PrettyLog: true,

		APIAllowedCIDRS: []string{"127.0.0.1/32", "::1/128"},
		APIWriteBurst:   20,
		APIWritePerMin:  120,
		ShutdownTimeout: 5 * time.Second,

		RedisUser:           "default",
		RedisDT:             5 * time.Second,
		RedisRT:             3 * time.Second,
		RedisWT:             3 * time.Second,
		RedisPoolSize:       4,
		RedisConnectTimeout: 10 * time.Second,
		RedisRetryInterval:  500 * time.Millisecond,
		RedisMaxWait:        5 * time.Second,
		RedisPingTimeout:    2 * time.Second,
		RedisSyncTimeout:    3 * time.Second,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CUEMARK_CONFIG and the environment, in that order. Invalid settings are
// fatal.
func Load() *Config {
	cfg, err := load()
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}
	return cfg
}

func load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CUEMARK_CONFIG"); path != "" {
		fc, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		fc.apply(cfg)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.BookmarksFile = getenv("CUEMARK_BOOKMARKS_FILE", cfg.BookmarksFile)
	cfg.AudioFolder = getenv("CUEMARK_AUDIO_FOLDER", cfg.AudioFolder)
	cfg.InitialVolume = getenvInt("CUEMARK_INITIAL_VOLUME", cfg.InitialVolume)

	cfg.SeekThrottle = mustDuration("CUEMARK_SEEK_THROTTLE", cfg.SeekThrottle)
	cfg.TickInterval = mustDuration("CUEMARK_TICK_INTERVAL", cfg.TickInterval)
	cfg.ResyncDelay = mustDuration("CUEMARK_RESYNC_DELAY", cfg.ResyncDelay)
	cfg.ResumeDelay = mustDuration("CUEMARK_RESUME_DELAY", cfg.ResumeDelay)
	cfg.RestoreDelay = mustDuration("CUEMARK_RESTORE_DELAY", cfg.RestoreDelay)
	cfg.SeekStep = mustDuration("CUEMARK_SEEK_STEP", cfg.SeekStep)

	cfg.HistoryFile = getenv("CUEMARK_HISTORY_FILE", cfg.HistoryFile)

	cfg.LogLevel = getenv("CUEMARK_LOG_LEVEL", cfg.LogLevel)
	cfg.PrettyLog = mustBool("CUEMARK_PRETTY_LOG", cfg.PrettyLog)
	cfg.LogFile = getenv("CUEMARK_LOG_FILE", cfg.LogFile)

	cfg.APIListen = getenv("CUEMARK_API_LISTEN", cfg.APIListen)
	if v := os.Getenv("CUEMARK_API_ALLOWED_CIDRS"); v != "" {
		cfg.APIAllowedCIDRS = splitAndTrim(v)
	}
	if v := os.Getenv("CUEMARK_API_ALLOWED_HOSTS"); v != "" {
		cfg.APIAllowedHosts = splitAndTrim(v)
	}
	cfg.APIWriteBurst = getenvInt("CUEMARK_API_WRITE_BURST", cfg.APIWriteBurst)
	cfg.APIWritePerMin = getenvInt("CUEMARK_API_WRITE_PER_MIN", cfg.APIWritePerMin)
	cfg.ShutdownTimeout = mustDuration("CUEMARK_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.RedisAddr = getenv("CUEMARK_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisUser = getenv("CUEMARK_REDIS_USERNAME", cfg.RedisUser)
	cfg.RedisPassword = getenv("CUEMARK_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvInt("CUEMARK_REDIS_DB", cfg.RedisDB)
	cfg.RedisDT = mustDuration("CUEMARK_REDIS_DIAL_TIMEOUT", cfg.RedisDT)
	cfg.RedisRT = mustDuration("CUEMARK_REDIS_READ_TIMEOUT", cfg.RedisRT)
	cfg.RedisWT = mustDuration("CUEMARK_REDIS_WRITE_TIMEOUT", cfg.RedisWT)
	cfg.RedisPoolSize = getenvInt("CUEMARK_REDIS_POOL_SIZE", cfg.RedisPoolSize)
	cfg.RedisConnectTimeout = mustDuration("CUEMARK_REDIS_CONNECT_TIMEOUT", cfg.RedisConnectTimeout)
	cfg.RedisRetryInterval = mustDuration("CUEMARK_REDIS_RETRY_INTERVAL", cfg.RedisRetryInterval)
	cfg.RedisMaxWait = mustDuration("CUEMARK_REDIS_MAX_WAIT", cfg.RedisMaxWait)
	cfg.RedisPingTimeout = mustDuration("CUEMARK_REDIS_PING_TIMEOUT", cfg.RedisPingTimeout)
	cfg.RedisSyncTimeout = mustDuration("CUEMARK_REDIS_SYNC_TIMEOUT", cfg.RedisSyncTimeout)
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BookmarksFile) == "":
		return fmt.Errorf("bookmarks file must not be empty")
	case strings.TrimSpace(c.AudioFolder) == "":
		return fmt.Errorf("audio folder must not be empty")
	case c.InitialVolume < 0 || c.InitialVolume > 100:
		return fmt.Errorf("initial volume must be in [0, 100], got %d", c.InitialVolume)
	case c.TickInterval <= 0:
		return fmt.Errorf("tick interval must be > 0, got %v", c.TickInterval)
	case c.SeekThrottle <= 0:
		return fmt.Errorf("seek throttle must be > 0, got %v", c.SeekThrottle)
	case c.SeekStep <= 0:
		return fmt.Errorf("seek step must be > 0, got %v", c.SeekStep)
	case c.ResyncDelay < 0 || c.ResumeDelay < 0 || c.RestoreDelay < 0:
		return fmt.Errorf("seek delays must not be negative")
	}
	return nil
}

// APIEnabled reports whether the control API should be served.
func (c *Config) APIEnabled() bool { return c.APIListen != "" }

// RedisEnabled reports whether the bookmark mirror should run.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
