package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the resolved value of every registered option key. It is
// built once by Load and handed down to cmd/server; nothing in this repo
// mutates it after load. Runtime reconfiguration of the scheduler limits
// happens through scheduler.Scheduler's own setters (reached via the
// management plane), not by re-reading Config.
type Config struct {
	ServerPort int `yaml:"server-port"`

	DBHost     string        `yaml:"db-host"`
	DBPort     int           `yaml:"db-port"`
	DBUser     string        `yaml:"db-user"`
	DBName     string        `yaml:"db-name"`
	DBPassword string        `yaml:"db-password"`
	DBTimeout  time.Duration `yaml:"db-timeout"`

	SchedulerExecPath      string        `yaml:"scheduler-exec-path"`
	SchedulerProcessLimit  int           `yaml:"scheduler-process-limit"`
	SchedulerTimeLimit     time.Duration `yaml:"scheduler-time-limit"`
	SchedulerResourceLimit int64         `yaml:"scheduler-resource-limit"`
	SchedulerSleep         time.Duration `yaml:"scheduler-sleep"`

	TLSCertPath string `yaml:"tls-cert-path"`
	TLSKeyPath  string `yaml:"tls-key-path"`

	// RetentionEnabled turns on the periodic sweep that deletes terminal
	// jobs older than RetentionMaxAge. It is off by default: this is an
	// opt-in housekeeping sweep, not a core requirement.
	RetentionEnabled  bool          `yaml:"retention-enabled"`
	RetentionInterval time.Duration `yaml:"retention-interval"`
	RetentionMaxAge   time.Duration `yaml:"retention-max-age"`
}

// Default returns the option table's built-in defaults, the lowest tier of
// the command-line > environment > file > default precedence.
func Default() Config {
	return Config{
		ServerPort:             4711,
		DBHost:                 "localhost",
		DBPort:                 5432,
		DBTimeout:              10 * time.Second,
		SchedulerProcessLimit:  4,
		SchedulerTimeLimit:     0,
		SchedulerResourceLimit: 0,
		SchedulerSleep:         1000 * time.Millisecond,
		RetentionEnabled:       false,
		RetentionInterval:      time.Hour,
		RetentionMaxAge:        30 * 24 * time.Hour,
	}
}

// envPrefix is prepended to every registered key, upper-cased with dashes
// turned to underscores, to form its environment variable name: e.g.
// scheduler-process-limit becomes SPANNERS_SCHEDULER_PROCESS_LIMIT.
const envPrefix = "SPANNERS_"

// defaultConfigContents is written to a newly created config file on first
// run: every key, commented out, set to its default.
const defaultConfigContents = `# spanners server configuration
# Uncomment and edit any key below to override the built-in default.
# Precedence: command-line flag > environment variable (SPANNERS_ prefix)
# > this file > default.

# server-port: 4711

# db-host: localhost
# db-port: 5432
# db-user: ""
# db-name: ""
# db-password: ""
# db-timeout: 10s

# scheduler-exec-path: ""
# scheduler-process-limit: 4
# scheduler-time-limit: 0s
# scheduler-resource-limit: 0
# scheduler-sleep: 1s

# tls-cert-path: ""
# tls-key-path: ""

# retention-enabled: false
# retention-interval: 1h
# retention-max-age: 720h
`

// Load resolves Config from args (typically os.Args[1:]) layered over the
// process environment, a YAML config file and the built-in defaults, with
// command-line taking precedence over environment over file over default.
//
// The config file is located by --config-file if given, else
// $XDG_CONFIG_HOME/spanners/server.cfg, else $HOME/.config/spanners/server.cfg.
// If no file exists at the resolved path, one is auto-created there with
// every key commented out at its default value.
func Load(args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("spanners-server", flag.ContinueOnError)
	configFile := fs.String("config-file", "", "path to the YAML config file")
	serverPort := fs.Int("server-port", 0, "client wire protocol TCP port")
	dbHost := fs.String("db-host", "", "database host")
	dbPort := fs.Int("db-port", 0, "database port")
	dbUser := fs.String("db-user", "", "database user")
	dbName := fs.String("db-name", "", "database name")
	dbPassword := fs.String("db-password", "", "database password")
	dbTimeout := fs.Duration("db-timeout", 0, "database connection timeout")
	schedulerExecPath := fs.String("scheduler-exec-path", "", "worker executable path")
	schedulerProcessLimit := fs.Int("scheduler-process-limit", 0, "maximum concurrent workers")
	schedulerTimeLimit := fs.Duration("scheduler-time-limit", 0, "per-job wall-clock timeout, 0 disables")
	schedulerResourceLimit := fs.Int64("scheduler-resource-limit", 0, "per-worker address-space limit in bytes, 0 disables")
	schedulerSleep := fs.Duration("scheduler-sleep", 0, "scheduler loop interval")
	tlsCertPath := fs.String("tls-cert-path", "", "TLS certificate path")
	tlsKeyPath := fs.String("tls-key-path", "", "TLS private key path")
	retentionEnabled := fs.Bool("retention-enabled", false, "enable the periodic terminal-job retention sweep")
	retentionInterval := fs.Duration("retention-interval", 0, "how often the retention sweep runs")
	retentionMaxAge := fs.Duration("retention-max-age", 0, "how long a terminal job is kept before it is eligible for deletion")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	path, err := resolveConfigPath(*configFile)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		fileCfg, err := loadOrCreateFile(path)
		if err != nil {
			return Config{}, err
		}
		applyNonZero(&cfg, fileCfg)
	}

	applyEnv(&cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server-port":
			cfg.ServerPort = *serverPort
		case "db-host":
			cfg.DBHost = *dbHost
		case "db-port":
			cfg.DBPort = *dbPort
		case "db-user":
			cfg.DBUser = *dbUser
		case "db-name":
			cfg.DBName = *dbName
		case "db-password":
			cfg.DBPassword = *dbPassword
		case "db-timeout":
			cfg.DBTimeout = *dbTimeout
		case "scheduler-exec-path":
			cfg.SchedulerExecPath = *schedulerExecPath
		case "scheduler-process-limit":
			cfg.SchedulerProcessLimit = *schedulerProcessLimit
		case "scheduler-time-limit":
			cfg.SchedulerTimeLimit = *schedulerTimeLimit
		case "scheduler-resource-limit":
			cfg.SchedulerResourceLimit = *schedulerResourceLimit
		case "scheduler-sleep":
			cfg.SchedulerSleep = *schedulerSleep
		case "tls-cert-path":
			cfg.TLSCertPath = *tlsCertPath
		case "tls-key-path":
			cfg.TLSKeyPath = *tlsKeyPath
		case "retention-enabled":
			cfg.RetentionEnabled = *retentionEnabled
		case "retention-interval":
			cfg.RetentionInterval = *retentionInterval
		case "retention-max-age":
			cfg.RetentionMaxAge = *retentionMaxAge
		}
	})

	return cfg, nil
}

// resolveConfigPath implements the --config-file / XDG_CONFIG_HOME / HOME
// lookup order. It returns "" if no path can be determined at all (neither
// override nor home directory available), in which case Load proceeds with
// only environment and defaults.
func resolveConfigPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spanners", "server.cfg"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", nil
	}
	return filepath.Join(home, ".config", "spanners", "server.cfg"), nil
}

func loadOrCreateFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return Config{}, fmt.Errorf("create config directory: %w", mkErr)
		}
		if writeErr := os.WriteFile(path, []byte(defaultConfigContents), 0o644); writeErr != nil {
			return Config{}, fmt.Errorf("write default config: %w", writeErr)
		}
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fileCfg, nil
}

// applyNonZero overlays every non-zero field of src onto dst. It is used
// for the file layer, whose Config was decoded straight from (possibly
// sparse) YAML, so unmentioned keys already read as their Go zero value and
// must not clobber the default already in dst.
func applyNonZero(dst *Config, src Config) {
	if src.ServerPort != 0 {
		dst.ServerPort = src.ServerPort
	}
	if src.DBHost != "" {
		dst.DBHost = src.DBHost
	}
	if src.DBPort != 0 {
		dst.DBPort = src.DBPort
	}
	if src.DBUser != "" {
		dst.DBUser = src.DBUser
	}
	if src.DBName != "" {
		dst.DBName = src.DBName
	}
	if src.DBPassword != "" {
		dst.DBPassword = src.DBPassword
	}
	if src.DBTimeout != 0 {
		dst.DBTimeout = src.DBTimeout
	}
	if src.SchedulerExecPath != "" {
		dst.SchedulerExecPath = src.SchedulerExecPath
	}
	if src.SchedulerProcessLimit != 0 {
		dst.SchedulerProcessLimit = src.SchedulerProcessLimit
	}
	if src.SchedulerTimeLimit != 0 {
		dst.SchedulerTimeLimit = src.SchedulerTimeLimit
	}
	if src.SchedulerResourceLimit != 0 {
		dst.SchedulerResourceLimit = src.SchedulerResourceLimit
	}
	if src.SchedulerSleep != 0 {
		dst.SchedulerSleep = src.SchedulerSleep
	}
	if src.TLSCertPath != "" {
		dst.TLSCertPath = src.TLSCertPath
	}
	if src.TLSKeyPath != "" {
		dst.TLSKeyPath = src.TLSKeyPath
	}
	if src.RetentionEnabled {
		dst.RetentionEnabled = true
	}
	if src.RetentionInterval != 0 {
		dst.RetentionInterval = src.RetentionInterval
	}
	if src.RetentionMaxAge != 0 {
		dst.RetentionMaxAge = src.RetentionMaxAge
	}
}

func applyEnv(cfg *Config) {
	if v, ok := lookupEnv("server-port"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ServerPort = n
		}
	}
	if v, ok := lookupEnv("db-host"); ok {
		cfg.DBHost = v
	}
	if v, ok := lookupEnv("db-port"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DBPort = n
		}
	}
	if v, ok := lookupEnv("db-user"); ok {
		cfg.DBUser = v
	}
	if v, ok := lookupEnv("db-name"); ok {
		cfg.DBName = v
	}
	if v, ok := lookupEnv("db-password"); ok {
		cfg.DBPassword = v
	}
	if v, ok := lookupEnv("db-timeout"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DBTimeout = d
		}
	}
	if v, ok := lookupEnv("scheduler-exec-path"); ok {
		cfg.SchedulerExecPath = v
	}
	if v, ok := lookupEnv("scheduler-process-limit"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SchedulerProcessLimit = n
		}
	}
	if v, ok := lookupEnv("scheduler-time-limit"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SchedulerTimeLimit = d
		}
	}
	if v, ok := lookupEnv("scheduler-resource-limit"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.SchedulerResourceLimit = n
		}
	}
	if v, ok := lookupEnv("scheduler-sleep"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SchedulerSleep = d
		}
	}
	if v, ok := lookupEnv("tls-cert-path"); ok {
		cfg.TLSCertPath = v
	}
	if v, ok := lookupEnv("tls-key-path"); ok {
		cfg.TLSKeyPath = v
	}
	if v, ok := lookupEnv("retention-enabled"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RetentionEnabled = b
		}
	}
	if v, ok := lookupEnv("retention-interval"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RetentionInterval = d
		}
	}
	if v, ok := lookupEnv("retention-max-age"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RetentionMaxAge = d
		}
	}
}

func lookupEnv(key string) (string, bool) {
	name := envPrefix + envVarName(key)
	return os.LookupEnv(name)
}

func envVarName(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '-' {
			out[i] = '_'
			continue
		}
		if c >= 'a' && c <= 'z' {
			out[i] = c - ('a' - 'A')
			continue
		}
		out[i] = c
	}
	return string(out)
}
