// Package cfg loads pipeline configuration from a YAML file with
// environment-variable overrides. A .env file in the working directory
// is honored before the environment is read.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the fully resolved pipeline configuration.
type Settings struct {
	FrameLen      int
	Classes       []string
	Normalization string
	TestFraction  float64
	SplitSeed     int64

	EnsembleMethod string
	Epsilon        float64

	Epochs       int
	Patience     int
	LearningRate float64

	IQEndpoint  string
	FFTEndpoint string
	APEndpoint  string
	RESTTimeout time.Duration

	StreamURL  string
	DataPath   string
	ReportPath string

	MetricsPort int
}

// ConfigFile mirrors the YAML layout.
type ConfigFile struct {
	Signal struct {
		FrameLen      int      `yaml:"frameLen"`
		Classes       []string `yaml:"classes"`
		Normalization string   `yaml:"normalization"`
	} `yaml:"signal"`

	Split struct {
		TestFraction float64 `yaml:"testFraction"`
		Seed         int64   `yaml:"seed"`
	} `yaml:"split"`

	Ensemble struct {
		Method  string  `yaml:"method"`
		Epsilon float64 `yaml:"epsilon"`
	} `yaml:"ensemble"`

	Train struct {
		Epochs       int     `yaml:"epochs"`
		Patience     int     `yaml:"patience"`
		LearningRate float64 `yaml:"learningRate"`
	} `yaml:"train"`

	Classifiers struct {
		IQ          string `yaml:"iq"`
		FFT         string `yaml:"fft"`
		AP          string `yaml:"ap"`
		RESTTimeout string `yaml:"restTimeout"`
	} `yaml:"classifiers"`

	System struct {
		StreamURL   string `yaml:"streamURL"`
		DataPath    string `yaml:"dataPath"`
		ReportPath  string `yaml:"reportPath"`
		MetricsPort int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load resolves settings from CONFIG_FILE if set, otherwise from
// environment variables alone. Environment always wins over the file.
func Load() (Settings, error) {
	// Missing .env is fine; it is a local-development convenience.
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	restTimeout, err := getDurationFromEnvOrConfig("REST_TIMEOUT", config.Classifiers.RESTTimeout)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to parse REST timeout: %w", err)
	}

	settings := Settings{
		FrameLen:       getIntFromEnvOrConfig("FRAME_LEN", config.Signal.FrameLen),
		Classes:        getClassesFromEnvOrConfig(config.Signal.Classes),
		Normalization:  getEnvOrDefault("NORMALIZATION", config.Signal.Normalization),
		TestFraction:   getFloatFromEnvOrConfig("TEST_FRACTION", config.Split.TestFraction),
		SplitSeed:      getInt64FromEnvOrConfig("SPLIT_SEED", config.Split.Seed),
		EnsembleMethod: getEnvOrDefault("ENSEMBLE_METHOD", config.Ensemble.Method),
		Epsilon:        getFloatFromEnvOrConfig("EPSILON", config.Ensemble.Epsilon),
		Epochs:         getIntFromEnvOrConfig("EPOCHS", config.Train.Epochs),
		Patience:       getIntFromEnvOrConfig("PATIENCE", config.Train.Patience),
		LearningRate:   getFloatFromEnvOrConfig("LEARNING_RATE", config.Train.LearningRate),
		IQEndpoint:     getEnvOrDefault("IQ_ENDPOINT", config.Classifiers.IQ),
		FFTEndpoint:    getEnvOrDefault("FFT_ENDPOINT", config.Classifiers.FFT),
		APEndpoint:     getEnvOrDefault("AP_ENDPOINT", config.Classifiers.AP),
		RESTTimeout:    restTimeout,
		StreamURL:      getEnvOrDefault("STREAM_URL", config.System.StreamURL),
		DataPath:       getEnvOrDefault("DATA_PATH", config.System.DataPath),
		ReportPath:     getEnvOrDefault("REPORT_PATH", config.System.ReportPath),
		MetricsPort:    getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		FrameLen:       getIntOrDefault("FRAME_LEN", 1024),
		Classes:        splitOrDefault(os.Getenv("CLASSES"), []string{"bpsk", "qpsk", "8psk"}),
		Normalization:  getEnvOrDefault("NORMALIZATION", "l2"),
		TestFraction:   getFloatOrDefault("TEST_FRACTION", 0.2),
		SplitSeed:      getInt64OrDefault("SPLIT_SEED", 42),
		EnsembleMethod: getEnvOrDefault("ENSEMBLE_METHOD", "geometric"),
		Epsilon:        getFloatOrDefault("EPSILON", 1e-15),
		Epochs:         getIntOrDefault("EPOCHS", 60),
		Patience:       getIntOrDefault("PATIENCE", 5),
		LearningRate:   getFloatOrDefault("LEARNING_RATE", 0.001),
		IQEndpoint:     getEnvOrDefault("IQ_ENDPOINT", "http://localhost:9101"),
		FFTEndpoint:    getEnvOrDefault("FFT_ENDPOINT", "http://localhost:9102"),
		APEndpoint:     getEnvOrDefault("AP_ENDPOINT", "http://localhost:9103"),
		RESTTimeout:    getDurationOrDefault("REST_TIMEOUT", 30*time.Second),
		StreamURL:      os.Getenv("STREAM_URL"), // optional
		DataPath:       os.Getenv("DATA_PATH"),  // optional
		ReportPath:     getEnvOrDefault("REPORT_PATH", "reports"),
		MetricsPort:    getIntOrDefault("METRICS_PORT", 8080),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func applyDefaults(s *Settings) {
	if s.FrameLen == 0 {
		s.FrameLen = 1024
	}
	if len(s.Classes) == 0 {
		s.Classes = []string{"bpsk", "qpsk", "8psk"}
	}
	if s.Normalization == "" {
		s.Normalization = "l2"
	}
	if s.TestFraction == 0 {
		s.TestFraction = 0.2
	}
	if s.EnsembleMethod == "" {
		s.EnsembleMethod = "geometric"
	}
	if s.Epsilon == 0 {
		s.Epsilon = 1e-15
	}
	if s.Epochs == 0 {
		s.Epochs = 60
	}
	if s.Patience == 0 {
		s.Patience = 5
	}
	if s.LearningRate == 0 {
		s.LearningRate = 0.001
	}
	if s.RESTTimeout == 0 {
		s.RESTTimeout = 30 * time.Second
	}
	if s.ReportPath == "" {
		s.ReportPath = "reports"
	}
	if s.MetricsPort == 0 {
		s.MetricsPort = 8080
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	return strings.Split(v, ",")
}

func getClassesFromEnvOrConfig(configClasses []string) []string {
	if env := os.Getenv("CLASSES"); env != "" {
		return strings.Split(env, ",")
	}
	return configClasses
}

// getDurationFromEnvOrConfig resolves a duration setting: a parsable
// environment value wins, otherwise the config file value is used. A
// malformed file value is an error rather than a silent default.
func getDurationFromEnvOrConfig(key, configValue string) (time.Duration, error) {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d, nil
		}
	}
	if configValue == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(configValue)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q for %s: %w", configValue, key, err)
	}
	return d, nil
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
}

func getInt64FromEnvOrConfig(key string, configValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	return configValue
}

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs bounds checks on every configuration value.
func validateSettings(s *Settings) error {
	if s.FrameLen <= 0 || s.FrameLen > 1<<20 {
		return fmt.Errorf("frame length must be between 1 and 2^20, got %d", s.FrameLen)
	}
	if len(s.Classes) < 2 {
		return fmt.Errorf("at least two classes are required, got %d", len(s.Classes))
	}
	switch s.Normalization {
	case "l1", "l2", "max":
	default:
		return fmt.Errorf("normalization must be one of l1, l2, max, got %q", s.Normalization)
	}
	if s.TestFraction <= 0 || s.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in (0, 1), got %f", s.TestFraction)
	}
	switch s.EnsembleMethod {
	case "geometric", "arithmetic":
	default:
		return fmt.Errorf("ensemble method must be geometric or arithmetic, got %q", s.EnsembleMethod)
	}
	if s.Epsilon <= 0 || s.Epsilon > 1e-3 {
		return fmt.Errorf("epsilon must be in (0, 1e-3], got %g", s.Epsilon)
	}
	if s.Epochs <= 0 || s.Epochs > 10000 {
		return fmt.Errorf("epochs must be between 1 and 10000, got %d", s.Epochs)
	}
	if s.Patience < 0 || s.Patience > s.Epochs {
		return fmt.Errorf("patience must be between 0 and epochs, got %d", s.Patience)
	}
	if s.LearningRate <= 0 || s.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1], got %f", s.LearningRate)
	}
	if s.IQEndpoint == "" || s.FFTEndpoint == "" || s.APEndpoint == "" {
		return fmt.Errorf("all three classifier endpoints must be configured")
	}
	if s.RESTTimeout < time.Second || s.RESTTimeout > 10*time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 10m, got %v", s.RESTTimeout)
	}
	if s.MetricsPort < 1024 || s.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", s.MetricsPort)
	}
	return nil
}
