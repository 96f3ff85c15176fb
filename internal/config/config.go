package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Vision  VisionConfig `yaml:"vision"`
	Web     WebConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type StorageConfig struct {
	DataDir         string // root of the per-label enrollment image tree
	DatabasePath    string // SQLite file backing the label/image tables
	ModelPath       string // trained model artifact, fully overwritten on retrain
	CredentialsPath string // admin credential file (username:salted_hash lines)
}

type VisionConfig struct {
	Cascade          string  `yaml:"cascade"` // binary cascade file for the face detector
	MinFaceSize      int     `yaml:"min_face_size"`
	MaxFaceSize      int     `yaml:"max_face_size"`
	ShiftFactor      float64 `yaml:"shift_factor"`
	ScaleFactor      float64 `yaml:"scale_factor"`
	IoUThreshold     float64 `yaml:"iou_threshold"`
	QualityThreshold float64 `yaml:"quality_threshold"`
}

type WebConfig struct {
	SessionSecret string
}

// envStr reads an environment variable, falling back to a default when unset.
func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func Load() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	cfg.Server = ServerConfig{
		Host: envStr("FACEGATE_HOST", "0.0.0.0"),
		Port: envInt("FACEGATE_PORT", 8888),
	}
	cfg.Storage = StorageConfig{
		DataDir:         envStr("FACEGATE_DATA_DIR", "data/images"),
		DatabasePath:    envStr("FACEGATE_DATABASE", "data/images.db"),
		ModelPath:       envStr("FACEGATE_MODEL", "model.mdl"),
		CredentialsPath: envStr("FACEGATE_CREDENTIALS", ".password.txt"),
	}
	if cascade := os.Getenv("FACEGATE_CASCADE"); cascade != "" {
		cfg.Vision.Cascade = cascade
	}
	cfg.Web = WebConfig{
		SessionSecret: os.Getenv("WEB_SESSION_SECRET"),
	}

	return &cfg
}
