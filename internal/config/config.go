package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	NATS      NATSConfig      `yaml:"nats"`
	Storage   StorageConfig   `yaml:"storage"`
	Vision    VisionConfig    `yaml:"vision"`
	Detection DetectionConfig `yaml:"detection"`
	Recording RecordingConfig `yaml:"recording"`
	Cameras   []CameraConfig  `yaml:"cameras"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig picks where thumbnails, snapshots and recording segments
// are persisted. Backend selects which of the two sub-configs applies.
type StorageConfig struct {
	Backend         string      `yaml:"backend"` // "fs" or "minio"
	LocalBaseDir    string      `yaml:"local_base_dir"`
	MinIO           MinIOConfig `yaml:"minio"`
	MaxStorageBytes int64       `yaml:"max_storage_bytes"`
	AutoCleanup     bool        `yaml:"auto_cleanup"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type VisionConfig struct {
	ModelsDir        string `yaml:"models_dir"`
	DetectorModel    string `yaml:"detector_model"`
	EmbedderModel    string `yaml:"embedder_model"`
	AttributeModel   string `yaml:"attribute_model"`
	DetectorQueueLen int    `yaml:"detector_queue_len"`
	WorkerCount      int    `yaml:"worker_count"`
	EnableAttributes bool   `yaml:"enable_attributes"`
}

// DetectionConfig tunes the orchestrator's match/skip decisions, mirroring
// entity.DetectionSettings.
type DetectionConfig struct {
	MinConfidence        float32 `yaml:"min_confidence"`
	MatchThreshold       float32 `yaml:"match_threshold"`
	SightingCooldownSecs int64   `yaml:"sighting_cooldown_secs"`
}

// RecordingConfig tunes detection-triggered recording, mirroring
// entity.RecordingSettings.
type RecordingConfig struct {
	DetectionTriggered bool  `yaml:"detection_triggered"`
	PreTriggerSecs     int64 `yaml:"pre_trigger_secs"`
	PostTriggerSecs    int64 `yaml:"post_trigger_secs"`
	MaxSegmentSecs     int64 `yaml:"max_segment_secs"`
}

// CameraConfig statically provisions one capture source. Cameras are
// configured here rather than through a CRUD surface.
type CameraConfig struct {
	ID        uuid.UUID `yaml:"id"`
	Name      string    `yaml:"name"`
	Type      string    `yaml:"type"` // "builtin", "usb", "rtsp", "youtube", "browser"
	DeviceID  string    `yaml:"device_id"`
	RTSPURL   string    `yaml:"rtsp_url"` // also holds the source URL for "youtube" cameras
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	FPS       int       `yaml:"fps"`
	IsEnabled bool      `yaml:"is_enabled"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	for i := range cfg.Cameras {
		if cfg.Cameras[i].ID == uuid.Nil {
			cfg.Cameras[i].ID = uuid.New()
		}
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "fs"
	}
	if cfg.Storage.LocalBaseDir == "" {
		cfg.Storage.LocalBaseDir = "./data"
	}
	if cfg.Storage.MaxStorageBytes == 0 {
		cfg.Storage.MaxStorageBytes = 100 * 1024 * 1024 * 1024
	}
	if !cfg.Storage.AutoCleanup {
		cfg.Storage.AutoCleanup = true
	}
	if cfg.Vision.DetectorQueueLen == 0 {
		cfg.Vision.DetectorQueueLen = 32
	}
	if cfg.Vision.WorkerCount == 0 {
		cfg.Vision.WorkerCount = 4
	}
	if cfg.Vision.DetectorModel == "" {
		cfg.Vision.DetectorModel = "det_10g.onnx"
	}
	if cfg.Vision.EmbedderModel == "" {
		cfg.Vision.EmbedderModel = "w600k_r50.onnx"
	}
	if cfg.Vision.AttributeModel == "" {
		cfg.Vision.AttributeModel = "genderage.onnx"
	}
	if cfg.Detection.MinConfidence == 0 {
		cfg.Detection.MinConfidence = 0.7
	}
	if cfg.Detection.MatchThreshold == 0 {
		cfg.Detection.MatchThreshold = 0.6
	}
	if cfg.Detection.SightingCooldownSecs == 0 {
		cfg.Detection.SightingCooldownSecs = 30
	}
	if !cfg.Recording.DetectionTriggered {
		cfg.Recording.DetectionTriggered = true
	}
	if cfg.Recording.PreTriggerSecs == 0 {
		cfg.Recording.PreTriggerSecs = 5
	}
	if cfg.Recording.PostTriggerSecs == 0 {
		cfg.Recording.PostTriggerSecs = 10
	}
	if cfg.Recording.MaxSegmentSecs == 0 {
		cfg.Recording.MaxSegmentSecs = 300
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SAFELYNX_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = port
		}
	}
	if v := os.Getenv("SAFELYNX_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("SAFELYNX_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("SAFELYNX_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("SAFELYNX_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("SAFELYNX_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("SAFELYNX_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("SAFELYNX_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("SAFELYNX_STORAGE_BASE_DIR"); v != "" {
		cfg.Storage.LocalBaseDir = v
	}
	if v := os.Getenv("SAFELYNX_MINIO_ENDPOINT"); v != "" {
		cfg.Storage.MinIO.Endpoint = v
	}
	if v := os.Getenv("SAFELYNX_MINIO_ACCESS_KEY"); v != "" {
		cfg.Storage.MinIO.AccessKey = v
	}
	if v := os.Getenv("SAFELYNX_MINIO_SECRET_KEY"); v != "" {
		cfg.Storage.MinIO.SecretKey = v
	}
	if v := os.Getenv("SAFELYNX_MINIO_BUCKET"); v != "" {
		cfg.Storage.MinIO.Bucket = v
	}
	if v := os.Getenv("SAFELYNX_MODELS_DIR"); v != "" {
		cfg.Vision.ModelsDir = v
	}
}
