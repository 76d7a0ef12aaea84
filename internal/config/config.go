package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config holds all sweep settings, populated from environment variables.
type Config struct {
	DataDir      string
	OutputDir    string
	Scenario     string
	ScenarioFile string
	Location     *time.Location

	// Worker layout. WorkerIndex < 0 runs every worker in this process.
	WorkerCount int
	WorkerIndex int
	RunID       string

	StoreCacheSize int
	BarrierTimeout time.Duration

	// NATS barrier for multi-process runs.
	NATSURL    string
	NATSBucket string

	// Job events; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Artifact mirror; disabled when S3Endpoint is empty.
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Secure    bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Distributed reports whether this process is a single worker of a wider pool.
func (c *Config) Distributed() bool {
	return c.WorkerIndex >= 0
}

// Load reads configuration from environment variables, applying defaults where unset.
// A dotenv file (ENV_FILE, default .env) is read first; real environment wins.
func Load() (*Config, error) {
	if err := loadEnvFile(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	barrierTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("BARRIER_TIMEOUT", "30m"))
	if err != nil || barrierTimeout <= 0 {
		return nil, errors.New("invalid BARRIER_TIMEOUT")
	}

	loc, err := time.LoadLocation(sharedcfg.EnvOrDefault("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	workerCount, err := parsePositiveInt("WORKER_COUNT", 1)
	if err != nil {
		return nil, err
	}

	workerIndex := -1
	if s := os.Getenv("WORKER_INDEX"); s != "" {
		workerIndex, err = strconv.Atoi(s)
		if err != nil || workerIndex < 0 || workerIndex >= workerCount {
			return nil, fmt.Errorf("invalid WORKER_INDEX %q for WORKER_COUNT %d", s, workerCount)
		}
	}

	cacheSize, err := parsePositiveInt("STORE_CACHE_SIZE", 16)
	if err != nil {
		return nil, err
	}

	s3Secure := false
	if v := os.Getenv("S3_SECURE"); v != "" {
		s3Secure = v == "true"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		DataDir:      sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		OutputDir:    sharedcfg.EnvOrDefault("OUTPUT_DIR", "mpi"),
		Scenario:     sharedcfg.EnvOrDefault("SCENARIO", "summer_small"),
		ScenarioFile: os.Getenv("SCENARIO_FILE"),
		Location:     loc,

		WorkerCount: workerCount,
		WorkerIndex: workerIndex,
		RunID:       os.Getenv("RUN_ID"),

		StoreCacheSize: cacheSize,
		BarrierTimeout: barrierTimeout,

		NATSURL:    os.Getenv("NATS_URL"),
		NATSBucket: sharedcfg.EnvOrDefault("NATS_BUCKET", "ke-sweep-barrier"),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "ke-sweep-jobs"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Secure:    s3Secure,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.Distributed() && cfg.WorkerCount > 1 {
		if cfg.RunID == "" {
			return nil, errors.New("RUN_ID is required when WORKER_INDEX is set and WORKER_COUNT > 1")
		}
		if cfg.NATSURL == "" {
			return nil, errors.New("NATS_URL is required when WORKER_INDEX is set and WORKER_COUNT > 1")
		}
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.S3Endpoint != "" && cfg.S3Bucket == "" {
		return nil, errors.New("S3_ENDPOINT is set but S3_BUCKET is not")
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}
