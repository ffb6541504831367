// Package config holds the settings of the shape tool.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/drakos74/free-shape/internal/math/ml"
	"github.com/drakos74/free-shape/internal/storage"
	blob "github.com/drakos74/free-shape/internal/storage/file/json"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SHAPE_"

const (
	KNN    = "knn"
	KMeans = "kmeans"
	Forest = "forest"
)

const (
	FileStorage   = "file"
	MemoryStorage = "memory"
	VoidStorage   = "void"
)

var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

// Config is the full configuration.
type Config struct {
	// Seed of the random source, zero seeds from the clock.
	Seed     int64  `json:"seed" yaml:"seed"`
	LogLevel string `json:"log_level" yaml:"log_level" validate:"oneof=trace debug info warn error disabled"`

	Data        Data         `json:"data" yaml:"data"`
	Evaluation  Evaluation   `json:"evaluation" yaml:"evaluation"`
	Classifiers []Classifier `json:"classifiers" yaml:"classifiers" validate:"required,min=1,dive"`
	Metrics     Metrics      `json:"metrics" yaml:"metrics"`
	Storage     Storage      `json:"storage" yaml:"storage"`
}

// Data points to the representation files.
type Data struct {
	Dir string `json:"dir" yaml:"dir"`
}

// Evaluation configures the evaluation harness.
type Evaluation struct {
	TrainFraction float64 `json:"train_fraction" yaml:"train_fraction" validate:"gt=0,lt=1"`
	Folds         int     `json:"folds" yaml:"folds" validate:"gt=1"`
	Shuffle       bool    `json:"shuffle" yaml:"shuffle"`
	Verbose       bool    `json:"verbose" yaml:"verbose"`
}

// Classifier configures one classifier.
// Only the fields of the given type are used.
type Classifier struct {
	Type     string `json:"type" yaml:"type" validate:"required,oneof=knn kmeans forest"`
	K        int    `json:"k" yaml:"k" validate:"gte=0"`
	P        int    `json:"p" yaml:"p" validate:"gte=0"`
	MaxIter  int    `json:"max_iter" yaml:"max_iter" validate:"gte=0"`
	Init     string `json:"init" yaml:"init"`
	Restarts int    `json:"restarts" yaml:"restarts" validate:"gte=0"`
	Trees    int    `json:"trees" yaml:"trees" validate:"gte=0"`
}

// Metrics exposes the prometheus metrics if an address is given.
type Metrics struct {
	Addr string `json:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
}

// Storage configures where the evaluation reports go.
type Storage struct {
	Type string `json:"type" yaml:"type" validate:"oneof=file memory void"`
	Dir  string `json:"dir" yaml:"dir"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Evaluation: Evaluation{
			TrainFraction: 0.7,
			Folds:         10,
			Shuffle:       true,
		},
		Classifiers: []Classifier{
			{Type: KNN, K: 1, P: ml.DefaultOrder},
			{Type: KNN, K: 3, P: ml.DefaultOrder},
			{Type: KMeans, K: 9, P: ml.DefaultOrder, MaxIter: 100, Init: string(ml.KMeansPlusPlusInit), Restarts: 10},
		},
		Storage: Storage{
			Type: FileStorage,
			Dir:  storage.DefaultDir,
		},
	}
}

// Load loads the configuration.
// It starts from the defaults, applies the file if it exists
// and then the environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("could not load config file '%s': %w", path, err)
		}
	}
	loadEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("config file not found, using defaults")
			return nil
		}
		return err
	}
	// yaml first, then json
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("yaml: %v, json: %w", err, jsonErr)
		}
	}
	return nil
}

func loadEnv(cfg *Config) {
	if v, ok := env("SEED"); ok {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = i
		}
	}
	if v, ok := env("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := env("DATA_DIR"); ok {
		cfg.Data.Dir = v
	}
	if v, ok := env("TRAIN_FRACTION"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Evaluation.TrainFraction = f
		}
	}
	if v, ok := env("FOLDS"); ok {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.Folds = i
		}
	}
	if v, ok := env("SHUFFLE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Evaluation.Shuffle = b
		}
	}
	if v, ok := env("VERBOSE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Evaluation.Verbose = b
		}
	}
	if v, ok := env("METRICS_ADDR"); ok {
		cfg.Metrics.Addr = v
	}
	if v, ok := env("STORAGE_TYPE"); ok {
		cfg.Storage.Type = strings.ToLower(v)
	}
	if v, ok := env("STORAGE_DIR"); ok {
		cfg.Storage.Dir = v
	}
}

func env(key string) (string, bool) {
	v := os.Getenv(envPrefix + key)
	return v, v != ""
}

// Validate checks the struct constraints and the classifier specific fields.
func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}
	for i, c := range cfg.Classifiers {
		if err := c.validate(); err != nil {
			return fmt.Errorf("classifier %d: %v: %w", i, err, ErrInvalidConfig)
		}
	}
	if cfg.Storage.Type == FileStorage && cfg.Storage.Dir == "" {
		return fmt.Errorf("file storage needs a directory: %w", ErrInvalidConfig)
	}
	return nil
}

func (c Classifier) validate() error {
	switch c.Type {
	case KNN:
		if c.K < 1 {
			return fmt.Errorf("knn needs k >= 1")
		}
	case KMeans:
		if c.K < 1 {
			return fmt.Errorf("kmeans needs k >= 1")
		}
		if c.Init != "" {
			if _, err := ml.ParseInit(c.Init); err != nil {
				return err
			}
		}
	case Forest:
		if c.Trees < 1 {
			return fmt.Errorf("forest needs trees >= 1")
		}
	}
	return nil
}

// Level returns the zerolog level of the config.
func (cfg Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

// Build creates the configured classifiers.
// The clustering classifiers draw from the given random source.
func (cfg Config) Build(rng *rand.Rand) ([]ml.Classifier, error) {
	classifiers := make([]ml.Classifier, 0, len(cfg.Classifiers))
	for _, c := range cfg.Classifiers {
		classifier, err := c.Build(rng)
		if err != nil {
			return nil, err
		}
		classifiers = append(classifiers, classifier)
	}
	return classifiers, nil
}

// Build creates the classifier, filling in the defaults for the missing fields.
func (c Classifier) Build(rng *rand.Rand) (ml.Classifier, error) {
	p := c.P
	if p == 0 {
		p = ml.DefaultOrder
	}
	switch c.Type {
	case KNN:
		return ml.NewKNN(c.K, p)
	case KMeans:
		cfg := ml.DefaultKMeansConfig(c.K)
		cfg.P = p
		if c.MaxIter > 0 {
			cfg.MaxIter = c.MaxIter
		}
		if c.Init != "" {
			cfg.Init = ml.Init(c.Init)
		}
		if c.Restarts > 0 {
			cfg.Restarts = c.Restarts
		}
		return ml.NewKMeans(cfg, rng)
	case Forest:
		return ml.NewForest(c.Trees)
	}
	return nil, fmt.Errorf("unknown classifier type '%s': %w", c.Type, ErrInvalidConfig)
}

// Shard returns the storage for the reports.
func (s Storage) Shard() storage.Shard {
	switch s.Type {
	case FileStorage:
		return blob.BlobShard(s.Dir, "reports")
	case MemoryStorage:
		return storage.MockShard()
	}
	return storage.VoidShard("reports")
}
