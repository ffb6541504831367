package config

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/drakos74/free-shape/internal/math/ml"
	"github.com/drakos74/free-shape/internal/storage"
	blob "github.com/drakos74/free-shape/internal/storage/file/json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	classifiers, err := cfg.Build(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, classifiers, 3)
	assert.Equal(t, "knn(k=1,p=2)", classifiers[0].String())
	assert.Equal(t, "kmeans(k=9,p=2,init=kmeans++)", classifiers[2].String())
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoad_File(t *testing.T) {

	type test struct {
		content string
		name    string
		check   func(t *testing.T, cfg Config)
		err     error
	}

	tests := map[string]test{
		"yaml": {
			name: "shape.yaml",
			content: `
seed: 42
log_level: debug
data:
  dir: /data/e34
evaluation:
  train_fraction: 0.5
  folds: 5
classifiers:
  - type: knn
    k: 3
    p: 1
  - type: kmeans
    k: 9
    init: Enhanced_Random
  - type: forest
    trees: 10
`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, int64(42), cfg.Seed)
				assert.Equal(t, zerolog.DebugLevel, cfg.Level())
				assert.Equal(t, "/data/e34", cfg.Data.Dir)
				assert.Equal(t, 0.5, cfg.Evaluation.TrainFraction)
				assert.Equal(t, 5, cfg.Evaluation.Folds)
				// untouched fields keep the defaults
				assert.True(t, cfg.Evaluation.Shuffle)
				require.Len(t, cfg.Classifiers, 3)
				classifiers, err := cfg.Build(rand.New(rand.NewSource(1)))
				require.NoError(t, err)
				assert.Equal(t, "knn(k=3,p=1)", classifiers[0].String())
				assert.Equal(t, "kmeans(k=9,p=2,init=enhanced_random)", classifiers[1].String())
				assert.Equal(t, "forest(trees=10)", classifiers[2].String())
			},
		},
		"json": {
			name:    "shape.json",
			content: `{"seed": 7, "classifiers": [{"type": "knn", "k": 1}]}`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, int64(7), cfg.Seed)
				require.Len(t, cfg.Classifiers, 1)
			},
		},
		"invalid-fraction": {
			name:    "shape.yaml",
			content: "evaluation:\n  train_fraction: 1.5\n  folds: 3\n",
			err:     ErrInvalidConfig,
		},
		"invalid-folds": {
			name:    "shape.yaml",
			content: "evaluation:\n  train_fraction: 0.5\n  folds: 1\n",
			err:     ErrInvalidConfig,
		},
		"unknown-classifier": {
			name:    "shape.yaml",
			content: "classifiers:\n  - type: svm\n",
			err:     ErrInvalidConfig,
		},
		"knn-without-k": {
			name:    "shape.yaml",
			content: "classifiers:\n  - type: knn\n",
			err:     ErrInvalidConfig,
		},
		"kmeans-unknown-init": {
			name:    "shape.yaml",
			content: "classifiers:\n  - type: kmeans\n    k: 3\n    init: forgy\n",
			err:     ErrInvalidConfig,
		},
		"forest-without-trees": {
			name:    "shape.yaml",
			content: "classifiers:\n  - type: forest\n",
			err:     ErrInvalidConfig,
		},
		"no-classifiers": {
			name:    "shape.yaml",
			content: "classifiers: []\n",
			err:     ErrInvalidConfig,
		},
		"bad-log-level": {
			name:    "shape.yaml",
			content: "log_level: loud\n",
			err:     ErrInvalidConfig,
		},
		"bad-metrics-addr": {
			name:    "shape.yaml",
			content: "metrics:\n  addr: nowhere\n",
			err:     ErrInvalidConfig,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			cfg, err := Load(path)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Unparseable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shape.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: [1"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SHAPE_SEED", "99")
	t.Setenv("SHAPE_LOG_LEVEL", "WARN")
	t.Setenv("SHAPE_DATA_DIR", "/tmp/shapes")
	t.Setenv("SHAPE_FOLDS", "4")
	t.Setenv("SHAPE_TRAIN_FRACTION", "0.25")
	t.Setenv("SHAPE_SHUFFLE", "false")
	t.Setenv("SHAPE_VERBOSE", "true")
	t.Setenv("SHAPE_METRICS_ADDR", "localhost:9090")
	t.Setenv("SHAPE_STORAGE_TYPE", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, zerolog.WarnLevel, cfg.Level())
	assert.Equal(t, "/tmp/shapes", cfg.Data.Dir)
	assert.Equal(t, 4, cfg.Evaluation.Folds)
	assert.Equal(t, 0.25, cfg.Evaluation.TrainFraction)
	assert.False(t, cfg.Evaluation.Shuffle)
	assert.True(t, cfg.Evaluation.Verbose)
	assert.Equal(t, "localhost:9090", cfg.Metrics.Addr)
	assert.Equal(t, MemoryStorage, cfg.Storage.Type)

	t.Setenv("SHAPE_FOLDS", "1")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestClassifier_Build(t *testing.T) {
	_, err := Classifier{Type: "svm"}.Build(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Classifier{Type: KNN}.Build(nil)
	assert.ErrorIs(t, err, ml.ErrInvalidConfig)

	c, err := Classifier{Type: KMeans, K: 2, MaxIter: 3, Restarts: 2}.Build(nil)
	require.NoError(t, err)
	assert.IsType(t, &ml.KMeans{}, c)
}

func TestStorage_Shard(t *testing.T) {
	dir := t.TempDir()

	p, err := Storage{Type: FileStorage, Dir: dir}.Shard()("split")
	require.NoError(t, err)
	assert.IsType(t, &blob.BlobStorage{}, p)

	p, err = Storage{Type: MemoryStorage}.Shard()("split")
	require.NoError(t, err)
	assert.IsType(t, &storage.MockStorage{}, p)

	p, err = Storage{Type: VoidStorage}.Shard()("split")
	require.NoError(t, err)
	assert.IsType(t, &storage.VoidStorage{}, p)

	cfg := Default()
	cfg.Storage.Dir = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
