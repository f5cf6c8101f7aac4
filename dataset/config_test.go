package dataset

import (
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-detset/annotation"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMode(t *testing.T) {
	cfg := DefaultConfig("data")
	assert.Equal(t, ModeVOCImageDir, cfg.Mode())
	assert.False(t, cfg.MaskMode())

	cfg.ImageDir = ""
	assert.Equal(t, ModeVOCFromAnnotations, cfg.Mode())

	cfg.AnnotationFile = "instances.json"
	assert.Equal(t, ModeCOCO, cfg.Mode())
	assert.Equal(t, "coco", cfg.Mode().String())

	cfg.MaskDir = "segmentation-masks"
	assert.True(t, cfg.MaskMode())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		valid  bool
	}{
		{name: "default", modify: func(c *Config) {}, valid: true},
		{name: "train only", modify: func(c *Config) { c.TrainPct = 1 }, valid: true},
		{name: "no root", modify: func(c *Config) { c.Root = "" }},
		{name: "zero train pct", modify: func(c *Config) { c.TrainPct = 0 }},
		{name: "train pct above one", modify: func(c *Config) { c.TrainPct = 1.5 }},
		{name: "zero batch size", modify: func(c *Config) { c.BatchSize = 0 }},
		{name: "negative workers", modify: func(c *Config) { c.NumWorkers = -1 }},
		{name: "negative max images", modify: func(c *Config) { c.MaxImages = -1 }},
		{name: "no annotation dir", modify: func(c *Config) { c.AnnotationDir = "" }},
		{
			name: "coco without annotation dir",
			modify: func(c *Config) {
				c.AnnotationDir = ""
				c.AnnotationFile = "instances.json"
			},
			valid: true,
		},
		{
			name:   "empty keypoint schema",
			modify: func(c *Config) { c.Keypoints = &annotation.KeypointSchema{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("data")
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	writeFile(t, path, `
root: /data/odFridgeObjects
imageDir: ""
maskDir: segmentation-masks
trainPct: 0.75
seed: 10
keypoints:
  labels: [lid_left_top, lid_right_top]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/odFridgeObjects", cfg.Root)
	assert.Equal(t, "annotations", cfg.AnnotationDir)
	assert.Equal(t, ModeVOCFromAnnotations, cfg.Mode())
	assert.True(t, cfg.MaskMode())
	assert.Equal(t, 0.75, cfg.TrainPct)
	assert.Equal(t, 2, cfg.BatchSize)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(10), *cfg.Seed)
	assert.Equal(t, []string{"lid_left_top", "lid_right_top"}, cfg.Keypoints.Labels)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoadConfig(t *testing.T) {
	seed := int64(3)
	cfg := DefaultConfig("/data/coco")
	cfg.AnnotationFile = "instances_val2017.json"
	cfg.MaxImages = 20
	cfg.Seed = &seed
	cfg.Labels = []string{"person", "car"}

	for _, name := range []string{"dataset.json", "dataset.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, cfg.SaveConfig(path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Root, loaded.Root)
			assert.Equal(t, cfg.AnnotationFile, loaded.AnnotationFile)
			assert.Equal(t, 20, loaded.MaxImages)
			assert.Equal(t, cfg.Labels, loaded.Labels)
			assert.Equal(t, seed, *loaded.Seed)
			assert.Equal(t, ModeCOCO, loaded.Mode())
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	writeFile(t, path, "{root:")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
