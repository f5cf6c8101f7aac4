package dataset

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvr-ai/go-detset/annotation"
	"github.com/nvr-ai/go-detset/transforms"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate and by New for unusable configurations.
var ErrInvalidConfig = errors.New("invalid dataset config")

// Mode is the annotation layout a dataset is read from.
type Mode int

const (
	// ModeVOCImageDir enumerates an image directory and expects <stem>.xml per image.
	ModeVOCImageDir Mode = iota
	// ModeVOCFromAnnotations enumerates the annotation directory and reads each image
	// path out of its annotation.
	ModeVOCFromAnnotations
	// ModeCOCO reads a single COCO JSON file.
	ModeCOCO
)

func (m Mode) String() string {
	switch m {
	case ModeVOCImageDir:
		return "voc-image-dir"
	case ModeVOCFromAnnotations:
		return "voc-from-annotations"
	case ModeCOCO:
		return "coco"
	default:
		return "unknown"
	}
}

// Config describes where a detection dataset lives and how it is split and batched.
type Config struct {
	// Root is the dataset directory all other paths are relative to.
	Root string `json:"root" yaml:"root"`
	// AnnotationDir holds Pascal VOC XML files.
	AnnotationDir string `json:"annotationDir" yaml:"annotationDir"`
	// ImageDir holds the images. When empty the image path is read from each annotation.
	// In COCO mode file names are resolved against it.
	ImageDir string `json:"imageDir" yaml:"imageDir"`
	// MaskDir, when set, enables mask mode: every image needs <stem>.png in it.
	MaskDir string `json:"maskDir,omitempty" yaml:"maskDir,omitempty"`
	// AnnotationFile, when set, selects COCO mode.
	AnnotationFile string `json:"annotationFile,omitempty" yaml:"annotationFile,omitempty"`
	// MaxImages caps the number of COCO images considered. 0 reads all of them.
	MaxImages int `json:"maxImages,omitempty" yaml:"maxImages,omitempty"`
	// Labels is an explicit ordered label list. Unknown labels are then fatal.
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	// Keypoints is the keypoint schema of VOC annotations.
	Keypoints *annotation.KeypointSchema `json:"keypoints,omitempty" yaml:"keypoints,omitempty"`
	// SkipMalformed drops unparseable annotations instead of failing.
	SkipMalformed bool `json:"skipMalformed,omitempty" yaml:"skipMalformed,omitempty"`

	TrainPct   float64 `json:"trainPct" yaml:"trainPct"`
	Seed       *int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
	BatchSize  int     `json:"batchSize" yaml:"batchSize"`
	NumWorkers int     `json:"numWorkers" yaml:"numWorkers"`
	Quiet      bool    `json:"quiet,omitempty" yaml:"quiet,omitempty"`

	// Transforms defaults to transforms.DefaultPipelinesSeeded(Seed) when both are nil.
	Transforms transforms.Pipelines `json:"-" yaml:"-"`
	// Logger defaults to log.Default.
	Logger *log.Logger `json:"-" yaml:"-"`
}

// DefaultConfig returns the configuration of a Pascal VOC dataset under root laid out as
// annotations/ and images/, split evenly and batched in pairs.
func DefaultConfig(root string) Config {
	return Config{
		Root:          root,
		AnnotationDir: "annotations",
		ImageDir:      "images",
		TrainPct:      0.5,
		BatchSize:     2,
	}
}

// Mode resolves which layout the configuration describes.
func (c *Config) Mode() Mode {
	switch {
	case c.AnnotationFile != "":
		return ModeCOCO
	case c.ImageDir == "":
		return ModeVOCFromAnnotations
	default:
		return ModeVOCImageDir
	}
}

// MaskMode reports whether every image requires a mask file.
func (c *Config) MaskMode() bool {
	return c.MaskDir != ""
}

// Validate checks the configuration for values New cannot work with.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.Wrap(ErrInvalidConfig, "root must be set")
	}
	if c.Mode() != ModeCOCO && c.AnnotationDir == "" {
		return errors.Wrap(ErrInvalidConfig, "annotationDir must be set")
	}
	if c.TrainPct <= 0 || c.TrainPct > 1 {
		return errors.Wrapf(ErrInvalidConfig, "trainPct must be in (0, 1], got %v", c.TrainPct)
	}
	if c.BatchSize < 1 {
		return errors.Wrapf(ErrInvalidConfig, "batchSize must be positive, got %d", c.BatchSize)
	}
	if c.NumWorkers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "numWorkers must not be negative, got %d", c.NumWorkers)
	}
	if c.MaxImages < 0 {
		return errors.Wrapf(ErrInvalidConfig, "maxImages must not be negative, got %d", c.MaxImages)
	}
	if c.Keypoints != nil && len(c.Keypoints.Labels) == 0 {
		return errors.Wrap(ErrInvalidConfig, "keypoint schema has no labels")
	}
	return nil
}

// annotationFilePath returns AnnotationFile, resolved against Root when relative.
func (c *Config) annotationFilePath() string {
	if filepath.IsAbs(c.AnnotationFile) {
		return c.AnnotationFile
	}
	return filepath.Join(c.Root, c.AnnotationFile)
}

func (c *Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig reads a configuration from a YAML (.yaml, .yml) or JSON file. Fields absent
// from the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig("")
	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config %s", path)
	}

	return &config, nil
}

// SaveConfig writes the configuration to path, as YAML or JSON depending on its extension.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}
