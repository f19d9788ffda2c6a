package wadmap

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Game selects the thing flag layout of legacy format maps.
type Game string

const (
	GameDoom    Game = "doom"
	GameHeretic Game = "heretic"
	GameHexen   Game = "hexen"
	GameStrife  Game = "strife"
)

// Options control a level load.
type Options struct {
	Game                    Game `yaml:"game"`
	MissingTextureWarnLimit int  `yaml:"missing_texture_warn_limit"` // warnings per texture name
	ForceNodeBuild          bool `yaml:"force_node_build"`           // reject the stored BSP tree
	ForceBlockmapBuild      bool `yaml:"force_blockmap_build"`       // reject the stored blockmap
	KeepDegenerateLines     bool `yaml:"keep_degenerate_lines"`      // keep zero length lines
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Game:                    GameDoom,
		MissingTextureWarnLimit: 20,
	}
}

// LoadOptions reads options from a YAML file. Fields missing from the file keep their
// default values.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Wrap(err, "read options")
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, errors.Wrap(err, "parse options")
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	switch o.Game {
	case GameDoom, GameHeretic, GameHexen, GameStrife:
	default:
		return errors.Errorf("unknown game %q", o.Game)
	}
	if o.MissingTextureWarnLimit < 0 {
		return errors.Errorf("missing_texture_warn_limit must not be negative, got %d", o.MissingTextureWarnLimit)
	}
	return nil
}
