package embed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/pdkind/pkg/errs"
)

// FileConfig is the on-disk shape of a context's option table, letting
// a host keep its solver/engine/limit choices in a checked-in YAML
// file rather than building the raw map spec.md §6.1 describes by
// hand. Every field mirrors one entry of that option table; Options in
// pkg/pdkind remains the table NewOptions actually validates against,
// so a bad value here surfaces as the same ConfigError a bad raw map
// would. Keys the struct does not declare are ignored when the file is
// read.
type FileConfig struct {
	Engine            string `yaml:"engine"`
	Solver            string `yaml:"solver"`
	SolverLogic       string `yaml:"solver_logic"`
	MaxFrames         int    `yaml:"ic3_max_frames"`
	MaxFrameSize      int    `yaml:"ic3_max_frame_size"`
	MaxInductionDepth int    `yaml:"induction_max_depth"`
	ShowTrace         bool   `yaml:"show_trace"`
	ShowInvariant     bool   `yaml:"show_invariant"`
	LogLevel          string `yaml:"log_level"`
}

// LoadConfigFile reads path as YAML and converts it to the raw
// string-keyed option map CreateContext expects. Zero-valued numeric
// fields are omitted so pkg/pdkind's own defaults (DefaultMaxFrames,
// DefaultMaxFrameSize) still apply when the file doesn't set them.
func LoadConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.Config, err, "embed: reading config %s", path)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, errs.Wrap(errs.Config, err, "embed: parsing config %s", path)
	}
	return fc.toRawOptions(), nil
}

func (fc FileConfig) toRawOptions() map[string]string {
	raw := make(map[string]string)
	if fc.Engine != "" {
		raw["engine"] = fc.Engine
	}
	if fc.Solver != "" {
		raw["solver"] = fc.Solver
	}
	if fc.SolverLogic != "" {
		raw["solver-logic"] = fc.SolverLogic
	}
	if fc.MaxFrames != 0 {
		raw["ic3-max-frames"] = fmt.Sprintf("%d", fc.MaxFrames)
	}
	if fc.MaxFrameSize != 0 {
		raw["ic3-max-frame-size"] = fmt.Sprintf("%d", fc.MaxFrameSize)
	}
	if fc.MaxInductionDepth != 0 {
		raw["induction-max-depth"] = fmt.Sprintf("%d", fc.MaxInductionDepth)
	}
	if fc.ShowTrace {
		raw["show-trace"] = "true"
	}
	if fc.ShowInvariant {
		raw["show-invariant"] = "true"
	}
	if fc.LogLevel != "" {
		raw["log-level"] = fc.LogLevel
	}
	return raw
}
