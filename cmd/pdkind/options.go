package main

import (
	"strconv"

	"github.com/gitrdm/pdkind/pkg/embed"
)

// buildOptions merges --config's YAML file (if given) with the
// individual flags, flags taking precedence since they were named
// explicitly on this invocation.
func buildOptions() (map[string]string, error) {
	raw := make(map[string]string)
	if flagConfig != "" {
		fileOpts, err := embed.LoadConfigFile(flagConfig)
		if err != nil {
			return nil, err
		}
		for k, v := range fileOpts {
			raw[k] = v
		}
	}
	if flagSolver != "" {
		raw["solver"] = flagSolver
	}
	if flagSolverLogic != "" {
		raw["solver-logic"] = flagSolverLogic
	}
	if flagMaxFrames > 0 {
		raw["ic3-max-frames"] = strconv.Itoa(flagMaxFrames)
	}
	if flagMaxFrame > 0 {
		raw["ic3-max-frame-size"] = strconv.Itoa(flagMaxFrame)
	}
	if flagMaxInductionDepth > 0 {
		raw["induction-max-depth"] = strconv.Itoa(flagMaxInductionDepth)
	}
	if flagVerbose {
		raw["log-level"] = "debug"
	}
	return raw, nil
}
