package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/qute/pkg/qbf"
)

// fileConfig mirrors the subset of qbf.Options a YAML --config file may
// pre-populate; zero/absent fields leave the corresponding default (or
// later flag override) untouched. Field names follow the flag table in
// SPEC_FULL.md §6 with YAML's conventional lower-kebab-case keys.
type fileConfig struct {
	Heuristic          *string  `yaml:"heuristic"`
	TieBreak           *string  `yaml:"tie-break"`
	Phase              *string  `yaml:"phase"`
	Restart            *string  `yaml:"restart"`
	RestartInner       *int     `yaml:"restart-inner"`
	RestartOuterMult   *float64 `yaml:"restart-outer-mult"`
	RestartLubyMult    *int     `yaml:"restart-luby-mult"`
	RestartEMAShort    *float64 `yaml:"restart-ema-short"`
	RestartEMALong     *float64 `yaml:"restart-ema-long"`
	RestartEMAThreshold *float64 `yaml:"restart-ema-threshold"`
	RestartEMAMinDist  *int     `yaml:"restart-ema-mindist"`
	ModelGen           *string  `yaml:"model-gen"`
	ModelGenScale      *float64 `yaml:"model-gen-scale"`
	ModelGenExponent   *float64 `yaml:"model-gen-exponent"`
	ModelGenUniversalPenalty *float64 `yaml:"model-gen-universal-penalty"`
	DependencyLearning *string  `yaml:"dependency-learning"`
	RRS                *string  `yaml:"rrs"`
	WatchedLiterals    *int     `yaml:"watched-literals"`
	OOODecisions       *string  `yaml:"ooo-decisions"`
	DBInitClauses      *int     `yaml:"db-init-clauses"`
	DBInitTerms        *int     `yaml:"db-init-terms"`
	DBIncrement        *float64 `yaml:"db-increment"`
	RemovalRatio       *float64 `yaml:"removal-ratio"`
	LBDThreshold       *int     `yaml:"lbd-threshold"`
	ActivityDecay      *float64 `yaml:"activity-decay"`
	ActivityIncrement  *float64 `yaml:"activity-increment"`
}

// loadConfig reads a YAML config file and applies it on top of opts,
// returning the merged options. Called before flag parsing so flags
// that were actually set on the command line still win.
func loadConfig(path string, opts qbf.Options) (qbf.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return opts, err
	}

	if cfg.Heuristic != nil {
		kind, ok := parseHeuristic(*cfg.Heuristic)
		if !ok {
			return opts, fmt.Errorf("heuristic: unrecognized value %q (want vmtf, vsids, or sgdb)", *cfg.Heuristic)
		}
		opts.Heuristic = kind
	}
	if cfg.TieBreak != nil {
		opts.TieBreak = parseTieBreak(*cfg.TieBreak)
	}
	if cfg.Phase != nil {
		opts.Phase = parsePhase(*cfg.Phase)
	}
	if cfg.Restart != nil {
		opts.Restart = parseRestart(*cfg.Restart)
	}
	if cfg.RestartInner != nil {
		opts.RestartInner = *cfg.RestartInner
	}
	if cfg.RestartOuterMult != nil {
		opts.RestartOuterMult = *cfg.RestartOuterMult
	}
	if cfg.RestartLubyMult != nil {
		opts.RestartLubyMult = *cfg.RestartLubyMult
	}
	if cfg.RestartEMAShort != nil {
		opts.RestartEMAShort = *cfg.RestartEMAShort
	}
	if cfg.RestartEMALong != nil {
		opts.RestartEMALong = *cfg.RestartEMALong
	}
	if cfg.RestartEMAThreshold != nil {
		opts.RestartEMAThreshold = *cfg.RestartEMAThreshold
	}
	if cfg.RestartEMAMinDist != nil {
		opts.RestartEMAMinDist = *cfg.RestartEMAMinDist
	}
	if cfg.ModelGen != nil {
		opts.ModelGen = parseModelGen(*cfg.ModelGen)
	}
	if cfg.ModelGenScale != nil {
		opts.ModelGenScale = *cfg.ModelGenScale
	}
	if cfg.ModelGenExponent != nil {
		opts.ModelGenExponent = *cfg.ModelGenExponent
	}
	if cfg.ModelGenUniversalPenalty != nil {
		opts.ModelGenUniversalPenalty = *cfg.ModelGenUniversalPenalty
	}
	if cfg.DependencyLearning != nil {
		opts.DependencyLearning = parseDependencyScheme(*cfg.DependencyLearning)
	}
	if cfg.RRS != nil {
		opts.RRS = parseRRS(*cfg.RRS)
	}
	if cfg.WatchedLiterals != nil {
		opts.WatchedLiterals = *cfg.WatchedLiterals
	}
	if cfg.OOODecisions != nil {
		opts.OOODecisions = parseOOOScope(*cfg.OOODecisions)
	}
	if cfg.DBInitClauses != nil {
		opts.InitialLearntBudget = *cfg.DBInitClauses
	}
	if cfg.DBInitTerms != nil {
		opts.InitialLearntTermBudget = *cfg.DBInitTerms
	}
	if cfg.DBIncrement != nil {
		opts.LearntBudgetGrowth = *cfg.DBIncrement
	}
	if cfg.RemovalRatio != nil {
		opts.RemovalRatio = *cfg.RemovalRatio
	}
	if cfg.LBDThreshold != nil {
		opts.LBDThreshold = *cfg.LBDThreshold
	}
	if cfg.ActivityDecay != nil {
		opts.ActivityDecay = *cfg.ActivityDecay
	}
	if cfg.ActivityIncrement != nil {
		opts.ActivityIncrement = *cfg.ActivityIncrement
	}
	return opts, nil
}
