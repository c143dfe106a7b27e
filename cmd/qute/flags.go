package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gitrdm/qute/pkg/qbf"
)

// flagValues holds the string/float/int/bool scratch fields that
// bindFlags registers and optionsFromFlags later resolves into a
// qbf.Options. Enum-valued flags are bound as strings and parsed after
// Parse() returns: an unknown --heuristic value is reported as a
// *qbf.OptionError, while an unknown value of any other enum flag is
// mapped to a fixed default value without an error.
type flagValues struct {
	heuristic, tieBreak, phase, restart, modelGen string
	dependencyLearning, rrs, oooDecisions         string

	dbInitClauses, dbInitTerms                     int
	dbIncrement, removalRatio                      float64
	lbdThreshold                                   int
	activityDecay, activityIncrement               float64
	compactionThresholdWords                       int

	restartInner                                   int
	restartOuterMult                               float64
	restartLubyMult                                int
	restartEMAShort, restartEMALong                float64
	restartEMAThreshold                            float64
	restartEMAMinDist                              int

	modelGenScale, modelGenExponent, modelGenUniversalPenalty float64

	watchedLiterals int

	verbose, printStats, trace, machineReadable bool
	partialCertificate, enumerate               bool
	timeLimitSeconds                            float64

	configFile string
}

func bindFlags(fs *pflag.FlagSet, fv *flagValues) {
	fs.StringVar(&fv.heuristic, "heuristic", "vmtf", "decision heuristic: vmtf|vsids|sgdb")
	fs.StringVar(&fv.tieBreak, "tie-break", "occurrence", "tie-break rule: occurrence|random")
	fs.StringVar(&fv.phase, "phase", "invjw", "initial phase: invjw|qtype|watcher|random|true|false")

	fs.StringVar(&fv.restart, "restart", "inner-outer", "restart scheduler: none|inner-outer|luby|ema")
	fs.IntVar(&fv.restartInner, "restart-inner", 100, "inner-outer: initial inner period, in conflicts")
	fs.Float64Var(&fv.restartOuterMult, "restart-outer-mult", 1.1, "inner-outer: outer period growth factor")
	fs.IntVar(&fv.restartLubyMult, "restart-luby-mult", 100, "luby: base unit, in conflicts")
	fs.Float64Var(&fv.restartEMAShort, "restart-ema-short", 1.0/32, "ema: fast LBD average decay")
	fs.Float64Var(&fv.restartEMALong, "restart-ema-long", 1.0/4096, "ema: slow LBD average decay")
	fs.Float64Var(&fv.restartEMAThreshold, "restart-ema-threshold", 1.25, "ema: fast/slow ratio that triggers a restart")
	fs.IntVar(&fv.restartEMAMinDist, "restart-ema-mindist", 50, "ema: minimum conflicts between restarts")

	fs.StringVar(&fv.modelGen, "model-gen", "simple", "model generator: simple|weighted")
	fs.Float64Var(&fv.modelGenScale, "model-gen-scale", 1, "weighted: literal weight scale")
	fs.Float64Var(&fv.modelGenExponent, "model-gen-exponent", 1, "weighted: literal weight exponent")
	fs.Float64Var(&fv.modelGenUniversalPenalty, "model-gen-universal-penalty", 1, "weighted: weight multiplier for universal variables")

	fs.StringVar(&fv.dependencyLearning, "dependency-learning", "all", "dependency-learning scheme: all|outermost|fewest|off")
	fs.StringVar(&fv.rrs, "rrs", "off", "reflexive resolution-path independence: off|filter|full")
	fs.IntVar(&fv.watchedLiterals, "watched-literals", 2, "watchers per constraint: 2 or 3")
	fs.StringVar(&fv.oooDecisions, "ooo-decisions", "none", "out-of-order decision scope: none|existential|universal|both")

	fs.IntVar(&fv.dbInitClauses, "db-init-clauses", 2000, "initial learnt-clause budget")
	fs.IntVar(&fv.dbInitTerms, "db-init-terms", 2000, "initial learnt-term budget")
	fs.Float64Var(&fv.dbIncrement, "db-increment", 1.1, "learnt-budget growth factor after each cleanup")
	fs.Float64Var(&fv.removalRatio, "removal-ratio", 0.5, "fraction of non-glue learnt constraints removed per cleanup")
	fs.IntVar(&fv.lbdThreshold, "lbd-threshold", 2, "LBD at or below which a learnt constraint is never removed")
	fs.Float64Var(&fv.activityDecay, "activity-decay", 0.999, "activity decay factor applied per conflict")
	fs.Float64Var(&fv.activityIncrement, "activity-increment", 1, "activity bump applied to antecedents of a conflict")
	fs.IntVar(&fv.compactionThresholdWords, "compaction-threshold-words", 1<<16, "wasted arena words that trigger compaction")

	fs.BoolVar(&fv.verbose, "verbose", false, "log progress to stderr")
	fs.BoolVar(&fv.printStats, "print-stats", false, "print solver statistics before exiting")
	fs.BoolVar(&fv.trace, "trace", false, "emit a resolution trace")
	fs.BoolVar(&fv.machineReadable, "machine-readable", false, "print result and certificate in a machine-parseable form")
	fs.BoolVar(&fv.partialCertificate, "partial-certificate", false, "omit the V assignment line (no reduced certificate is printed)")
	fs.BoolVar(&fv.enumerate, "enumerate", false, "enumerate every model/countermodel instead of stopping at the first")
	fs.Float64Var(&fv.timeLimitSeconds, "time-limit", 0, "wall-clock time limit in seconds (0 = unbounded)")

	fs.StringVar(&fv.configFile, "config", "", "YAML file of option defaults, overridden by any flag also given on the command line")
}

// optionsFromFlags resolves fv (plus whatever --config already merged
// into base) into a qbf.Options. An unknown --heuristic value is
// reported as a *qbf.OptionError next to ordinary validation errors;
// unknown values of the other enum flags are not reported.
func optionsFromFlags(base qbf.Options, fv *flagValues, fs *pflag.FlagSet) (qbf.Options, error) {
	o := base

	var errs []error

	setString := func(name string, set func(string)) {
		if fs.Changed(name) {
			set(fs.Lookup(name).Value.String())
		}
	}
	if fs.Changed("heuristic") {
		v := fs.Lookup("heuristic").Value.String()
		kind, ok := parseHeuristic(v)
		if !ok {
			errs = append(errs, &qbf.OptionError{Field: "heuristic", Msg: fmt.Sprintf("unrecognized value %q (want vmtf, vsids, or sgdb)", v)})
		}
		o.Heuristic = kind
	}
	setString("tie-break", func(v string) { o.TieBreak = parseTieBreak(v) })
	setString("phase", func(v string) { o.Phase = parsePhase(v) })
	setString("restart", func(v string) { o.Restart = parseRestart(v) })
	setString("model-gen", func(v string) { o.ModelGen = parseModelGen(v) })
	setString("dependency-learning", func(v string) { o.DependencyLearning = parseDependencyScheme(v) })
	setString("rrs", func(v string) { o.RRS = parseRRS(v) })
	setString("ooo-decisions", func(v string) { o.OOODecisions = parseOOOScope(v) })

	if fs.Changed("restart-inner") {
		o.RestartInner = fv.restartInner
	}
	if fs.Changed("restart-outer-mult") {
		o.RestartOuterMult = fv.restartOuterMult
	}
	if fs.Changed("restart-luby-mult") {
		o.RestartLubyMult = fv.restartLubyMult
	}
	if fs.Changed("restart-ema-short") {
		o.RestartEMAShort = fv.restartEMAShort
	}
	if fs.Changed("restart-ema-long") {
		o.RestartEMALong = fv.restartEMALong
	}
	if fs.Changed("restart-ema-threshold") {
		o.RestartEMAThreshold = fv.restartEMAThreshold
	}
	if fs.Changed("restart-ema-mindist") {
		o.RestartEMAMinDist = fv.restartEMAMinDist
	}
	if fs.Changed("model-gen-scale") {
		o.ModelGenScale = fv.modelGenScale
	}
	if fs.Changed("model-gen-exponent") {
		o.ModelGenExponent = fv.modelGenExponent
	}
	if fs.Changed("model-gen-universal-penalty") {
		o.ModelGenUniversalPenalty = fv.modelGenUniversalPenalty
	}
	if fs.Changed("watched-literals") {
		o.WatchedLiterals = fv.watchedLiterals
	}
	if fs.Changed("db-init-clauses") {
		o.InitialLearntBudget = fv.dbInitClauses
	}
	if fs.Changed("db-init-terms") {
		o.InitialLearntTermBudget = fv.dbInitTerms
	}
	if fs.Changed("db-increment") {
		o.LearntBudgetGrowth = fv.dbIncrement
	}
	if fs.Changed("removal-ratio") {
		o.RemovalRatio = fv.removalRatio
	}
	if fs.Changed("lbd-threshold") {
		o.LBDThreshold = fv.lbdThreshold
	}
	if fs.Changed("activity-decay") {
		o.ActivityDecay = fv.activityDecay
	}
	if fs.Changed("activity-increment") {
		o.ActivityIncrement = fv.activityIncrement
	}
	if fs.Changed("compaction-threshold-words") {
		o.CompactionThresholdWords = fv.compactionThresholdWords
	}

	o.Verbose = fv.verbose
	o.PrintStats = fv.printStats
	o.Trace = fv.trace
	o.MachineReadable = fv.machineReadable
	o.PartialCertificate = fv.partialCertificate
	o.Enumerate = fv.enumerate
	if fs.Changed("time-limit") {
		o.TimeLimitSeconds = fv.timeLimitSeconds
	}
	o.ConfigFile = fv.configFile

	if len(errs) > 0 {
		return o, errors.Join(errs...)
	}
	return o, nil
}

// parseHeuristic recognizes only the heuristics NewHeuristic actually
// implements. vmtf-block/vmtf-ooo/vmtf-deplearn are documented
// decision-heuristic variants that would need the Heuristic interface
// to carry per-block/per-dependency information it does not currently
// receive; rather than alias them to plain VMTF (silently running a
// different heuristic than the one asked for), they are reported as
// unrecognized so Validate's caller can surface a proper option error.
func parseHeuristic(s string) (qbf.HeuristicKind, bool) {
	switch strings.ToLower(s) {
	case "vmtf":
		return qbf.HeuristicVMTF, true
	case "vsids":
		return qbf.HeuristicVSIDS, true
	case "sgdb":
		return qbf.HeuristicSGDB, true
	default:
		return qbf.HeuristicVMTF, false
	}
}

func parseTieBreak(s string) qbf.TieBreakKind {
	if strings.ToLower(s) == "random" {
		return qbf.TieBreakRandom
	}
	return qbf.TieBreakOccurrence
}

func parsePhase(s string) qbf.PhaseKind {
	switch strings.ToLower(s) {
	case "qtype":
		return qbf.PhaseQType
	case "watcher":
		return qbf.PhaseWatcher
	case "random":
		return qbf.PhaseRandom
	case "true":
		return qbf.PhaseTrue
	case "false":
		return qbf.PhaseFalse
	default:
		return qbf.PhaseInvJW
	}
}

func parseRestart(s string) qbf.RestartKind {
	switch strings.ToLower(s) {
	case "none":
		return qbf.RestartNone
	case "luby":
		return qbf.RestartLuby
	case "ema":
		return qbf.RestartEMA
	default:
		return qbf.RestartInnerOuter
	}
}

func parseModelGen(s string) qbf.ModelGenKind {
	if strings.ToLower(s) == "weighted" {
		return qbf.ModelGenWeighted
	}
	return qbf.ModelGenSimple
}

func parseDependencyScheme(s string) qbf.DependencyScheme {
	switch strings.ToLower(s) {
	case "outermost":
		return qbf.DepOutermost
	case "fewest":
		return qbf.DepFewest
	case "off":
		return qbf.DepOff
	default:
		return qbf.DepAll
	}
}

func parseRRS(s string) qbf.RRSMode {
	switch strings.ToLower(s) {
	case "filter":
		return qbf.RRSFilter
	case "full":
		return qbf.RRSFull
	default:
		return qbf.RRSOff
	}
}

func parseOOOScope(s string) qbf.OOOScope {
	switch strings.ToLower(s) {
	case "existential":
		return qbf.OOOExistential
	case "universal":
		return qbf.OOOUniversal
	case "both":
		return qbf.OOOBoth
	default:
		return qbf.OOONone
	}
}
