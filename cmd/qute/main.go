// Command qute runs the QCDCL-based QBF solver against a QDIMACS or
// QCIR input file (or stdin), printing the result and, unless
// suppressed, a satisfying or falsifying certificate.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gitrdm/qute/pkg/frontend"
	"github.com/gitrdm/qute/pkg/qbf"
)

// Exit codes follow the QDIMACS/QBFEVAL convention: 10 for a
// satisfiable instance, 20 for unsatisfiable, 0 for an inconclusive
// (time-limited or interrupted) run, and 1/2 for usage/IO errors.
const (
	exitSAT     = 10
	exitUNSAT   = 20
	exitUndef   = 0
	exitUsage   = 1
	exitIOError = 2
)

// exitCodeError lets runSolve communicate a process exit code back to
// main through cobra's ordinary error return, so every deferred
// cleanup (logger flush, signal handler teardown, file close) still
// runs before the process actually exits.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func fail(code int, err error) error { return &exitCodeError{code: code, err: err} }

var (
	fv     flagValues
	format string
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "qute [file]",
	Short: "QCDCL solver for quantified boolean formulas",
	Long: `qute decides the satisfiability of a prenex quantified boolean
formula given in QDIMACS or QCIR form, using quantified conflict-driven
clause learning over a dual clause/term constraint database.

With no file argument, the formula is read from stdin.`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runSolve,
	SilenceUsage: true,
}

func init() {
	bindFlags(rootCmd.Flags(), &fv)
	rootCmd.Flags().StringVar(&format, "format", "", "input format: qdimacs|qcir (default: inferred from file extension)")
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		// Falling back to a no-op logger keeps the solver usable even
		// if zap itself cannot initialize in a constrained environment.
		return zap.NewNop()
	}
	return l
}

func runSolve(cmd *cobra.Command, args []string) error {
	runID := uuid.New().String()
	logger = newLogger(fv.verbose)
	defer logger.Sync()
	log := logger.With(zap.String("run_id", runID))

	opts := qbf.DefaultOptions()
	if fv.configFile != "" {
		merged, err := loadConfig(fv.configFile, opts)
		if err != nil {
			return fail(exitUsage, fmt.Errorf("reading --config: %w", err))
		}
		opts = merged
	}
	opts, err := optionsFromFlags(opts, &fv, cmd.Flags())
	if err != nil {
		return fail(exitUsage, fmt.Errorf("invalid options:\n%w", err))
	}

	if err := opts.Validate(); err != nil {
		return fail(exitUsage, fmt.Errorf("invalid options:\n%w", err))
	}

	name, rc, err := openInput(args)
	if err != nil {
		return fail(exitIOError, err)
	}
	defer rc.Close()

	f, err := parseFormula(rc, name, format)
	if err != nil {
		return fail(exitUsage, err)
	}
	log.Debug("parsed formula",
		zap.Int("max_var", f.MaxVar),
		zap.Int("clauses", len(f.Clauses)),
		zap.Int("terms", len(f.Terms)))

	var tracer qbf.Tracer = qbf.NullTracer{}
	var textTracer *qbf.TextTracer
	if opts.Trace {
		textTracer = qbf.NewTextTracer(os.Stdout)
		tracer = textTracer
	}

	solver, err := qbf.NewSolver(f, opts, tracer)
	if err != nil {
		return fail(exitUsage, err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if opts.TimeLimitSeconds > 0 {
		solver.SetDeadline(time.Now().Add(time.Duration(opts.TimeLimitSeconds * float64(time.Second))))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		if _, ok := <-sig; ok {
			log.Info("interrupt received, stopping search")
			solver.Interrupt()
			cancel()
		}
	}()

	answer, err := solver.Solve(ctx)
	if err != nil {
		return fail(exitUsage, err)
	}

	if textTracer != nil {
		textTracer.Flush()
	}

	printResult(answer, solver, opts)

	switch answer {
	case qbf.SAT:
		return fail(exitSAT, nil)
	case qbf.UNSAT:
		return fail(exitUNSAT, nil)
	default:
		return fail(exitUndef, nil)
	}
}

// openInput returns the named reader for args[0], or stdin ("-") if
// no argument was given. Stdin is wrapped so the caller can always
// defer Close.
func openInput(args []string) (string, io.ReadCloser, error) {
	if len(args) == 0 {
		return "-", io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return "", nil, fmt.Errorf("opening %s: %w", args[0], err)
	}
	return args[0], f, nil
}

func parseFormula(r io.Reader, name, format string) (*qbf.Formula, error) {
	switch strings.ToLower(format) {
	case "qdimacs":
		return frontend.ParseQDIMACS(r, name)
	case "qcir":
		return frontend.ParseQCIR(r, name)
	case "":
		// fall through to extension sniffing
	default:
		return nil, fmt.Errorf("unknown --format %q", format)
	}

	if strings.HasSuffix(strings.ToLower(name), ".qcir") {
		return frontend.ParseQCIR(r, name)
	}
	return frontend.ParseQDIMACS(r, name)
}

func printResult(answer qbf.Answer, solver *qbf.Solver, opts qbf.Options) {
	if opts.MachineReadable {
		fmt.Printf("s cnf %d\n", machineCode(answer))
	} else {
		fmt.Printf("c result: %s\n", answer)
	}

	if opts.PrintStats {
		st := solver.Stats
		fmt.Printf("c decisions:      %d\n", st.Decisions)
		fmt.Printf("c conflicts:      %d\n", st.Conflicts)
		fmt.Printf("c restarts:       %d\n", st.Restarts)
		fmt.Printf("c propagations:   %d\n", st.Propagations)
		fmt.Printf("c learnt clauses: %d\n", st.LearntClauses)
		fmt.Printf("c learnt terms:   %d\n", st.LearntTerms)
	}

	if (answer == qbf.SAT || answer == qbf.UNSAT) && !opts.PartialCertificate {
		printCertificate(solver)
	}
}

func machineCode(a qbf.Answer) int {
	switch a {
	case qbf.SAT:
		return 1
	case qbf.UNSAT:
		return -1
	default:
		return 0
	}
}

func printCertificate(solver *qbf.Solver) {
	vs := solver.VS
	fmt.Print("V")
	for v := 1; v <= vs.NumVars(); v++ {
		vv := qbf.Var(v)
		if !vs.IsAssigned(vv) {
			continue
		}
		if vs.Polarity(vv) {
			fmt.Printf(" %d", v)
		} else {
			fmt.Printf(" -%d", v)
		}
	}
	fmt.Println(" 0")
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var ec *exitCodeError
	if !asExitCodeError(err, &ec) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
	if ec.err != nil {
		fmt.Fprintf(os.Stderr, "qute: %v\n", ec.err)
	}
	os.Exit(ec.code)
}

func asExitCodeError(err error, target **exitCodeError) bool {
	if e, ok := err.(*exitCodeError); ok {
		*target = e
		return true
	}
	return false
}
