// Command pmaxsat is the CLI entry point (§6.3, §6.4): it resolves
// configuration, parses one of the three §6.2 input grammars, builds
// the SAT oracle, asserts the formula, dispatches to the configured
// search strategy, and reports the result the way a DIMACS-family
// solver does (an `s`/`o`/`v` line trio, matching exit codes).
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coregap/pmaxsat/bmo"
	"github.com/coregap/pmaxsat/config"
	"github.com/coregap/pmaxsat/engine"
	"github.com/coregap/pmaxsat/format"
	"github.com/coregap/pmaxsat/formula"
	"github.com/coregap/pmaxsat/lit"
	"github.com/coregap/pmaxsat/oracle"
	"github.com/coregap/pmaxsat/partition"
	"github.com/coregap/pmaxsat/stats"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Exit codes (§6.4): a DIMACS-family solver's status maps 1:1 onto the
// process's exit code so a calling script never has to scrape stdout.
const (
	exitSAT     = 10
	exitUNSAT   = 20
	exitOPTIMUM = 30
	exitUNKNOWN = 40
	exitERROR   = 50
)

// run is the CLI's wiring core, kept free of os.Args/os.Exit so it can
// be driven directly from tests.
func run(opts *config.Options, stdin io.Reader, stdout, stderr io.Writer, cancel *engine.CancelToken) int {
	log := newLogger(opts, stderr)

	f, err := readInput(opts, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitERROR
	}
	if err := f.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitERROR
	}
	log.WithField("formula", f.Stats().String()).Info("formula loaded")

	o := oracle.NewGini()
	for i := 0; i < f.NVars; i++ {
		o.NewVar()
	}
	for _, h := range f.Hard {
		if err := o.AddClause(h.Lits...); err != nil {
			fmt.Fprintf(stderr, "error: asserting hard clause: %v\n", err)
			return exitERROR
		}
	}
	if err := engine.AssertSideConstraints(o, f); err != nil {
		fmt.Fprintf(stderr, "error: asserting side constraints: %v\n", err)
		return exitERROR
	}

	if opts.PWCNFOut != "" {
		if err := writePWCNFOut(opts.PWCNFOut, f); err != nil {
			fmt.Fprintf(stderr, "error: writing --pwcnf-out: %v\n", err)
			return exitERROR
		}
	}

	var sink *stats.PrometheusSink
	if opts.MetricsAddr != "" {
		sink = stats.NewPrometheusSink()
		go serveMetrics(opts.MetricsAddr, sink, log)
	}

	softIdx := make([]int, len(f.Soft))
	for i := range f.Soft {
		softIdx[i] = i
	}

	res := solve(opts, o, f, softIdx, log, cancel)

	var extraModels [][]bool
	if opts.AllOptSols && res.Status == engine.Optimum {
		extraModels = enumerateOptima(o, f, softIdx, res, log, cancel)
	}

	counters := stats.NewCounters()
	var at time.Time // a one-shot CLI run only ever records a single final sample
	if err := counters.RecordLB(at, res.LB); err != nil {
		log.WithError(err).Warn("stats: lb regression recording final snapshot")
	}
	if res.HasModel {
		if err := counters.RecordUB(at, res.UB); err != nil {
			log.WithError(err).Warn("stats: ub regression recording final snapshot")
		}
	}
	if sink != nil {
		sink.Observe(counters)
	}

	statusLine, exitCode := report(res)
	fmt.Fprintln(stdout, statusLine)
	if res.HasModel {
		fmt.Fprintln(stdout, formatCostLine(res))
		fmt.Fprintln(stdout, formatModelLine(f, res.Model))
	}
	if opts.AllOptSols && res.Status == engine.Optimum {
		for _, m := range extraModels {
			fmt.Fprintln(stdout, formatModelLine(f, m))
		}
		fmt.Fprintf(stdout, "c found %d optimal solution(s)\n", 1+len(extraModels))
	}

	if opts.JSONStats != "" {
		if err := writeJSONStats(opts.JSONStats, f, counters, statusLine); err != nil {
			fmt.Fprintf(stderr, "error: writing --json-stats: %v\n", err)
		}
	}

	return exitCode
}

// newLogger builds the run's logrus.Entry, its level set by the
// repeatable -v flag: 0 warn, 1 info, 2+ debug.
func newLogger(opts *config.Options, out io.Writer) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(out)
	switch {
	case opts.Verbosity >= 2:
		l.SetLevel(logrus.DebugLevel)
	case opts.Verbosity == 1:
		l.SetLevel(logrus.InfoLevel)
	default:
		l.SetLevel(logrus.WarnLevel)
	}
	return logrus.NewEntry(l)
}

// readInput opens opts.Input ("-" or empty means stdin) and dispatches
// to the §6.2 parser selected by opts.InputFormat.
func readInput(opts *config.Options, stdin io.Reader) (*formula.Formula, error) {
	var r io.Reader = stdin
	if opts.Input != "" && opts.Input != "-" {
		file, err := os.Open(opts.Input)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", opts.Input)
		}
		defer file.Close()
		r = file
	}
	switch opts.InputFormat {
	case config.FormatWCNF:
		return format.ReadWCNF(r)
	case config.FormatOPB:
		return format.ReadOPB(r)
	case config.FormatPWCNF:
		return format.ReadPWCNF(r)
	default:
		return nil, errors.Errorf("unknown input format %q", opts.InputFormat)
	}
}

func writePWCNFOut(path string, f *formula.Formula) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return format.WritePWCNF(file, f)
}

func writeJSONStats(path string, f *formula.Formula, c *stats.Counters, statusLine string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	status := strings.TrimPrefix(statusLine, "s ")
	snap := stats.BuildSnapshot(f, c, status)
	return stats.WriteJSON(file, snap)
}

func serveMetrics(addr string, sink *stats.PrometheusSink, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", sink.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Warn("metrics: server exited")
	}
}

// mergeHeuristic translates config's string-typed enum into
// partition.Heuristic — config stays leaf-level (no import of
// partition) so every other package can depend on it without a cycle.
func mergeHeuristic(h config.MergeHeuristic) partition.Heuristic {
	switch h {
	case config.MergeByCores:
		return partition.ByCores
	case config.MergeSaturationOnly:
		return partition.SaturationOnly
	default:
		return partition.BySize
	}
}

// solve dispatches to the configured search strategy (§6.3): BMO when
// requested and its weight condition holds, the partition controller
// when requested, otherwise the flat core-guided engine chosen by
// --algorithm.
func solve(opts *config.Options, o oracle.Oracle, f *formula.Formula, softIdx []int, log *logrus.Entry, cancel *engine.CancelToken) engine.Result {
	if len(softIdx) == 0 {
		return solveHardOnly(o)
	}

	if opts.BMO {
		levels := bmo.Levels(f, softIdx)
		if bmo.ConditionHolds(levels) {
			driver := bmo.New(o, f, log)
			driver.Cancel = cancel
			if opts.Partition {
				driver.UsePartition = true
				driver.MergeHeuristic = mergeHeuristic(opts.MergeHeuristic)
				driver.ConflictBudget = opts.ConflictBudget
			}
			return driver.Run(softIdx)
		}
		log.Info("bmo: weight condition does not hold over this instance, falling back")
	}

	if opts.Partition {
		ctrl := partition.New(o, f, mergeHeuristic(opts.MergeHeuristic), opts.ConflictBudget, log)
		ctrl.Cancel = cancel
		return ctrl.Run()
	}

	switch opts.Algorithm {
	case config.AlgOLL:
		return engine.RunOLL(o, f, softIdx, log, cancel)
	case config.AlgLinear:
		return engine.LinearSearch(o, f, softIdx, log, cancel)
	case config.AlgWBO, config.AlgMSU3:
		return engine.RunMSU3(o, f, softIdx, log, cancel)
	default:
		return engine.RunOLL(o, f, softIdx, log, cancel)
	}
}

// enumerateOptima drives §4.6 once solve has reported an optimum.
// engine.Enumerate needs the exact assumption set that produced the
// terminal SAT call (Result.FreezeLits): engine.Loop, partition.Run
// and bmo.Driver.Run all populate it (bmo's is the last level's, valid
// because every earlier level was already hardened into the oracle as
// permanent unit clauses by the time it ran). It is empty when that
// call ran under no assumptions at all (e.g. every soft clause active
// and the cardinality bound vacuous); enumeration is then skipped with
// a warning rather than re-solving without the optimality assumptions.
func enumerateOptima(o oracle.Oracle, f *formula.Formula, softIdx []int, res engine.Result, log *logrus.Entry, cancel *engine.CancelToken) [][]bool {
	if len(softIdx) > 0 && len(res.FreezeLits) == 0 {
		log.Warn("all-opt-sols: no freeze literals available for this result, skipping enumeration")
		return nil
	}
	extra := engine.Enumerate(o, f, softIdx, res, log, cancel)
	log.WithField("count", 1+len(extra)).Info("all-opt-sols: enumeration complete")
	return extra
}

// solveHardOnly handles the degenerate case of a formula with no soft
// clauses at all: a single oracle query settles satisfiability, cost
// is trivially 0.
func solveHardOnly(o oracle.Oracle) engine.Result {
	status, _ := o.Solve(nil)
	switch status {
	case oracle.Sat:
		return engine.Result{Status: engine.Optimum, Model: captureFullModel(o), HasModel: true}
	case oracle.Unsat:
		return engine.Result{Status: engine.Unsatisfiable}
	default:
		return engine.Result{Status: engine.Unknown}
	}
}

func captureFullModel(o oracle.Oracle) []bool {
	n := o.NVars()
	out := make([]bool, n)
	for v := 0; v < n; v++ {
		out[v] = o.ModelValue(lit.Var(v))
	}
	return out
}

// report maps a terminal engine.Result onto the `s` status line and
// exit code of §6.4/§7: an interrupted run (resource limit, signal,
// oracle returning unknown) that still holds an incumbent reports it
// as `s SATISFIABLE` rather than `s UNKNOWN`, per §7's "Resource limit
// / signal" error kind.
func report(res engine.Result) (string, int) {
	switch res.Status {
	case engine.Unsatisfiable:
		return "s UNSATISFIABLE", exitUNSAT
	case engine.Optimum:
		return "s OPTIMUM FOUND", exitOPTIMUM
	default:
		if res.HasModel {
			return "s SATISFIABLE", exitSAT
		}
		return "s UNKNOWN", exitUNKNOWN
	}
}

func formatCostLine(res engine.Result) string {
	return fmt.Sprintf("o %d", res.UB)
}

// formatModelLine prints the `v` line: the input's original
// variables (0..f.NVars-1), signed 1-based, in dimacs convention —
// relaxation/totalizer auxiliary variables the engine allocated on top
// are never reported, since they carry no meaning to the caller.
func formatModelLine(f *formula.Formula, model []bool) string {
	var b strings.Builder
	b.WriteString("v")
	for i := 0; i < f.NVars && i < len(model); i++ {
		v := lit.Var(i)
		l := v.SignedLit(!model[i])
		fmt.Fprintf(&b, " %d", l.Int())
	}
	b.WriteString(" 0")
	return b.String()
}
