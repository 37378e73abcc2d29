package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/coregap/pmaxsat/config"
	"github.com/coregap/pmaxsat/engine"
	"github.com/spf13/cobra"
)

func main() {
	var opts *config.Options

	rootCmd := &cobra.Command{
		Use:                "pmaxsat",
		Short:              "Partitioned/Weighted MaxSAT solver",
		Long:               "pmaxsat solves partitioned and weighted partial MaxSAT instances via unsat-core-guided search (MSU3/OLL), optionally combined with BMO lexicographic optimization and problem partitioning.",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := config.Load(args)
			if err != nil {
				return err
			}
			opts = o
			return nil
		},
	}

	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(exitERROR)
	}
	if opts == nil {
		os.Exit(exitERROR)
	}

	log := newLogger(opts, os.Stderr)
	applyResourceLimits(opts, log)

	cancel := engine.NewCancelToken()
	setupSignalHandler(cancel)

	code := run(opts, os.Stdin, os.Stdout, os.Stderr, cancel)
	os.Exit(code)
}

// setupSignalHandler installs §5's cancellation path: SIGTERM and
// SIGXCPU (the CPU-limit-exceeded signal) flip the cancel token so the
// running search returns its current incumbent instead of blocking
// forever, the same shutdown-on-signal shape
// operator-lifecycle-manager's signals.SetupSignalHandler uses, but
// driving an engine.CancelToken instead of closing a stop channel. A
// second signal forces an immediate exit.
func setupSignalHandler(cancel *engine.CancelToken) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGXCPU)
	go func() {
		<-c
		cancel.Cancel()
		<-c
		os.Exit(exitERROR)
	}()
}
