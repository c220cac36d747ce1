package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "opsim",
		Short: "Simulate a small network of CRDT replicas over TCSB",
		Long: "opsim drives a handful of in-process replicas through random\n" +
			"local updates and causal broadcast, then prints each replica's\n" +
			"converged query result so the delivery and redundancy machinery\n" +
			"can be watched end to end.",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(verbose)
		if err != nil {
			return err
		}
		cmd.SetContext(withLogger(cmd.Context(), logger))
		return nil
	}

	root.AddCommand(newSimulateCmd())
	return root
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
