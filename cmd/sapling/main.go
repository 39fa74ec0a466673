package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootCmdConfig struct {
	verbose bool
	logFile string
	*logger
	closers []func() error
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sapling",
		Short: "sapling is a tool to trace students' knowledge from the code they write",
		Long:  `A tool to train knowledge tracing models that read students' code as syntax trees, test them, and use them to make predictions`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "")
	rootCmd.PersistentFlags().StringVar(&(config.logFile), "log-file", "", "path to a file to which logs are also written as JSON, rotated as it grows")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(config.verbose, config.logFile)
		if err != nil {
			return err
		}
		config.logger = l
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		config.close()
	}
	rootCmd.AddCommand(
		versionCmd(),
		trainCmd(config),
		workCmd(config),
		testCmd(config),
		predictCmd(config),
		splitCmd(config),
		datasetCmd(config),
	)
	return rootCmd
}

// onClose registers a function to release a resource once the command ends.
func (rcc *rootCmdConfig) onClose(f func() error) {
	rcc.closers = append(rcc.closers, f)
}

func (rcc *rootCmdConfig) close() {
	for i := len(rcc.closers) - 1; i >= 0; i-- {
		err := rcc.closers[i]()
		if err != nil {
			rcc.Logf("Closing: %v", err)
		}
	}
	rcc.closers = nil
	if rcc.logger != nil {
		rcc.Sync()
	}
}

// exit releases resources and exits with the given code.
func (rcc *rootCmdConfig) exit(code int) {
	rcc.close()
	os.Exit(code)
}
