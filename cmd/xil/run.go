package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xil/internal/driver"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [xil.yaml|dir|file.xil...]",
	Short: "Build a package and execute it on the VM",
	Long: `Build a package like 'xil build' and execute main of every linked
program, modules first that others use`,
	RunE: runExecution,
}

func init() {
	addGraphOutputFlags(runCmd)
	runCmd.Flags().Bool("vm-trace", false, "trace every executed statement to stderr")
	runCmd.Flags().Int("max-steps", 0, "stop a program after this many statements (0=unlimited)")
	runCmd.Flags().Int("max-depth", 0, "maximum call depth (0=default)")
}

func runExecution(cmd *cobra.Command, args []string) error {
	vmTrace, err := cmd.Flags().GetBool("vm-trace")
	if err != nil {
		return fmt.Errorf("failed to get vm-trace flag: %w", err)
	}
	maxSteps, err := cmd.Flags().GetInt("max-steps")
	if err != nil {
		return fmt.Errorf("failed to get max-steps flag: %w", err)
	}
	maxDepth, err := cmd.Flags().GetInt("max-depth")
	if err != nil {
		return fmt.Errorf("failed to get max-depth flag: %w", err)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	files, _, err := resolveInputs(args, s.log)
	if err != nil {
		return err
	}
	closeOutputs, err := graphOutputs(cmd, &s.opts)
	if err != nil {
		return err
	}
	defer closeOutputs()

	s.opts.MaxSteps = maxSteps
	s.opts.MaxDepth = maxDepth
	if vmTrace {
		s.opts.VMTrace = cmd.ErrOrStderr()
	}

	res, runErr := driver.Run(cmd.Context(), files, s.opts)
	reportErr := s.report(cmd.ErrOrStderr(), res.Bag, res.Files)
	if runErr != nil {
		return runErr
	}
	for _, vmErr := range res.RunErrors {
		fmt.Fprintln(cmd.ErrOrStderr(), vmErr.FormatWithFiles(res.Files))
	}
	return reportErr
}
