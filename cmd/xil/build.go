package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xil/internal/driver"
	"xil/internal/graphstore"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [xil.yaml|dir|file.xil...]",
	Short: "Translate, link and build the graphs of a package",
	Long: `Translate every file of the package manifest (or the given files),
link units of the same module and build one graph per linked program`,
	RunE: runBuild,
}

func init() {
	addGraphOutputFlags(buildCmd)
}

func addGraphOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("diagram", "", "write the diagram of every graph to file (- for stdout)")
	cmd.Flags().String("store", "", "save every graph to this SQLite database")
}

// graphOutputs opens the --diagram and --store targets of cmd.
func graphOutputs(cmd *cobra.Command, opts *driver.Options) (func(), error) {
	diagramPath, err := cmd.Flags().GetString("diagram")
	if err != nil {
		return nil, fmt.Errorf("failed to get diagram flag: %w", err)
	}
	storePath, err := cmd.Flags().GetString("store")
	if err != nil {
		return nil, fmt.Errorf("failed to get store flag: %w", err)
	}

	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "close: %v\n", err)
			}
		}
	}
	if diagramPath != "" {
		w, err := openOutput(diagramPath, cmd.OutOrStdout())
		if err != nil {
			return nil, err
		}
		opts.Diagram = w
		closers = append(closers, w.Close)
	}
	if storePath != "" {
		store, err := graphstore.Open(storePath)
		if err != nil {
			cleanup()
			return nil, err
		}
		opts.Store = store
		closers = append(closers, store.Close)
	}
	return cleanup, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
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

	res, buildErr := driver.Build(cmd.Context(), files, s.opts)
	if err := s.report(cmd.ErrOrStderr(), res.Bag, res.Files); err != nil && buildErr == nil {
		return err
	}
	if buildErr != nil {
		return buildErr
	}

	if !s.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "built %d programs from %d files\n", len(res.Programs), len(files))
		for i, id := range res.GraphIDs {
			fmt.Fprintf(cmd.ErrOrStderr(), "stored %s as %s\n", res.Programs[i].Unit, id)
		}
	}
	return nil
}
