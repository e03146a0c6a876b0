package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"xil/internal/codec"
	"xil/internal/driver"
	"xil/internal/graph"
	"xil/internal/graphexport"
	"xil/internal/graphstore"
)

var graphCmd = &cobra.Command{
	Use:   "graph [flags] [xil.yaml|dir|file.xil...]",
	Short: "Build the graphs of a package and export them",
	Long: `Build one graph per linked program and export it as a diagram, in the
binary encoding, as an Arrow IPC edge table or into a SQLite database`,
	RunE: runGraph,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <file.xg>",
	Short: "Decode a binary graph and print its diagram",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

func init() {
	graphCmd.Flags().String("format", "diagram", "export format (diagram|binary|arrow|sqlite)")
	graphCmd.Flags().StringP("output", "o", "-", "output file, directory for several graphs, or database path")
	graphCmd.Flags().Int("batch-size", graphexport.DefaultBatchSize, "edges per Arrow record batch")
}

var graphExtensions = map[string]string{
	"binary": ".xg",
	"arrow":  ".arrow",
}

func runGraph(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	batchSize, err := cmd.Flags().GetInt("batch-size")
	if err != nil {
		return fmt.Errorf("failed to get batch-size flag: %w", err)
	}

	switch format {
	case "diagram", "binary", "arrow":
	case "sqlite":
		if output == "" || output == "-" {
			return errors.New("--format sqlite needs a database path in --output")
		}
	default:
		return fmt.Errorf("unsupported format %q (must be diagram, binary, arrow or sqlite)", format)
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

	if format == "sqlite" {
		store, err := graphstore.Open(output)
		if err != nil {
			return err
		}
		defer store.Close()
		s.opts.Store = store
	}

	res, buildErr := driver.Build(cmd.Context(), files, s.opts)
	reportErr := s.report(cmd.ErrOrStderr(), res.Bag, res.Files)
	if buildErr != nil {
		return buildErr
	}

	switch format {
	case "sqlite":
		for i, id := range res.GraphIDs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, res.Programs[i].Unit)
		}
	case "diagram":
		w, err := openOutput(output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		for _, g := range res.Graphs {
			if err := graphexport.WriteDiagram(w, g); err != nil {
				_ = w.Close()
				return err
			}
		}
		if err := w.Close(); err != nil {
			return err
		}
	default:
		write := func(w io.Writer, g *graph.Graph) error {
			if format == "arrow" {
				return graphexport.WriteArrow(w, g, graphexport.ArrowOptions{BatchSize: batchSize})
			}
			data, err := codec.Encode(g)
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		}
		if err := writeGraphs(cmd, res, output, graphExtensions[format], write); err != nil {
			return err
		}
	}
	return reportErr
}

// writeGraphs writes a single graph to output, or every graph to
// output/<unit><ext> when there are several.
func writeGraphs(cmd *cobra.Command, res *driver.Result, output, ext string, write func(io.Writer, *graph.Graph) error) error {
	if len(res.Graphs) == 1 {
		w, err := openOutput(output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := write(w, res.Graphs[0]); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	}
	if output == "" || output == "-" {
		return fmt.Errorf("%d graphs built: --output must name a directory", len(res.Graphs))
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return err
	}
	for i, g := range res.Graphs {
		name := strings.TrimSuffix(res.Programs[i].Unit, filepath.Ext(res.Programs[i].Unit)) + ext
		f, err := os.Create(filepath.Join(output, name))
		if err != nil {
			return err
		}
		if err := write(f, g); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	g, err := codec.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return graphexport.WriteDiagram(cmd.OutOrStdout(), g)
}
