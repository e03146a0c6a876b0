package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xil/internal/driver"
	"xil/internal/ir"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] [xil.yaml|dir|file.xil...]",
	Short: "Translate XIL files and print the programs",
	Long:  `Translate every file and print the untouched (unlinked) programs as YAML or JSON`,
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().String("format", "yaml", "output format (yaml|json)")
	parseCmd.Flags().Bool("link", false, "print the linked programs instead")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be yaml or json)", format)
	}
	linked, err := cmd.Flags().GetBool("link")
	if err != nil {
		return fmt.Errorf("failed to get link flag: %w", err)
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

	var (
		res      *driver.Result
		stageErr error
		programs []*ir.Program
	)
	if linked {
		res, stageErr = driver.Build(cmd.Context(), files, s.opts)
		programs = res.Programs
	} else {
		res, stageErr = driver.Translate(cmd.Context(), files, s.opts)
		for _, u := range res.Units {
			if u.Program != nil {
				programs = append(programs, u.Program)
			}
		}
	}
	reportErr := s.report(cmd.ErrOrStderr(), res.Bag, res.Files)
	if stageErr != nil {
		return stageErr
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(programs); err != nil {
			return err
		}
		return reportErr
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	for _, p := range programs {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return reportErr
}
