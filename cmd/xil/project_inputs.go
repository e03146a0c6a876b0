package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"xil/internal/project"
)

const noManifestMessage = "no xil.yaml, xil.yml or xil.toml found\nplease specify the files explicitly, e.g.:\n  xil run path/to/main.xil"

// isManifestPath reports whether path names a manifest rather than an IR file.
func isManifestPath(path string) bool {
	if slices.Contains(project.ManifestNames, filepath.Base(path)) {
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml":
		return true
	}
	return false
}

// resolveInputs turns command arguments into the files to translate:
//   - no arguments: the manifest found at or above the working directory;
//   - one manifest file or one directory: that manifest;
//   - otherwise the arguments are IR files, in the given order.
func resolveInputs(args []string, log *zap.Logger) ([]string, *project.Manifest, error) {
	var (
		manifest *project.Manifest
		err      error
	)
	switch {
	case len(args) == 0:
		manifest, err = project.Discover(".")
	case len(args) == 1 && isManifestPath(args[0]):
		manifest, err = project.Load(args[0])
	case len(args) == 1:
		info, statErr := os.Stat(args[0])
		if statErr != nil || !info.IsDir() {
			return args, nil, nil
		}
		manifest, err = project.Discover(args[0])
	default:
		return args, nil, nil
	}
	if err != nil {
		if errors.Is(err, project.ErrNoManifest) {
			return nil, nil, errors.New(noManifestMessage)
		}
		return nil, nil, err
	}

	files := manifest.ResolvedFiles()
	if len(files) == 0 {
		return nil, manifest, fmt.Errorf("%s: manifest lists no files", manifest.Path)
	}
	log.Debug("manifest loaded",
		zap.String("path", manifest.Path),
		zap.String("name", manifest.Name),
		zap.String("version", manifest.Version),
		zap.Int("files", len(files)),
	)
	return files, manifest, nil
}
