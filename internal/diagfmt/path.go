package diagfmt

import (
	"os"
	"path/filepath"

	"xil/internal/source"
)

// formatPath renders the path of f according to mode.
func formatPath(f *source.File, mode PathMode, baseDir string) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path

	case PathModeRelative:
		if baseDir == "" {
			// Если базовая директория не указана, используем текущую
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		abs, err := filepath.Abs(f.Path)
		if err != nil {
			return f.Path
		}
		if rel, err := filepath.Rel(baseDir, abs); err == nil {
			return filepath.ToSlash(rel)
		}
		return f.Path

	case PathModeBasename:
		return f.BaseName()

	default:
		// Auto: если путь короткий или относительный - как есть, иначе basename
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return f.BaseName()
	}
}

// located reports whether span points into a file of fs. I/O diagnostics
// carry a zero span and have no position.
func located(span source.Span, fs *source.FileSet) (*source.File, bool) {
	if fs == nil || span == (source.Span{}) {
		return nil, false
	}
	f := fs.Get(span.File)
	return f, f != nil
}
