package driver

import (
	"context"
	"path/filepath"

	"fortio.org/safecast"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"xil/internal/diag"
	"xil/internal/ir"
	"xil/internal/parser"
	"xil/internal/source"
	"xil/internal/trace"
)

// UnitResult содержит результат трансляции одного файла
type UnitResult struct {
	Path    string        // путь из манифеста или командной строки
	FileID  source.FileID // не задан, если файл не загрузился
	Program *ir.Program   // nil если файл не загрузился
	Bag     *diag.Bag     // диагностики юнита
	Cached  bool          // Program взят из DiskCache
}

// UnitName is the unit name given to the file at path: its base name.
func UnitName(path string) string {
	return filepath.Base(path)
}

// TranslateFiles загружает файлы в fs и транслирует их параллельно.
// Результаты идут в порядке paths. Ошибка загрузки файла - это диагностика
// IOLoadFileError в его UnitResult, а не ошибка функции; ошибку возвращает
// только отмена ctx.
func TranslateFiles(ctx context.Context, fs *source.FileSet, paths []string, opts Options) ([]UnitResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	opts = opts.withDefaults()
	log := opts.Logger

	// FileSet не потокобезопасен - грузим последовательно
	fileIDs := make([]source.FileID, len(paths))
	loadErrors := make(map[int]error)
	for i, path := range paths {
		id, err := fs.Load(path)
		if err != nil {
			loadErrors[i] = err
			continue
		}
		fileIDs[i] = id
	}

	maxErrors, err := safecast.Conv[uint](opts.MaxDiagnostics)
	if err != nil {
		return nil, err
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]UnitResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.Jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			bag := diag.NewBag(opts.MaxDiagnostics)
			if loadErr, failed := loadErrors[i]; failed {
				bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+loadErr.Error()))
				results[i] = UnitResult{Path: path, Bag: bag}
				return nil
			}

			_, sp := trace.Start(gctx, trace.ScopeUnit, "translate")
			sp.WithExtra("path", path)
			results[i] = translateUnit(fs, fileIDs[i], path, maxErrors, bag, opts.Cache, log)
			sp.End("")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func translateUnit(fs *source.FileSet, id source.FileID, path string, maxErrors uint, bag *diag.Bag, cache *DiskCache, log *zap.Logger) UnitResult {
	unit := UnitName(path)
	res := UnitResult{Path: path, FileID: id, Bag: bag}

	file := fs.Get(id)
	key := CacheKey(unit, file, maxErrors)
	if cache != nil {
		var payload DiskPayload
		ok, err := cache.Get(key, &payload)
		switch {
		case err != nil:
			// битый файл кэша - просто транслируем заново
			log.Warn("translation cache read failed", zap.String("unit", unit), zap.Error(err))
		case ok:
			res.Program = payloadToUnit(&payload, id, bag)
			res.Cached = true
			return res
		}
	}

	pr := parser.TranslateFile(fs, id, parser.Options{
		Unit:      unit,
		MaxErrors: maxErrors,
		Reporter:  diag.BagReporter{Bag: bag},
	})
	res.Program = pr.Program

	if cache != nil {
		if err := cache.Put(key, unitToPayload(unit, pr.Program, bag)); err != nil {
			log.Warn("translation cache write failed", zap.String("unit", unit), zap.Error(err))
		}
	}
	return res
}
