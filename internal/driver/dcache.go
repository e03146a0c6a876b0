package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"xil/internal/diag"
	"xil/internal/ir"
	"xil/internal/project"
	"xil/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит оттранслированные Program на диске, ключ - хеш
// имени юнита и нормализованного содержимого файла.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedDiag is a parse diagnostic without its file id; spans are re-homed
// to the current FileID when the payload is read back.
type CachedDiag struct {
	Severity uint8  `msgpack:"sev"`
	Code     uint16 `msgpack:"code"`
	Message  string `msgpack:"msg"`
	Start    uint32 `msgpack:"start"`
	End      uint32 `msgpack:"end"`
}

// DiskPayload stores one translated unit.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16 `msgpack:"schema"`

	Unit        string       `msgpack:"unit"`
	Program     *ir.Program  `msgpack:"program"`
	Diagnostics []CachedDiag `msgpack:"diags"`
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// CacheKey derives the cache key of a unit. maxErrors is part of the key
// because it changes which diagnostics the parser keeps.
func CacheKey(unit string, file *source.File, maxErrors uint) project.Digest {
	head := fmt.Sprintf("xil-unit/%d/%d", diskCacheSchemaVersion, maxErrors)
	return project.Combine(
		project.HashBytes([]byte(head)),
		project.HashBytes([]byte(unit)),
		project.Digest(file.Hash),
	)
}

func (c *DiskCache) pathFor(key project.Digest) string {
	// Подкаталог "units" - чтобы кэш было удобно чистить руками.
	return filepath.Join(c.dir, "units", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads and deserializes a payload from the disk cache. A payload
// written by another schema version is a miss.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != diskCacheSchemaVersion || out.Program == nil {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог, потом удалим - старые файлы не попадут в новый Get
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func unitToPayload(unit string, prog *ir.Program, bag *diag.Bag) *DiskPayload {
	payload := &DiskPayload{
		Schema:  diskCacheSchemaVersion,
		Unit:    unit,
		Program: prog,
	}
	if bag == nil {
		return payload
	}
	for _, d := range bag.Items() {
		payload.Diagnostics = append(payload.Diagnostics, CachedDiag{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		})
	}
	return payload
}

// payloadToUnit restores the program and diagnostics of payload with every
// span pointing at file.
func payloadToUnit(payload *DiskPayload, file source.FileID, bag *diag.Bag) *ir.Program {
	prog := payload.Program
	for i := range prog.Funcs {
		body := prog.Funcs[i].Body
		for j := range body {
			body[j].Span.File = file
		}
	}
	for _, cd := range payload.Diagnostics {
		bag.Add(diag.New(
			diag.Severity(cd.Severity),
			diag.Code(cd.Code),
			source.Span{File: file, Start: cd.Start, End: cd.End},
			cd.Message,
		))
	}
	return prog
}
