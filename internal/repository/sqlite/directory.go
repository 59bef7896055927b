package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Directory maps logical database names to live handles, constructing each
// handle on first reference. Within one process a name resolves to at most
// one Handle, so two callers can never hold divergent writers for the same
// storage. It does not provide cross-process exclusion; the engine's own
// locking covers that.
type Directory struct {
	dataDir string

	mu      sync.Mutex
	handles map[string]*Handle
}

// NewDirectory creates a Directory that stores database files under dataDir.
func NewDirectory(dataDir string) *Directory {
	return &Directory{
		dataDir: dataDir,
		handles: make(map[string]*Handle),
	}
}

// Resolve returns the Handle for name, opening it on first reference.
// Names are taken verbatim as logical identifiers; only the on-disk filename
// is escaped.
func (d *Directory) Resolve(name string) (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if h, ok := d.handles[name]; ok {
		return h, nil
	}

	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	h, err := OpenHandle(name, filepath.Join(d.dataDir, fileName(name)))
	if err != nil {
		return nil, fmt.Errorf("open handle %q: %w", name, err)
	}
	d.handles[name] = h
	return h, nil
}

// Close closes every live handle. Intended for shutdown only.
func (d *Directory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for name, h := range d.handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close handle %q: %w", name, err)
		}
		delete(d.handles, name)
	}
	return firstErr
}

// fileName escapes a logical name into a flat, collision-free filename so
// hostile names (path separators, percent signs) cannot escape the data
// directory. Distinct names always yield distinct filenames.
func fileName(name string) string {
	const safe = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._-"

	var b []byte
	for i := 0; i < len(name); i++ {
		c := name[i]
		if strings.IndexByte(safe, c) >= 0 {
			b = append(b, c)
			continue
		}
		b = append(b, '%', hexDigit(c>>4), hexDigit(c&0x0f))
	}
	return string(b) + ".db"
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + n - 10
}
