package application

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// timestampLayout renders as __YYYY-MM-DD_HHMM after the base name.
const timestampLayout = "2006-01-02_1504"

const defaultExtension = ".gpkg"

// NamingResolver turns a requested output base path into a final,
// collision-free path. An existing file is never reused or overwritten:
// the resolver appends __1, __2, ... until a free path is found.
//
// Now and Exists are swappable for tests; the zero value uses the clock
// and the filesystem.
type NamingResolver struct {
	Now    func() time.Time
	Exists func(path string) bool
}

// NewNamingResolver creates a resolver backed by the real clock and
// filesystem.
func NewNamingResolver() *NamingResolver {
	return &NamingResolver{}
}

// Resolve derives the output path from basePath. With timestamp enabled
// the current time is embedded in the name, so repeated runs in the same
// minute still get distinct paths via the collision counter.
func (r *NamingResolver) Resolve(basePath string, timestamp bool) string {
	ext := filepath.Ext(basePath)
	stem := strings.TrimSuffix(basePath, ext)
	if ext == "" {
		ext = defaultExtension
	}

	if timestamp {
		stem = fmt.Sprintf("%s__%s", stem, r.now().Format(timestampLayout))
	}

	path := stem + ext
	for n := 1; r.exists(path); n++ {
		path = fmt.Sprintf("%s__%d%s", stem, n, ext)
	}
	return path
}

func (r *NamingResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *NamingResolver) exists(path string) bool {
	if r.Exists != nil {
		return r.Exists(path)
	}
	_, err := os.Stat(path)
	return err == nil
}
