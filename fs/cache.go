// Package fs stores chapters and book exports on the local filesystem.
package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/lectern"
)

// Ensure ChapterCache implements lectern.ChapterCache at compile time.
var _ lectern.ChapterCache = (*ChapterCache)(nil)

const (
	entryExt     = ".txt"
	tempPrefix   = ".tmp-"
	hashedPrefix = "h_"
	maxIDLen     = 4096

	// Leftover temp files older than this are removed by Cleanup.
	staleTempAge = time.Hour
)

// safeIDRe matches IDs usable verbatim as file and directory names.
var safeIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ChapterCache stores one text file per chapter under
// <root>/<bookKey>/<chapterKey>.txt. Entry age is the file's mtime.
type ChapterCache struct {
	root     string
	maxAge   time.Duration
	maxBytes int64
	minFree  uint64

	freeSpace func(path string) (uint64, error)
	now       func() time.Time

	// sweep serializes Cleanup, Clear and ClearAll.
	sweep sync.Mutex
}

// Option configures a ChapterCache.
type Option func(*ChapterCache)

// WithMaxAge sets the age after which entries are stale. Zero disables
// expiry.
func WithMaxAge(d time.Duration) Option {
	return func(c *ChapterCache) {
		c.maxAge = d
	}
}

// WithMaxBytes caps the total size of all entries. Zero means unlimited.
func WithMaxBytes(n int64) Option {
	return func(c *ChapterCache) {
		c.maxBytes = n
	}
}

// WithMinFreeBytes sets the free disk space floor. Zero disables the check.
func WithMinFreeBytes(n uint64) Option {
	return func(c *ChapterCache) {
		c.minFree = n
	}
}

// WithFreeSpaceFunc replaces the free disk space query.
func WithFreeSpaceFunc(fn func(path string) (uint64, error)) Option {
	return func(c *ChapterCache) {
		c.freeSpace = fn
	}
}

// WithClock replaces the clock used to judge entry age.
func WithClock(now func() time.Time) Option {
	return func(c *ChapterCache) {
		c.now = now
	}
}

// NewChapterCache creates a cache rooted at root. The directory is created
// on first write.
func NewChapterCache(root string, opts ...Option) *ChapterCache {
	c := &ChapterCache{
		root:      root,
		freeSpace: FreeSpace,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewChapterCacheFromConfig creates a cache using the size, age and free
// space settings of cfg.
func NewChapterCacheFromConfig(cfg lectern.Config, opts ...Option) *ChapterCache {
	base := []Option{
		WithMaxAge(cfg.MaxCacheAge()),
		WithMaxBytes(cfg.MaxCacheBytes()),
		WithMinFreeBytes(cfg.MinFreeBytes()),
	}
	return NewChapterCache(cfg.CacheDir, append(base, opts...)...)
}

// Root returns the cache directory.
func (c *ChapterCache) Root() string {
	return c.root
}

// Get returns the entry if it is younger than the max age.
func (c *ChapterCache) Get(ctx context.Context, bookID, chapterID string) (string, bool, error) {
	path, err := c.entryPath(bookID, chapterID)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	if c.expired(info) {
		return "", false, nil
	}
	return readEntry(path)
}

// ModTime returns when the entry was last written.
func (c *ChapterCache) ModTime(ctx context.Context, bookID, chapterID string) (time.Time, bool, error) {
	path, err := c.entryPath(bookID, chapterID)
	if err != nil {
		return time.Time{}, false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	} else if err != nil {
		return time.Time{}, false, err
	}
	return info.ModTime(), true, nil
}

// GetFallback returns the entry regardless of age.
func (c *ChapterCache) GetFallback(ctx context.Context, bookID, chapterID string) (string, bool, error) {
	path, err := c.entryPath(bookID, chapterID)
	if err != nil {
		return "", false, err
	}
	return readEntry(path)
}

// Put writes the entry through a temporary file renamed into place, so
// readers see either the old or the new content.
func (c *ChapterCache) Put(ctx context.Context, bookID, chapterID, content string) error {
	path, err := c.entryPath(bookID, chapterID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.root, 0755); err != nil {
		return err
	}
	if free, ok := c.free(); ok && free < c.minFree {
		return lectern.Errorf(lectern.ENOSPACE, "free disk space %d bytes is below the %d byte floor", free, c.minFree)
	}

	tmp, err := createTemp(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// createTemp creates a temp file in a book directory, creating the
// directory when missing. Cleanup removes empty book directories, so one
// may vanish between MkdirAll and CreateTemp, in which case it is
// recreated.
func createTemp(dir string) (*os.File, error) {
	var err error
	for range 2 {
		var tmp *os.File
		tmp, err = os.CreateTemp(dir, tempPrefix+"*")
		if !errors.Is(err, fs.ErrNotExist) {
			return tmp, err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.CreateTemp(dir, tempPrefix+"*")
}

// Cleanup deletes expired entries, then deletes the oldest entries across
// all books until free space is at least the floor and the total size is
// within the cap, or the cache is empty.
func (c *ChapterCache) Cleanup(ctx context.Context) (*lectern.CleanupResult, error) {
	c.sweep.Lock()
	defer c.sweep.Unlock()

	entries, err := c.scan()
	if err != nil {
		return nil, err
	}

	res := &lectern.CleanupResult{}
	live := entries[:0]
	var total int64
	for _, e := range entries {
		if c.expired(e.info) {
			if err := os.Remove(e.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return res, err
			}
			res.Expired++
			res.FreedBytes += e.info.Size()
			continue
		}
		live = append(live, e)
		total += e.info.Size()
	}

	sort.SliceStable(live, func(i, j int) bool {
		return live[i].info.ModTime().Before(live[j].info.ModTime())
	})

	for _, e := range live {
		if !c.overLimits(total) {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := os.Remove(e.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return res, err
		}
		res.Evicted++
		res.FreedBytes += e.info.Size()
		total -= e.info.Size()
	}

	c.removeEmptyBooks()
	return res, nil
}

func (c *ChapterCache) overLimits(total int64) bool {
	if c.maxBytes > 0 && total > c.maxBytes {
		return true
	}
	free, ok := c.free()
	return ok && free < c.minFree
}

// Clear removes every entry of one book.
func (c *ChapterCache) Clear(ctx context.Context, bookID string) error {
	key, err := fileKey(bookID)
	if err != nil {
		return err
	}
	c.sweep.Lock()
	defer c.sweep.Unlock()
	return os.RemoveAll(filepath.Join(c.root, key))
}

// ClearAll removes every entry and recreates the empty cache directory.
func (c *ChapterCache) ClearAll(ctx context.Context) error {
	c.sweep.Lock()
	defer c.sweep.Unlock()
	if err := os.RemoveAll(c.root); err != nil {
		return err
	}
	return os.MkdirAll(c.root, 0755)
}

// Usage reports the number of books and entries and their total size.
func (c *ChapterCache) Usage(ctx context.Context) (*lectern.CacheUsage, error) {
	entries, err := c.scan()
	if err != nil {
		return nil, err
	}
	books := make(map[string]struct{})
	u := &lectern.CacheUsage{}
	for _, e := range entries {
		books[filepath.Dir(e.path)] = struct{}{}
		u.Files++
		u.Bytes += e.info.Size()
	}
	u.Books = len(books)
	return u, nil
}

type entry struct {
	path string
	info fs.FileInfo
}

// scan lists all entries. Leftover temp files older than staleTempAge are
// removed on the way.
func (c *ChapterCache) scan() ([]entry, error) {
	books, err := os.ReadDir(c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var entries []entry
	for _, book := range books {
		if !book.IsDir() {
			continue
		}
		dir := filepath.Join(c.root, book.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			info, err := f.Info()
			if errors.Is(err, fs.ErrNotExist) {
				continue
			} else if err != nil {
				return nil, err
			}
			path := filepath.Join(dir, f.Name())
			if strings.HasPrefix(f.Name(), tempPrefix) {
				if c.now().Sub(info.ModTime()) > staleTempAge {
					_ = os.Remove(path)
				}
				continue
			}
			if filepath.Ext(f.Name()) != entryExt {
				continue
			}
			entries = append(entries, entry{path: path, info: info})
		}
	}
	return entries, nil
}

func (c *ChapterCache) removeEmptyBooks() {
	books, err := os.ReadDir(c.root)
	if err != nil {
		return
	}
	for _, book := range books {
		if book.IsDir() {
			// Remove only succeeds on empty directories.
			_ = os.Remove(filepath.Join(c.root, book.Name()))
		}
	}
}

func (c *ChapterCache) expired(info fs.FileInfo) bool {
	return c.maxAge > 0 && c.now().Sub(info.ModTime()) > c.maxAge
}

// free returns the free space at the cache root. The second result is
// false when the floor is disabled or the space cannot be determined.
func (c *ChapterCache) free() (uint64, bool) {
	if c.minFree == 0 || c.freeSpace == nil {
		return 0, false
	}
	free, err := c.freeSpace(c.root)
	if err != nil {
		return 0, false
	}
	return free, true
}

func (c *ChapterCache) entryPath(bookID, chapterID string) (string, error) {
	bookKey, err := fileKey(bookID)
	if err != nil {
		return "", err
	}
	chapterKey, err := fileKey(chapterID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(c.root, bookKey, chapterKey+entryExt)

	rel, err := filepath.Rel(c.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", lectern.Errorf(lectern.EINVALID, "cache key escapes the cache directory")
	}
	return path, nil
}

// fileKey maps an ID to a file name. Safe IDs are used verbatim; anything
// else is replaced by its xxhash.
func fileKey(id string) (string, error) {
	if id == "" {
		return "", lectern.Errorf(lectern.EINVALID, "cache ID required")
	}
	if len(id) > maxIDLen || strings.ContainsRune(id, 0) {
		return "", lectern.Errorf(lectern.EINVALID, "invalid cache ID")
	}
	if safeIDRe.MatchString(id) && !strings.HasPrefix(id, hashedPrefix) && !strings.Contains(id, "..") {
		return id, nil
	}
	return hashedPrefix + strconv.FormatUint(xxhash.Sum64String(id), 16), nil
}

func readEntry(path string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}
