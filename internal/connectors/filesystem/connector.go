// Package filesystem enumerates and watches a local directory, turning files
// into uploads for the ingestion pipeline.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/logger"
	"github.com/custodia-labs/embediq/internal/normalisers"
)

// ChangeType describes what happened to a file.
type ChangeType int

const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

func (t ChangeType) String() string {
	switch t {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is one file event. Upload is nil for deletions.
type Change struct {
	Type   ChangeType
	Path   string
	Upload *domain.Upload
}

// Connector reads files below a root directory.
type Connector struct {
	rootPath    string
	maxFileSize int64

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(c *Connector) {
		c.maxFileSize = n
	}
}

// New creates a connector for rootPath. rootPath may be a file:// URI.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{
		rootPath:    ResolvePath(rootPath),
		maxFileSize: domain.DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RootPath returns the watched directory.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Validate checks that the root exists and is a directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}
	return nil
}

// Scan returns a ChangeCreated for every visible file below the root.
// Files that cannot be read or exceed the size limit are skipped.
func (c *Connector) Scan(ctx context.Context) ([]Change, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	var changes []Change
	err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != c.rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		upload, err := c.readUpload(path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			return nil
		}
		changes = append(changes, Change{Type: ChangeCreated, Path: path, Upload: upload})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Scanned %s: %d files", c.rootPath, len(changes))
	return changes, nil
}

// Watch emits changes below the root until ctx is cancelled, then closes
// the channel. New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan Change, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("connector is closed")
	}
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addDirs(watcher, c.rootPath); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	if c.watcher != nil {
		_ = c.watcher.Close()
	}
	c.watcher = watcher

	changes := make(chan Change)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(filepath.Base(event.Name)) {
					if err := addDirs(watcher, event.Name); err != nil {
						logger.Warn("Cannot watch %s: %v", event.Name, err)
					}
					continue
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// handleFsEvent converts a raw event into a change, or nil when the event
// is not interesting.
func (c *Connector) handleFsEvent(event fsnotify.Event) *Change {
	if c.hiddenBelowRoot(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, Path: event.Name}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if isDir(event.Name) {
			return nil
		}
		upload, err := c.readUpload(event.Name)
		if err != nil {
			logger.Debug("Ignoring %s: %v", event.Name, err)
			return nil
		}
		typ := ChangeUpdated
		if event.Has(fsnotify.Create) {
			typ = ChangeCreated
		}
		return &Change{Type: typ, Path: event.Name, Upload: upload}
	default:
		return nil
	}
}

// Close stops any active watch. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

func (c *Connector) readUpload(path string) (*domain.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	if c.maxFileSize > 0 && info.Size() > c.maxFileSize {
		return nil, fmt.Errorf("%s: %w: %d bytes", path, domain.ErrTooLarge, info.Size())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &domain.Upload{
		Filename: filepath.Base(path),
		MIMEType: DetectMIMEType(path),
		Content:  content,
		Metadata: map[string]any{"path": path},
	}, nil
}

func (c *Connector) hiddenBelowRoot(path string) bool {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return isHidden(path)
	}
	return isHidden(rel)
}

// ReadUploads reads path into uploads. A directory is scanned like Scan; a
// regular file becomes a single upload and is subject to the same size limit.
func ReadUploads(ctx context.Context, path string, maxFileSize int64) ([]domain.Upload, error) {
	resolved := ResolvePath(path)
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := New(resolved, WithMaxFileSize(maxFileSize))
	if !info.IsDir() {
		upload, err := c.readUpload(resolved)
		if err != nil {
			return nil, err
		}
		return []domain.Upload{*upload}, nil
	}

	changes, err := c.Scan(ctx)
	if err != nil {
		return nil, err
	}
	uploads := make([]domain.Upload, 0, len(changes))
	for _, change := range changes {
		uploads = append(uploads, *change.Upload)
	}
	return uploads, nil
}

// DetectMIMEType guesses a file's type from its extension.
func DetectMIMEType(path string) string {
	if t := normalisers.ResolveMIMEType("", path); t != "" {
		return t
	}
	return "application/octet-stream"
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// addDirs watches root and every visible directory below it.
func addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
