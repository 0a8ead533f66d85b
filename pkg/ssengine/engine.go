// Package ssengine implements a Storage Server's local file operations:
// create/read/delete, the single-level .bak undo slot, named checkpoints,
// and the sentence-level commit algorithm used by WRITE sessions. Grounded
// on _examples/original_source/src/storage_server/storage_server.c.
package ssengine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrFileExists   = errors.New("file already exists")
	ErrFileNotFound = errors.New("file not found")
	ErrNoBackup     = errors.New("no backup to restore")
	ErrNoCheckpoint = errors.New("no such checkpoint")
	ErrUnsafePath   = errors.New("unsafe path")
)

// Engine owns one Storage Server's root directory. All mutating operations
// share a single process-wide mutex (spec.md §4.4: "A single process-wide SS
// mutex serializes all commits" — extended here to undo/checkpoint/revert,
// which touch the same files).
type Engine struct {
	rootDir string
	mu      sync.Mutex
}

func New(rootDir string) *Engine {
	return &Engine{rootDir: rootDir}
}

// safePath rejects any filename containing ".." before joining it under
// rootDir, mirroring get_safe_path's strstr(filename, "..") check.
func (e *Engine) safePath(filename string) (string, error) {
	if strings.Contains(filename, "..") {
		return "", ErrUnsafePath
	}
	return filepath.Join(e.rootDir, filename), nil
}

func (e *Engine) backupPath(path string) string { return path + ".bak" }

// checkpointPath rejects a tag containing ".." or "/" before appending it to
// path, the same way safePath guards filename — a tag is just as capable of
// escaping rootDir via Sprintf as an unsanitized filename is via Join.
func (e *Engine) checkpointPath(path, tag string) (string, error) {
	if strings.Contains(tag, "..") || strings.ContainsRune(tag, '/') {
		return "", ErrUnsafePath
	}
	return fmt.Sprintf("%s.ckpt.%s", path, tag), nil
}

// ListFiles walks rootDir and returns the plain filenames it holds, skipping
// the .bak and .ckpt.* siblings a file's own operations create alongside it.
// Used once at startup so ssd can advertise what it already has to the name
// server's REGISTER_SS, the same inventory get_safe_path's callers assume is
// already known to the name server after a restart.
func (e *Engine) ListFiles() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries, err := os.ReadDir(e.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list root dir: %w", err)
	}
	var files []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		if strings.Contains(name, ".bak") || strings.Contains(name, ".ckpt.") {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

// Create makes a new empty file. Returns ErrFileExists if it already exists.
func (e *Engine) Create(filename string) error {
	path, err := e.safePath(filename)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrFileExists
		}
		return err
	}
	return f.Close()
}

// ReadTo streams filename's full contents to w.
func (e *Engine) ReadTo(filename string, w io.Writer) error {
	path, err := e.safePath(filename)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// Delete removes filename. Leaves any .bak or .ckpt.* siblings untouched —
// spec.md never requires DELETE to sweep those.
func (e *Engine) Delete(filename string) error {
	path, err := e.safePath(filename)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return err
	}
	return nil
}

// Undo restores filename from its .bak sibling, consuming the backup. Does
// not touch any .ckpt.* file.
func (e *Engine) Undo(filename string) error {
	path, err := e.safePath(filename)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	backup := e.backupPath(path)
	if _, err := os.Stat(backup); err != nil {
		if os.IsNotExist(err) {
			return ErrNoBackup
		}
		return err
	}
	return os.Rename(backup, path)
}

// Checkpoint copies filename's current bytes into a named, non-consuming
// snapshot sibling. Independent of the .bak undo slot (SPEC_FULL.md §3).
func (e *Engine) Checkpoint(filename, tag string) error {
	path, err := e.safePath(filename)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return err
	}
	defer src.Close()

	ckptPath, err := e.checkpointPath(path, tag)
	if err != nil {
		return err
	}
	tmp := ckptPath + ".tmp"
	dst, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, ckptPath)
}

// Revert renames tag's checkpoint back over the live file, the same
// crash-safe way Undo restores .bak: one atomic rename, consuming the
// checkpoint in the process.
func (e *Engine) Revert(filename, tag string) error {
	path, err := e.safePath(filename)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	ckptPath, err := e.checkpointPath(path, tag)
	if err != nil {
		return err
	}
	if _, err := os.Stat(ckptPath); err != nil {
		if os.IsNotExist(err) {
			return ErrNoCheckpoint
		}
		return err
	}
	return os.Rename(ckptPath, path)
}

// ViewCheckpoint streams tag's checkpoint bytes without restoring them.
func (e *Engine) ViewCheckpoint(filename, tag string, w io.Writer) error {
	path, err := e.safePath(filename)
	if err != nil {
		return err
	}
	ckptPath, err := e.checkpointPath(path, tag)
	if err != nil {
		return err
	}
	f, err := os.Open(ckptPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoCheckpoint
		}
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
