package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrLimitReached = errors.New("size limit reached")

type FileEntry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Workspace is the directory holding request-scoped files. Every name it
// hands out is unique across concurrent requests.
type Workspace struct {
	dir string
}

func NewWorkspace(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: abs}, nil
}

func (w *Workspace) Dir() string {
	return w.dir
}

func nonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NewPath returns a fresh path such as "youtube_1700000000000_ab12cd34ef56.mp3".
func (w *Workspace) NewPath(prefix, ext string) string {
	name := fmt.Sprintf("%s_%d_%s%s", prefix, time.Now().UnixMilli(), nonce(), ext)
	return filepath.Join(w.dir, name)
}

// UploadPath names a received file after its original name, prefixed with a
// timestamp and a nonce.
func (w *Workspace) UploadPath(original string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), nonce(), SanitizeName(original)))
}

// ScratchDir creates a private directory for tools that write several files.
func (w *Workspace) ScratchDir(prefix string) (string, error) {
	return os.MkdirTemp(w.dir, prefix+"-*")
}

// SanitizeName reduces a client supplied filename to a safe base name.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "upload"
	}
	return name
}

// Receive writes src to path, failing with ErrLimitReached once more than
// limit bytes arrive. The file is removed on any failure.
func (w *Workspace) Receive(src io.Reader, path string, limit int64) (int64, error) {
	if !w.contains(path) {
		return 0, os.ErrPermission
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	n, err := CopyLimit(f, src, limit)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close file: %w", closeErr)
	}
	if err != nil {
		os.Remove(path)
		return n, err
	}
	return n, nil
}

// CopyLimit copies up to limit+1 bytes; more than limit yields ErrLimitReached.
func CopyLimit(dst io.Writer, src io.Reader, limit int64) (int64, error) {
	n, err := io.CopyN(dst, src, limit+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("copying: %w", err)
	}
	if n > limit {
		return n, ErrLimitReached
	}
	return n, nil
}

// MoveInto moves src into dir under a fresh unique name and returns the new
// path. Falls back to copying when dir lives on another filesystem.
func MoveInto(src, dir, prefix, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	dst := filepath.Join(dir, fmt.Sprintf("%s_%d_%s%s", prefix, time.Now().UnixMilli(), nonce(), ext))

	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}
	os.Remove(src)
	return dst, nil
}

// Remove deletes a file or directory inside the workspace. Missing paths
// are not an error.
func (w *Workspace) Remove(path string) error {
	if path == "" {
		return nil
	}
	if !w.contains(path) {
		return os.ErrPermission
	}
	return os.RemoveAll(path)
}

// contains prevents path traversal outside the workspace
func (w *Workspace) contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(w.dir, abs)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// List returns the entries currently in the workspace.
func (w *Workspace) List() ([]*FileEntry, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}

	var result []*FileEntry
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		fe := &FileEntry{
			Name:    entry.Name(),
			Path:    filepath.Join(w.dir, entry.Name()),
			IsDir:   entry.IsDir(),
			ModTime: info.ModTime(),
		}
		if !entry.IsDir() {
			fe.Size = info.Size()
		}
		result = append(result, fe)
	}
	return result, nil
}

// Sweep removes entries older than maxAge, left behind by a crashed process.
func (w *Workspace) Sweep(maxAge time.Duration) (int, error) {
	entries, err := w.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.ModTime.After(cutoff) {
			continue
		}
		if err := os.RemoveAll(e.Path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", e.Name, err)
		}
		removed++
	}
	return removed, nil
}

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".ogg": true, ".oga": true,
	".opus": true, ".flac": true, ".webm": true, ".aac": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
	".ts": true, ".mpg": true, ".mpeg": true,
}

func IsAudioFile(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}

func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}
