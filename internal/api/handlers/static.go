package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// StaticHandler serves the prebuilt web client. Unknown paths get the
// client's index.html so that client-side routing works.
type StaticHandler struct {
	dir string
}

func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// path.Clean on a rooted path cannot climb above the root
	clean := path.Clean("/" + r.URL.Path)
	if serveFile(w, r, filepath.Join(h.dir, filepath.FromSlash(clean))) {
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	if !serveFile(w, r, filepath.Join(h.dir, "index.html")) {
		w.Header().Del("Cache-Control")
		jsonError(w, "not found", http.StatusNotFound)
	}
}

// serveFile writes a regular file and reports whether it did.
func serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
