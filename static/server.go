package static

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
)

//go:embed dist
var dist embed.FS

var assetExt = map[string]bool{
	".js": true, ".css": true, ".map": true, ".svg": true, ".ico": true,
	".png": true, ".jpg": true, ".txt": true, ".woff2": true,
}

// Handler serves built client assets and falls back to index.html, so links
// like /?code=123456&user=Ada land on the client.
func Handler() http.Handler {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		return http.NotFoundHandler()
	}
	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if assetExt[path.Ext(r.URL.Path)] {
			fileServer.ServeHTTP(w, r)
			return
		}
		b, err := fs.ReadFile(sub, "index.html")
		if err != nil {
			http.Error(w, "index not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	})
}
