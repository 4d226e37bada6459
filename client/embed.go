// Package client embeds the browser side of live pages.
package client

import (
	"embed"
	"io/fs"
	"net/http"
)

// ScriptName is the file name pages load the live client from.
const ScriptName = "live.js"

//go:embed src/*.js
var assets embed.FS

// Assets returns the embedded filesystem containing JavaScript files.
func Assets() fs.FS {
	fsys, err := fs.Sub(assets, "src")
	if err != nil {
		panic(err)
	}
	return fsys
}

// Handler returns an HTTP handler that serves the embedded assets. The
// request path must already be stripped down to the file name.
func Handler() http.Handler {
	fileServer := http.FileServer(http.FS(Assets()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	})
}

// GetFile returns the contents of an embedded file.
func GetFile(name string) ([]byte, error) {
	return assets.ReadFile("src/" + name)
}
