//go:build !debug

package ui

import (
	"embed"
	"io/fs"
)

//go:embed dist
var distFS embed.FS

// DistFS returns the built UI rooted at its dist directory (production:
// baked into the binary).
func DistFS() fs.FS {
	sub, err := fs.Sub(distFS, "dist")
	if err != nil {
		// The embed directive guarantees dist exists at compile time.
		panic(err)
	}
	return sub
}
