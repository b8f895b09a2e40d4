package catalog

import (
	"path"
	"strings"
)

// ContentRoot is the directory on the content store that holds the manifest
// and every lesson and quiz file.
const ContentRoot = "content"

const manifestFile = "manifest.json"

// ResolveContentPath maps a contentFile value from the manifest to the path
// fetched from the content store. Legacy bare filenames and modular
// "modules/<id>/..." paths are both joined under ContentRoot unchanged.
// Resolving an already-resolved path returns it as is.
func ResolveContentPath(contentFile string) string {
	p := strings.TrimSpace(contentFile)
	for {
		trimmed := strings.TrimPrefix(strings.TrimPrefix(p, "/"), "./")
		if trimmed == p {
			break
		}
		p = trimmed
	}
	p = path.Clean("/" + p)[1:]
	if p == ContentRoot || strings.HasPrefix(p, ContentRoot+"/") {
		return p
	}
	if p == "" {
		return ContentRoot
	}
	return ContentRoot + "/" + p
}

// IsModularPath reports whether contentFile uses the module-scoped layout.
func IsModularPath(contentFile string) bool {
	p := strings.TrimPrefix(ResolveContentPath(contentFile), ContentRoot+"/")
	return strings.HasPrefix(p, "modules/")
}
