package offline

import (
	"net/url"
	"path"
	"strings"
)

// Class is the resource class a request falls into; each class maps to
// one caching strategy.
type Class string

const (
	ClassMutation    Class = "mutation"
	ClassShell       Class = "shell"
	ClassImage       Class = "image"
	ClassAsset       Class = "asset"
	ClassSameOrigin  Class = "same-origin"
	ClassCrossOrigin Class = "cross-origin"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true, ".avif": true,
}

var assetExts = map[string]bool{
	".css": true, ".js": true, ".mjs": true, ".woff": true, ".woff2": true,
}

// classifier resolves requests against the configured origin and app
// shell list.
type classifier struct {
	originHost string
	shell      map[string]bool
}

func newClassifier(origin string, shellFiles []string) *classifier {
	c := &classifier{shell: make(map[string]bool, len(shellFiles))}
	if u, err := url.Parse(origin); err == nil {
		c.originHost = u.Host
	}
	for _, f := range shellFiles {
		c.shell[normalizePath(f)] = true
	}
	return c
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return strings.TrimSuffix(p, "/")
}

func (c *classifier) classify(req Request) Class {
	switch strings.ToUpper(req.Method) {
	case "GET", "HEAD", "":
	default:
		return ClassMutation
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return ClassSameOrigin
	}
	if u.Host != "" && u.Host != c.originHost {
		return ClassCrossOrigin
	}

	p := normalizePath(u.Path)
	if c.shell[p] {
		return ClassShell
	}
	ext := strings.ToLower(path.Ext(p))
	if imageExts[ext] {
		return ClassImage
	}
	if assetExts[ext] {
		return ClassAsset
	}
	return ClassSameOrigin
}

// isRootDocument reports whether the request targets the app's entry
// document, which gets the offline fallback page on total failure.
func isRootDocument(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := normalizePath(u.Path)
	return p == "/" || p == "/index.html"
}
