// Package imageproxy rewrites catalog image addresses into same-origin proxy
// references and serves those references from an allow-listed set of hosts.
package imageproxy

import (
	"net/url"
	"strings"
)

// DefaultPath is where the gateway mounts the proxy endpoint
const DefaultPath = "/api/v1/proxy/image"

// Rewriter turns absolute image URLs into proxy references and back
type Rewriter struct {
	path string
}

// NewRewriter creates a rewriter that points references at path
func NewRewriter(path string) *Rewriter {
	if path == "" {
		path = DefaultPath
	}
	return &Rewriter{path: path}
}

// Path returns the proxy endpoint path
func (r *Rewriter) Path() string {
	return r.path
}

// Rewrite returns the proxy reference for raw. Empty input stays empty and a
// value that already is a proxy reference is returned unchanged, so applying
// Rewrite twice is the same as applying it once.
func (r *Rewriter) Rewrite(raw string) string {
	if raw == "" || r.IsRewritten(raw) {
		return raw
	}
	return r.path + "?url=" + url.QueryEscape(raw)
}

// RewriteSrcSet rewrites every candidate URL of a srcset attribute and keeps
// the width or density descriptors.
func (r *Rewriter) RewriteSrcSet(srcset string) string {
	if strings.TrimSpace(srcset) == "" {
		return srcset
	}
	candidates := strings.Split(srcset, ",")
	out := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		fields := strings.Fields(candidate)
		if len(fields) == 0 {
			continue
		}
		fields[0] = r.Rewrite(fields[0])
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, ", ")
}

// IsRewritten reports whether s is a proxy reference. Only a value that starts
// with the proxy path counts; an upstream URL merely containing it does not.
func (r *Rewriter) IsRewritten(s string) bool {
	return strings.HasPrefix(s, r.path+"?url=")
}
