package imageproxy

import (
	"sort"
	"strings"
)

// AllowList is an immutable set of hostnames the proxy may fetch from.
// Matching is exact and case-insensitive: no suffix, prefix or wildcard
// matching, so shop.example.com does not admit cdn.shop.example.com.
type AllowList struct {
	hosts map[string]struct{}
}

// NewAllowList builds an allow-list from hostnames; blanks are ignored
func NewAllowList(hosts []string) *AllowList {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if h = normalizeHost(h); h != "" {
			set[h] = struct{}{}
		}
	}
	return &AllowList{hosts: set}
}

// Allows reports whether host is on the list
func (a *AllowList) Allows(host string) bool {
	h := normalizeHost(host)
	if h == "" {
		return false
	}
	_, ok := a.hosts[h]
	return ok
}

// Hosts returns the allowed hostnames in sorted order
func (a *AllowList) Hosts() []string {
	out := make([]string, 0, len(a.hosts))
	for h := range a.hosts {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of allowed hostnames
func (a *AllowList) Len() int {
	return len(a.hosts)
}

func normalizeHost(h string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
}
