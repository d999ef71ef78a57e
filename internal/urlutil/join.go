// Package urlutil builds request URLs for the provider, invitation and
// billing clients.
package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// JoinPath appends path segments to a base URL, normalizing the slashes
// between base and segments. A trailing slash on the last segment is
// kept.
func JoinPath(base string, segments ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	u.Path = path.Join(append([]string{u.Path}, segments...)...)
	if n := len(segments); n > 0 && strings.HasSuffix(segments[n-1], "/") {
		u.Path += "/"
	}

	return u.String(), nil
}

// MustJoinPath is JoinPath for bases that config validation has already
// accepted; it panics on a parse failure.
func MustJoinPath(base string, segments ...string) string {
	joined, err := JoinPath(base, segments...)
	if err != nil {
		panic(err)
	}
	return joined
}
