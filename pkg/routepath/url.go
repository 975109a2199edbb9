// Package routepath splits URLs into the parts routes are matched against
// and canonicalizes their paths.
package routepath

import (
	"net/url"
	"strings"
)

// URL is a parsed navigation target.
type URL struct {
	// Host is set only for absolute inputs, without scheme or port
	// stripping.
	Host string

	// Path is the canonical, still escaped path. It always starts with "/".
	Path string

	// RawQuery is the query string without "?".
	RawQuery string

	// Query is the decoded query. Repeated keys keep every value.
	Query url.Values

	// Hash is the fragment without leading "#" characters.
	Hash string
}

// IsAbsolute reports whether the URL carried a host.
func (u URL) IsAbsolute() bool { return u.Host != "" }

// String reassembles the URL from its parts.
func (u URL) String() string {
	var b strings.Builder
	if u.Host != "" {
		b.WriteString("https://")
		b.WriteString(u.Host)
	}
	b.WriteString(u.Path)
	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	if u.Hash != "" {
		b.WriteByte('#')
		b.WriteString(u.Hash)
	}
	return b.String()
}

// Parse splits raw into host, path, query and hash. Absolute inputs
// (http://host/path?query#hash) carry a host; root-relative inputs
// (/path?query#hash) and relative ones carry none. The path is
// canonicalized with CanonicalizePath.
func Parse(raw string) (URL, error) {
	var out URL
	rest, hash, _ := strings.Cut(raw, "#")
	out.Hash = strings.TrimLeft(hash, "#")

	if i := strings.Index(rest, "://"); i > 0 && !strings.ContainsAny(rest[:i], "/?") {
		u, err := url.Parse(rest)
		if err != nil {
			return URL{}, ErrInvalidPath
		}
		out.Host = u.Host
		rest = u.EscapedPath()
		if u.RawQuery != "" || u.ForceQuery {
			rest += "?" + u.RawQuery
		}
	}

	path, query, _ := strings.Cut(rest, "?")
	canonical, _, err := CanonicalizePath(path)
	if err != nil {
		return URL{}, err
	}
	out.Path = canonical

	out.RawQuery = query
	out.Query, err = url.ParseQuery(query)
	if err != nil {
		return URL{}, err
	}
	return out, nil
}
