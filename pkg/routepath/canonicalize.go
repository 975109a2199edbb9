package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Path canonicalization errors.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in non-catch-all segment")
)

// CanonicalizePath normalizes a URL path before it is matched.
//
// The following transformations are applied:
//   - A leading "/" is added when missing
//   - "." segments are removed (/blog/./post → /blog/post)
//   - ".." segments are resolved (/blog/../other → /other)
//
// Empty segments are kept (/users//edit stays as is): an empty optional
// placeholder assembles to one, and the matcher must see it. A trailing
// slash is kept for the same reason.
//
// The following inputs are rejected:
//   - Paths containing backslash (\)
//   - Paths containing NUL byte (literal or %00)
//   - Invalid percent-escapes (e.g., %GG, %2)
//   - ".." that would escape root (e.g., /../secret)
//
// The changed result reports whether the output differs from the input.
func CanonicalizePath(path string) (canonical string, changed bool, err error) {
	if path == "" {
		return "/", true, nil
	}

	if strings.Contains(path, "\\") {
		return "", false, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", false, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return "", false, err
		}
	}

	original := path

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	result := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case ".":
			continue
		case "..":
			if len(result) == 0 {
				return "", false, ErrPathEscapesRoot
			}
			result = result[:len(result)-1]
		default:
			result = append(result, seg)
		}
	}

	path = "/" + strings.Join(result, "/")
	return path, path != original, nil
}

// validatePercentEscapes checks that every "%" starts a %XX escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// DecodeSegment decodes a value captured from a path or host template.
// Values of single-segment placeholders must not decode to a "/": that
// would let one param smuggle extra segments.
func DecodeSegment(segment string, isCatchAll bool) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !isCatchAll && strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}

// EscapeSegment is the inverse of DecodeSegment. Catch-all values keep
// their "/" separators. A segment that is exactly "." or ".." is
// percent-encoded so that CanonicalizePath does not resolve it.
func EscapeSegment(value string, isCatchAll bool) string {
	if !isCatchAll {
		return escapeOne(value)
	}
	parts := strings.Split(value, "/")
	for i, p := range parts {
		parts[i] = escapeOne(p)
	}
	return strings.Join(parts, "/")
}

func escapeOne(segment string) string {
	switch segment {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return url.PathEscape(segment)
}

// ValidateNavigationTarget rejects targets that would leave the
// application: full URLs with a scheme, protocol-relative "//host" paths
// and paths not rooted at "/".
func ValidateNavigationTarget(target string) error {
	if strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "//") {
		return ErrInvalidPath
	}
	if !strings.HasPrefix(target, "/") {
		return ErrInvalidPath
	}
	return nil
}
