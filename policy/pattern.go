package policy

import (
	"path"
	"strings"
)

// matchPath reports whether urlPath matches an Ant-style pattern.
// "**" matches zero or more segments, "*" matches exactly one non-empty
// segment, anything else is compared literally.
func matchPath(pattern, urlPath string) bool {
	return matchSegments(splitPath(pattern), splitPath(normalizePath(urlPath)))
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		head := pat[0]
		if head == "**" {
			rest := pat[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		}

		if len(segs) == 0 {
			return false
		}
		if head != "*" && head != segs[0] {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}

// normalizePath resolves dot segments and duplicate slashes so that a path
// cannot dodge a rule by being spelled differently from what the router sees.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// validPattern rejects patterns the matcher would silently misread.
func validPattern(p string) bool {
	if !strings.HasPrefix(p, "/") {
		return false
	}
	for _, seg := range splitPath(p) {
		if seg == "" {
			return false
		}
		if seg != "*" && seg != "**" && strings.Contains(seg, "*") {
			return false
		}
	}
	return true
}
