// Package pathnorm turns dropped file references into canonical paths and
// orders them the way a person reading a folder listing expects.
package pathnorm

import (
	"path/filepath"
	"runtime"
	"strings"
)

var schemePrefixes = []string{"file://localhost", "file://"}

// Normalize converts raw drop references (plain paths or file:// URIs) into
// absolute, cleaned filesystem paths. Malformed input is decoded best-effort
// and passed through; validation happens later.
func Normalize(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, ref := range raw {
		out = append(out, normalizeOne(ref))
	}
	return out
}

func normalizeOne(ref string) string {
	p := strings.TrimSpace(ref)
	for _, prefix := range schemePrefixes {
		if len(p) >= len(prefix) && strings.EqualFold(p[:len(prefix)], prefix) {
			p = p[len(prefix):]
			break
		}
	}
	p = percentDecode(p)
	if runtime.GOOS == "windows" {
		p = trimDriveSlash(p)
	}
	if p == "" {
		return p
	}

	p = filepath.Clean(filepath.FromSlash(p))
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p
}

// percentDecode replaces every well-formed %XX escape with its byte and
// leaves anything else untouched.
func percentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// trimDriveSlash turns "/C:/clips" (URI form) into "C:/clips".
func trimDriveSlash(p string) string {
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		return p[1:]
	}
	return p
}
