// Package catalog holds the static conversion mode table and the set of
// media extensions accepted as input.
package catalog

import (
	"path/filepath"
	"sort"
	"strings"

	"alchemist/internal/domain"
)

// DefaultMode is the mode selected on first launch.
const DefaultMode = 0

var supportedExtensions = map[string]struct{}{
	".mov": {}, ".mp4": {}, ".m4v": {}, ".avi": {}, ".mkv": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".mpg": {}, ".mpeg": {}, ".mts": {}, ".m2ts": {}, ".dv": {}, ".ogv": {},
	".3gp": {}, ".mxf": {},
}

// Len returns the number of catalog entries.
func Len() int {
	return len(modes)
}

// Mode returns a copy of the mode at index.
func Mode(index int) (domain.ConversionMode, bool) {
	if index < 0 || index >= len(modes) {
		return domain.ConversionMode{}, false
	}
	return cloneMode(modes[index]), true
}

// Modes returns a copy of the full catalog in index order.
func Modes() []domain.ConversionMode {
	out := make([]domain.ConversionMode, len(modes))
	for i, mode := range modes {
		out[i] = cloneMode(mode)
	}
	return out
}

// RequiredKinds lists the distinct tool kinds used by a mode in first-use order.
func RequiredKinds(mode domain.ConversionMode) []domain.ToolKind {
	seen := make(map[domain.ToolKind]struct{}, len(mode.Outputs))
	kinds := make([]domain.ToolKind, 0, len(mode.Outputs))
	for _, out := range mode.Outputs {
		if _, ok := seen[out.Kind]; ok {
			continue
		}
		seen[out.Kind] = struct{}{}
		kinds = append(kinds, out.Kind)
	}
	return kinds
}

// IsSupported reports whether path carries an accepted media extension.
func IsSupported(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ExtensionList returns the accepted extensions sorted for display.
func ExtensionList() []string {
	out := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func cloneMode(mode domain.ConversionMode) domain.ConversionMode {
	outputs := make([]domain.OutputSpec, len(mode.Outputs))
	for i, out := range mode.Outputs {
		out.Flags = cloneStrings(out.Flags)
		out.FallbackFlags = cloneStrings(out.FallbackFlags)
		outputs[i] = out
	}
	mode.Outputs = outputs
	return mode
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
