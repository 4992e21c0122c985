package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"alchemist/internal/domain"
)

// ErrInvalidMode reports a conversion mode that is not an integer.
var ErrInvalidMode = errors.New("invalid conversion mode")

// ParsePreferences validates the flat map handed over by the front end and
// returns its typed view. Missing keys fall back to the defaults; range
// checking of the mode is left to the compiler.
func ParsePreferences(raw map[string]any) (domain.Preferences, error) {
	prefs := domain.Preferences{
		Mode:        0,
		QTExportDir: DefaultQTExportDir,
		FFmpegDir:   DefaultFFmpegDir,
		TheoraDir:   DefaultTheoraDir,
	}

	if value, ok := raw[domain.PrefType]; ok && value != nil {
		mode, err := parseMode(value)
		if err != nil {
			return domain.Preferences{}, err
		}
		prefs.Mode = mode
	}

	prefs.QTExportDir = locationOr(raw, domain.PrefLocation, prefs.QTExportDir)
	prefs.FFmpegDir = locationOr(raw, domain.PrefLocation2, prefs.FFmpegDir)
	prefs.TheoraDir = locationOr(raw, domain.PrefLocation3, prefs.TheoraDir)
	return prefs, nil
}

func parseMode(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidMode, v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidMode, v)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMode, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidMode, value)
	}
}

// locationOr returns the trimmed directory stored under key. Absent or
// non-string values select fallback; an explicit empty string means unset.
func locationOr(raw map[string]any, key, fallback string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return fallback
	}
	s, ok := value.(string)
	if !ok {
		return fallback
	}
	return strings.TrimSpace(s)
}
