package pathnorm

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSortAlphanumericNumericRuns verifies digit runs compare by value.
func TestSortAlphanumericNumericRuns(t *testing.T) {
	got := SortAlphanumeric([]string{"a2.mov", "a10.mov", "a1.mov"})
	assert.Equal(t, []string{"a1.mov", "a2.mov", "a10.mov"}, got)
}

// TestSortAlphanumericClipNames verifies clip2 sorts before clip10.
func TestSortAlphanumericClipNames(t *testing.T) {
	got := SortAlphanumeric([]string{
		"/media/clip10.mov",
		"/media/Clip3.mov",
		"/media/clip2.mov",
		"/media/b.mov",
		"/media/A.mov",
	})
	assert.Equal(t, []string{
		"/media/A.mov",
		"/media/b.mov",
		"/media/clip2.mov",
		"/media/Clip3.mov",
		"/media/clip10.mov",
	}, got)
}

// TestSortAlphanumericStableForEqualKeys verifies ties keep input order.
func TestSortAlphanumericStableForEqualKeys(t *testing.T) {
	in := []string{"/x/Take01.mov", "/y/take1.mov", "/z/TAKE001.mov"}
	assert.Equal(t, in, SortAlphanumeric(in))
}

// TestSortAlphanumericUsesBasename verifies directories do not affect ordering.
func TestSortAlphanumericUsesBasename(t *testing.T) {
	got := SortAlphanumeric([]string{"/zzz/a2.mov", "/aaa/a10.mov"})
	assert.Equal(t, []string{"/zzz/a2.mov", "/aaa/a10.mov"}, got)
}

// TestSortAlphanumericLongDigitRuns verifies runs beyond int64 still order by value.
func TestSortAlphanumericLongDigitRuns(t *testing.T) {
	got := SortAlphanumeric([]string{
		"shot100000000000000000000.mov",
		"shot99999999999999999999.mov",
	})
	assert.Equal(t, "shot99999999999999999999.mov", got[0])
}

// TestSortAlphanumericDoesNotMutateInput verifies the caller's slice is untouched.
func TestSortAlphanumericDoesNotMutateInput(t *testing.T) {
	in := []string{"b.mov", "a.mov"}
	_ = SortAlphanumeric(in)
	assert.Equal(t, []string{"b.mov", "a.mov"}, in)
}

// TestKeyLeadingDigits verifies a leading digit run is preceded by an empty text part.
func TestKeyLeadingDigits(t *testing.T) {
	parts := Key("/media/10a.mov")
	require.Len(t, parts, 3)
	assert.Equal(t, Part{Text: ""}, parts[0])
	assert.Equal(t, Part{Digits: true, Text: "10"}, parts[1])
	assert.Equal(t, Part{Text: "a.mov"}, parts[2])
}

// TestLess checks the pairwise comparator.
func TestLess(t *testing.T) {
	assert.True(t, Less("clip2.mov", "clip10.mov"))
	assert.False(t, Less("clip10.mov", "clip2.mov"))
	assert.False(t, Less("CLIP2.mov", "clip2.mov"))
}

// TestNormalizeFileURIs verifies scheme stripping and percent decoding.
func TestNormalizeFileURIs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}
	got := Normalize([]string{
		"file:///Users/me/My%20Clips/take%231.mov",
		"file://localhost/Volumes/Media/a.mov",
		"  /tmp/./nested/../plain.mov \n",
		"file:///tmp/caf%C3%A9.mov",
	})
	assert.Equal(t, []string{
		"/Users/me/My Clips/take#1.mov",
		"/Volumes/Media/a.mov",
		"/tmp/plain.mov",
		"/tmp/café.mov",
	}, got)
}

// TestNormalizeMalformedEscapesPassThrough verifies bad escapes are kept verbatim.
func TestNormalizeMalformedEscapesPassThrough(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}
	got := Normalize([]string{"/tmp/100%zz.mov", "/tmp/end%4"})
	assert.Equal(t, []string{"/tmp/100%zz.mov", "/tmp/end%4"}, got)
}

// TestNormalizeRelativeBecomesAbsolute verifies relative references are anchored to the working directory.
func TestNormalizeRelativeBecomesAbsolute(t *testing.T) {
	got := Normalize([]string{"clip.mov"})
	require.Len(t, got, 1)
	assert.True(t, filepath.IsAbs(got[0]))
	assert.Equal(t, "clip.mov", filepath.Base(got[0]))
}

// TestNormalizeEmptyReference verifies empty input stays empty for downstream validation.
func TestNormalizeEmptyReference(t *testing.T) {
	assert.Equal(t, []string{""}, Normalize([]string{"   "}))
}
