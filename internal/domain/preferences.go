package domain

// Preference keys understood by the orchestrator. The rename keys are
// persisted for the front end but not consumed here.
const (
	PrefType      = "type"
	PrefLocation  = "location"
	PrefLocation2 = "location2"
	PrefLocation3 = "location3"

	PrefSpacer        = "spacer"
	PrefDateSpacer    = "dateSpacer"
	PrefPrefix        = "prefix"
	PrefPrefixEnabled = "preBox"
	PrefSuffix        = "suffix"
	PrefSuffixEnabled = "sufBox"
	PrefDateEnabled   = "dateBox"
	PrefDateReverse   = "dateReverseBox"
)

// Preferences is the typed view of the flat preference map.
type Preferences struct {
	// Mode is the conversion mode index.
	Mode int `json:"type"`
	// QTExportDir is the configured qt_export directory ("location").
	QTExportDir string `json:"location"`
	// FFmpegDir is the configured ffmpeg directory ("location2").
	FFmpegDir string `json:"location2"`
	// TheoraDir is the configured ffmpeg2theora directory ("location3").
	TheoraDir string `json:"location3"`
}

// ToolCheck answers a single "is this tool usable" query from the UI.
type ToolCheck struct {
	OK   bool   `json:"ok"`
	Path string `json:"path"`
}
