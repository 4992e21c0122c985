package catalog

import "alchemist/internal/domain"

// Flag templates shared by several outputs.
var (
	x264QualityFlags = []string{
		"-c:v", "libx264", "-crf", "18",
		"-trellis", "1", "-me_range", "32",
		"-i_qfactor", "0.71", "-g", "60",
		"-sc_threshold", "20", "-qmin", "4", "-qmax", "48",
		"-qdiff", "8",
	}
)

var modes = []domain.ConversionMode{
	{
		Label: "QuickTime ProRes 422",
		Outputs: []domain.OutputSpec{
			{
				Kind:   domain.ToolKindLegacyPreset,
				Preset: "qt_export_prores422.st",
				Suffix: ".prores422.mov",
				FallbackFlags: []string{
					"-c:v", "prores_ks", "-profile:v", "2",
					"-c:a", "pcm_s16le",
				},
			},
		},
	},
	{
		Label: "QuickTime HDV 1080p",
		Outputs: []domain.OutputSpec{
			{
				Kind:   domain.ToolKindLegacyPreset,
				Preset: "qt_export_hdv_1080p.st",
				Suffix: ".hdv1080.mov",
				FallbackFlags: []string{
					"-c:v", "mpeg2video", "-b:v", "25M",
					"-vf", "scale=1440:1080", "-c:a", "ac3", "-b:a", "192k",
				},
			},
		},
	},
	{
		Label: "QuickTime HDV 720p",
		Outputs: []domain.OutputSpec{
			{
				Kind:   domain.ToolKindLegacyPreset,
				Preset: "qt_export_hdv_720p.st",
				Suffix: ".hdv720.mov",
				FallbackFlags: []string{
					"-c:v", "mpeg2video", "-b:v", "19.7M",
					"-vf", "scale=1280:720", "-c:a", "ac3", "-b:a", "192k",
				},
			},
		},
	},
	{
		Label: "QuickTime AIC",
		Outputs: []domain.OutputSpec{
			{
				Kind:   domain.ToolKindLegacyPreset,
				Preset: "qt_export_aic.st",
				Suffix: ".aic.mov",
				// AIC has no open encoder; ProRes LT is the closest substitute.
				FallbackFlags: []string{
					"-c:v", "prores_ks", "-profile:v", "1",
					"-c:a", "pcm_s16le",
				},
				Note: "AIC has no open FFmpeg codec; using ProRes LT as fallback",
			},
		},
	},
	{
		Label: "MP4, OGG, WebM  720p / 540p",
		Outputs: []domain.OutputSpec{
			{
				Kind: domain.ToolKindTwoPass,
				Flags: []string{
					"-c:v", "libx264", "-b:v", "1536k",
					"-minrate", "128k", "-maxrate", "3072k", "-bufsize", "224k",
					"-vf", "lutyuv=y=gammaval(1.2),scale=1280:720",
					"-c:a", "aac", "-b:a", "160k",
				},
				Suffix: ".720p.mp4",
			},
			{
				Kind: domain.ToolKindTwoPass,
				Flags: []string{
					"-c:v", "libx264", "-b:v", "1024k",
					"-minrate", "128k", "-maxrate", "2560k", "-bufsize", "224k",
					"-vf", "lutyuv=y=gammaval(1.2),scale=960:540",
					"-c:a", "aac", "-b:a", "128k",
				},
				Suffix: ".540p.mp4",
			},
			{
				Kind: domain.ToolKindSinglePass,
				Flags: concat(x264QualityFlags,
					"-vf", "lutyuv=y=gammaval(1.2),scale=1280:720",
					"-c:a", "aac", "-b:a", "160k",
				),
				Suffix: ".720p.Q.mp4",
			},
			{
				Kind: domain.ToolKindSinglePass,
				Flags: concat(x264QualityFlags,
					"-vf", "lutyuv=y=gammaval(1.2),scale=960:540",
					"-c:a", "aac", "-b:a", "128k",
				),
				Suffix: ".540p.Q.mp4",
			},
			{
				Kind: domain.ToolKindTheora,
				Flags: []string{
					"-V", "2560k", "-A", "160k",
					"--two-pass", "--speedlevel", "0",
					"--max_size", "1280x720",
				},
				Suffix: ".720p.ogg",
			},
			{
				Kind: domain.ToolKindTheora,
				Flags: []string{
					"-V", "1920k", "-A", "128k",
					"--two-pass", "--speedlevel", "0",
					"--max_size", "960x540",
				},
				Suffix: ".540p.ogg",
			},
			{
				Kind: domain.ToolKindSinglePass,
				Flags: []string{
					"-c:v", "libvpx", "-b:v", "1280k",
					"-minrate", "0k", "-maxrate", "2048k", "-bufsize", "224k",
					"-vf", "lutyuv=y=gammaval(1.1),scale=1280:720",
					"-f", "webm", "-c:a", "libvorbis", "-b:a", "160k",
				},
				Suffix: ".720p.webm",
			},
			{
				Kind: domain.ToolKindSinglePass,
				Flags: []string{
					"-c:v", "libvpx", "-b:v", "1024k",
					"-minrate", "0k", "-maxrate", "1536k", "-bufsize", "224k",
					"-vf", "lutyuv=y=gammaval(1.1),scale=960:540",
					"-f", "webm", "-c:a", "libvorbis", "-b:a", "128k",
				},
				Suffix: ".540p.webm",
			},
		},
	},
	{
		Label: "MP4, WMV  720p",
		Outputs: []domain.OutputSpec{
			{
				Kind: domain.ToolKindTwoPass,
				Flags: []string{
					"-c:v", "libx264", "-b:v", "2048k",
					"-minrate", "128k", "-maxrate", "4096k", "-bufsize", "224k",
					"-vf", "lutyuv=y=gammaval(1.2),scale=1280:720",
					"-c:a", "aac", "-b:a", "160k",
				},
				Suffix: ".720p.mp4",
			},
			{
				Kind: domain.ToolKindTwoPass,
				Flags: []string{
					"-c:v", "wmv2", "-b:v", "3072k",
					"-vf", "lutyuv=y=gammaval(1.2),scale=1280:720",
					"-c:a", "wmav2", "-b:a", "160k",
				},
				Suffix: ".720p.wmv",
			},
		},
	},
	{
		Label: "MP4  480p / 360p",
		Outputs: []domain.OutputSpec{
			{
				Kind: domain.ToolKindTwoPass,
				Flags: []string{
					"-c:v", "libx264", "-b:v", "1024k",
					"-minrate", "128k", "-maxrate", "1536k", "-bufsize", "224k",
					"-vf", "scale=854:480",
					"-c:a", "aac", "-b:a", "128k",
				},
				Suffix: ".480p.mp4",
			},
			{
				Kind: domain.ToolKindTwoPass,
				Flags: []string{
					"-c:v", "libx264", "-b:v", "768k",
					"-minrate", "128k", "-maxrate", "1280k", "-bufsize", "224k",
					"-vf", "scale=640:360",
					"-c:a", "aac", "-b:a", "128k",
				},
				Suffix: ".360p.mp4",
			},
		},
	},
}

func init() {
	for i := range modes {
		modes[i].Index = i
	}
}

func concat(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
