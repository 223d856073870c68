package config

const (
	defaultConfigPath    = "~/.config/ytdb/config.toml"
	defaultFailedFile    = "download_failed.txt"
	defaultReportFile    = "weird_yt_ids.txt"
	defaultLogDir        = "~/.local/share/ytdb/logs"
	defaultJournalPath   = "~/.local/share/ytdb/journal.db"
	defaultYtdlpBinary   = "yt-dlp"
	defaultFFmpegBinary  = "ffmpeg"
	defaultDownloadType  = "audio"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultJournalEnable = true
)

// defaultSkipKinds lists failure kinds not worth retrying on a re-run.
var defaultSkipKinds = []string{"removed", "unavailable", "unsupported"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			FailedFile:  defaultFailedFile,
			ReportFile:  defaultReportFile,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
		},
		Fetch: Fetch{
			YtdlpBinary:  defaultYtdlpBinary,
			FFmpegBinary: defaultFFmpegBinary,
			UseNetrc:     true,
		},
		Download: Download{
			Type:      defaultDownloadType,
			SkipKinds: append([]string(nil), defaultSkipKinds...),
		},
		Journal: Journal{
			Enabled: defaultJournalEnable,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
