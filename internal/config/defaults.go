package config

const (
	defaultLogDir              = "~/.local/share/hardsub/logs"
	defaultStateDir            = "~/.local/share/hardsub"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultCadence             = 10
	defaultEngine              = EngineCommand
	defaultOCRCommand          = "hardsub-ocr"
	defaultLanguage            = "ch"
	defaultConfidenceThreshold = 0.8
	defaultMinTextLength       = 2
	defaultMaxTextLength       = 50
	defaultRecognitionTimeout  = 30
	defaultMinDurationSeconds  = 0.5
	defaultMaxDurationSeconds  = 3.0
	defaultEmptyThreshold      = 6
	defaultGroupSize           = 5
	defaultOutputDirName       = "output"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultNotifyTimeout       = 10
)

// Recognition engines understood by the recognition package.
const (
	EngineCommand   = "command"
	EngineTesseract = "tesseract"
)

// CommandForEngine returns the executable an engine runs when
// recognition.command is not set.
func CommandForEngine(engine string) string {
	if engine == EngineTesseract {
		return "tesseract"
	}
	return defaultOCRCommand
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Sampling: Sampling{
			Cadence: defaultCadence,
		},
		Recognition: Recognition{
			Engine:              defaultEngine,
			Command:             CommandForEngine(defaultEngine),
			Language:            defaultLanguage,
			ConfidenceThreshold: defaultConfidenceThreshold,
			MinTextLength:       defaultMinTextLength,
			MaxTextLength:       defaultMaxTextLength,
			TimeoutSeconds:      defaultRecognitionTimeout,
		},
		Segmentation: Segmentation{
			MinDurationSeconds: defaultMinDurationSeconds,
			MaxDurationSeconds: defaultMaxDurationSeconds,
			EmptyThreshold:     defaultEmptyThreshold,
		},
		Batch: Batch{
			GroupSize:     defaultGroupSize,
			OutputDirName: defaultOutputDirName,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
