package config

const (
	defaultBind             = "127.0.0.1:3000"
	defaultBaseURL          = "http://localhost:3000"
	defaultCORSOrigin       = "*"
	defaultDataDir          = "~/.local/share/reelcast"
	defaultReplicateBaseURL = "https://api.replicate.com/v1"
	defaultImageVersion     = "39ed52f2a78e934b3ba6e2a89f5b1c712de7dfea535525255b1aa35c5565e08b"
	defaultVideoVersion     = "3f0457e4619daac51203dedb472816fd4af51f3149fa7a9e0b5ffcf1b8172438"
	defaultProviderTimeout  = 300
	defaultPollIntervalMS   = 2000
	defaultInstagramBaseURL = "https://i.instagram.com"
	defaultMaxVideoBytes    = 256 << 20
	defaultMaxConcurrent    = 2
	defaultPipeline         = PipelineDirect
	defaultRetentionDays    = 30
	defaultSweepSchedule    = "@daily"
	defaultServiceName      = "reelcast"
	defaultSampleRatio      = 1.0
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

const (
	PipelineDirect = "direct"
	PipelineHTTP   = "http"

	HistoryDriverNone     = ""
	HistoryDriverSQLite   = "sqlite"
	HistoryDriverPostgres = "postgres"

	TracingExporterNone   = "none"
	TracingExporterStdout = "stdout"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:       defaultBind,
			BaseURL:    defaultBaseURL,
			CORSOrigin: defaultCORSOrigin,
			DataDir:    defaultDataDir,
		},
		Replicate: Replicate{
			BaseURL:        defaultReplicateBaseURL,
			ImageVersion:   defaultImageVersion,
			VideoVersion:   defaultVideoVersion,
			TimeoutSeconds: defaultProviderTimeout,
			PollIntervalMS: defaultPollIntervalMS,
		},
		Instagram: Instagram{
			BaseURL:        defaultInstagramBaseURL,
			TimeoutSeconds: defaultProviderTimeout,
			MaxVideoBytes:  defaultMaxVideoBytes,
		},
		Scheduler: Scheduler{
			MaxConcurrent: defaultMaxConcurrent,
			Pipeline:      defaultPipeline,
		},
		History: History{
			RetentionDays: defaultRetentionDays,
			SweepSchedule: defaultSweepSchedule,
		},
		Tracing: Tracing{
			Exporter:    TracingExporterNone,
			ServiceName: defaultServiceName,
			SampleRatio: defaultSampleRatio,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
