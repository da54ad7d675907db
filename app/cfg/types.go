package cfg

import (
	"time"
)

type Cfg struct {
	// Storage
	DBPath     string
	SourcesDir string

	// Application configuration
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Acquisition
	UserAgent   string
	FetchRate   time.Duration
	UploadLimit int64

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
