package model

// JobsReport is the envelope of the default job listing.
type JobsReport struct {
	Revision string        `json:"revision" yaml:"revision"`
	PushID   int64         `json:"push_id" yaml:"push_id"`
	Jobs     []JobWithLogs `json:"jobs" yaml:"jobs"`

	// LogsFetched switches the text view between error-summary and
	// full-log presentation.
	LogsFetched bool        `json:"-" yaml:"-"`
	Storage     *LogStorage `json:"-" yaml:"-"`
}

// LogStorage describes where full logs were written.
type LogStorage struct {
	Dir          string
	Temporary    bool
	MetadataPath string
}

type GroupedReport struct {
	Revision        string               `json:"revision" yaml:"revision"`
	PushID          int64                `json:"push_id" yaml:"push_id"`
	GroupedFailures []GroupedTestFailure `json:"grouped_failures" yaml:"grouped_failures"`

	Storage *LogStorage `json:"-" yaml:"-"`
}

type PerfReport struct {
	Revision string        `json:"revision" yaml:"revision"`
	PushID   int64         `json:"push_id" yaml:"push_id"`
	Jobs     []JobPerfData `json:"jobs" yaml:"jobs"`
}

type ArtifactReport struct {
	Revision    string `json:"revision" yaml:"revision"`
	PushID      int64  `json:"push_id" yaml:"push_id"`
	ArtifactDir string `json:"artifact_dir" yaml:"artifact_dir"`
	TotalFiles  int    `json:"total_files" yaml:"total_files"`
}
