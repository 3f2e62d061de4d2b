package model

// ErrorLine is one structured record of an errorsummary log.
type ErrorLine struct {
	Action  string `json:"action" yaml:"action"`
	Line    int64  `json:"line" yaml:"line"`
	Test    string `json:"test,omitempty" yaml:"test,omitempty"`
	Subtest string `json:"subtest,omitempty" yaml:"subtest,omitempty"`
	Status  string `json:"status,omitempty" yaml:"status,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Stack   string `json:"stack,omitempty" yaml:"stack,omitempty"`
}

const (
	ActionTestResult = "test_result"
	StatusFail       = "FAIL"
)

// IsFailure reports whether the record is a failed test_result.
func (e ErrorLine) IsFailure() bool {
	return e.Action == ActionTestResult && e.Status == StatusFail
}

type LogMatch struct {
	LogName     string `json:"log_name" yaml:"log_name"`
	LineNumber  int    `json:"line_number" yaml:"line_number"`
	LineContent string `json:"line_content" yaml:"line_content"`
}

// JobWithLogs is the unit handed to every renderer.
type JobWithLogs struct {
	Job        Job         `json:"job" yaml:"job"`
	Errors     []ErrorLine `json:"errors" yaml:"errors"`
	LogMatches []LogMatch  `json:"log_matches" yaml:"log_matches"`
	LogDir     string      `json:"log_dir,omitempty" yaml:"log_dir,omitempty"`
}

// NewJobWithLogs returns a JobWithLogs with non-nil slices so JSON output
// always carries arrays.
func NewJobWithLogs(job Job) JobWithLogs {
	return JobWithLogs{Job: job, Errors: []ErrorLine{}, LogMatches: []LogMatch{}}
}
