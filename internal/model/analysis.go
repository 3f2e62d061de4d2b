package model

type GroupedTestFailure struct {
	TestName  string           `json:"test_name" yaml:"test_name"`
	Platforms []string         `json:"platforms" yaml:"platforms"`
	Jobs      []GroupedJobInfo `json:"jobs" yaml:"jobs"`
}

type GroupedJobInfo struct {
	JobID       int64  `json:"job_id" yaml:"job_id"`
	Platform    string `json:"platform" yaml:"platform"`
	JobTypeName string `json:"job_type_name" yaml:"job_type_name"`
	Subtest     string `json:"subtest,omitempty" yaml:"subtest,omitempty"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
}

type ComparisonResult struct {
	BaseRevision    string              `json:"base_revision" yaml:"base_revision"`
	CompareRevision string              `json:"compare_revision" yaml:"compare_revision"`
	BasePushID      int64               `json:"base_push_id" yaml:"base_push_id"`
	ComparePushID   int64               `json:"compare_push_id" yaml:"compare_push_id"`
	NewFailures     []ComparisonFailure `json:"new_failures" yaml:"new_failures"`
	FixedFailures   []ComparisonFailure `json:"fixed_failures" yaml:"fixed_failures"`
	StillFailing    []ComparisonFailure `json:"still_failing" yaml:"still_failing"`
}

// ComparisonFailure groups the platforms of one test inside a comparison
// bucket. JobType is never populated.
type ComparisonFailure struct {
	TestName  string   `json:"test_name" yaml:"test_name"`
	Platforms []string `json:"platforms" yaml:"platforms"`
	JobType   string   `json:"job_type" yaml:"job_type"`
}
