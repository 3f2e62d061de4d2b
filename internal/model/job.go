package model

type JobResult string

const (
	ResultSuccess    JobResult = "success"
	ResultTestFailed JobResult = "testfailed"
	ResultBusted     JobResult = "busted"
	ResultUnknown    JobResult = "unknown"
)

type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
)

// ClassificationIntermittent is the failure classification id Treeherder
// assigns to known-flaky failures.
const ClassificationIntermittent int64 = 4

// Job is one row of a push's job table after normalization.
type Job struct {
	ID                      int64     `json:"id" yaml:"id"`
	JobTypeName             string    `json:"job_type_name" yaml:"job_type_name"`
	JobTypeSymbol           string    `json:"job_type_symbol" yaml:"job_type_symbol"`
	Platform                string    `json:"platform" yaml:"platform"`
	PlatformOption          string    `json:"platform_option" yaml:"platform_option"`
	Result                  JobResult `json:"result" yaml:"result"`
	State                   JobState  `json:"state" yaml:"state"`
	FailureClassificationID *int64    `json:"failure_classification_id" yaml:"failure_classification_id"`
	Duration                *int64    `json:"duration" yaml:"duration"`
}

func (j Job) Failed() bool {
	return j.Result.Failed()
}

func (j Job) Completed() bool {
	return j.State == StateCompleted
}

func (j Job) Intermittent() bool {
	return j.FailureClassificationID != nil && *j.FailureClassificationID == ClassificationIntermittent
}

// Failed reports whether the result is one of the hard failure results.
func (r JobResult) Failed() bool {
	return r == ResultTestFailed || r == ResultBusted
}

// JobsResponse is the raw columnar job table returned by /jobs/.
type JobsResponse struct {
	PropertyNames []string `json:"job_property_names"`
	Results       [][]any  `json:"results"`
}

type LogReference struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type JobDetail struct {
	ID          int64          `json:"id"`
	JobTypeName string         `json:"job_type_name"`
	Platform    string         `json:"platform"`
	Result      JobResult      `json:"result"`
	Logs        []LogReference `json:"logs"`
	TaskID      string         `json:"task_id"`
	RetryID     *int64         `json:"retry_id"`
}

// Task returns the task-execution coordinates of the job, if it ran there.
func (d JobDetail) Task() (taskID string, retryID int64, ok bool) {
	if d.TaskID == "" || d.RetryID == nil {
		return "", 0, false
	}
	return d.TaskID, *d.RetryID, true
}
