package model

type SimilarJob struct {
	ID             int64     `json:"id" yaml:"id"`
	JobTypeName    string    `json:"job_type_name" yaml:"job_type_name"`
	Platform       string    `json:"platform" yaml:"platform"`
	Result         JobResult `json:"result" yaml:"result"`
	State          JobState  `json:"state" yaml:"state"`
	PushID         int64     `json:"push_id" yaml:"push_id"`
	StartTimestamp *int64    `json:"start_timestamp" yaml:"start_timestamp"`
	EndTimestamp   *int64    `json:"end_timestamp" yaml:"end_timestamp"`
}

type SimilarJobsResponse struct {
	Results []SimilarJob    `json:"results"`
	Meta    SimilarJobsMeta `json:"meta"`
}

type SimilarJobsMeta struct {
	Count      int    `json:"count"`
	Repository string `json:"repository"`
}

type SimilarJobHistory struct {
	JobID       int64        `json:"job_id" yaml:"job_id"`
	JobTypeName string       `json:"job_type_name" yaml:"job_type_name"`
	Repo        string       `json:"repo" yaml:"repo"`
	TotalJobs   int          `json:"total_jobs" yaml:"total_jobs"`
	PassCount   int          `json:"pass_count" yaml:"pass_count"`
	FailCount   int          `json:"fail_count" yaml:"fail_count"`
	PassRate    float64      `json:"pass_rate" yaml:"pass_rate"`
	Jobs        []SimilarJob `json:"jobs" yaml:"jobs"`
}
