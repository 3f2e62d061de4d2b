package model

type PerfherderData struct {
	Framework PerfherderFramework `json:"framework" yaml:"framework"`
	Suites    []PerfherderSuite   `json:"suites" yaml:"suites"`
}

type PerfherderFramework struct {
	Name string `json:"name" yaml:"name"`
}

type PerfherderSuite struct {
	Name     string              `json:"name" yaml:"name"`
	Subtests []PerfherderSubtest `json:"subtests" yaml:"subtests"`
}

type PerfherderSubtest struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

type JobPerfData struct {
	JobID       int64           `json:"job_id" yaml:"job_id"`
	JobTypeName string          `json:"job_type_name" yaml:"job_type_name"`
	Platform    string          `json:"platform" yaml:"platform"`
	PerfData    *PerfherderData `json:"perf_data" yaml:"perf_data"`
}
