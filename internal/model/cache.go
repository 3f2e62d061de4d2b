package model

// CachedPushMetadata is persisted as metadata.json at the root of a cache
// directory. Every job in Jobs has a job_<id> directory next to it.
type CachedPushMetadata struct {
	Revision string `json:"revision" yaml:"revision"`
	PushID   int64  `json:"push_id" yaml:"push_id"`
	Repo     string `json:"repo" yaml:"repo"`
	Jobs     []Job  `json:"jobs" yaml:"jobs"`
}
