package model

// Artifact is one entry of a task run's artifact listing.
type Artifact struct {
	Name        string `json:"name"`
	StorageType string `json:"storageType"`
	Expires     string `json:"expires"`
	ContentType string `json:"contentType"`
}

type ArtifactsResponse struct {
	Artifacts         []Artifact `json:"artifacts"`
	ContinuationToken string     `json:"continuationToken"`
}
