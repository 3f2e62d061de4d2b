package model

type PushResponse struct {
	Results []Push `json:"results"`
}

type Push struct {
	ID       int64  `json:"id"`
	Revision string `json:"revision"`
}

type LandingJob struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	CommitID string `json:"commit_id"`
}

const LandingStatusLanded = "LANDED"
