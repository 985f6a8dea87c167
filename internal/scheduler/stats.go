package scheduler

import "reposched/internal/store"

// Stats are aggregate counts over a job collection.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Creating int `json:"creating"`
	Created  int `json:"created"`
	Failed   int `json:"failed"`
	Armed    int `json:"armed"`
}

// ComputeStats counts jobs per status. armed is the number of jobs
// currently holding an entry in the due queue.
func ComputeStats(jobs []store.Job, armed int) Stats {
	s := Stats{Total: len(jobs), Armed: armed}
	for _, job := range jobs {
		switch job.Status {
		case store.JobStatusPending:
			s.Pending++
		case store.JobStatusCreating:
			s.Creating++
		case store.JobStatusCreated:
			s.Created++
		case store.JobStatusFailed:
			s.Failed++
		}
	}
	return s
}
