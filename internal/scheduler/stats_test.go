package scheduler

import (
	"testing"

	"reposched/internal/store"
)

func TestComputeStats(t *testing.T) {
	jobs := []store.Job{
		{Status: store.JobStatusPending},
		{Status: store.JobStatusPending},
		{Status: store.JobStatusCreating},
		{Status: store.JobStatusCreated},
		{Status: store.JobStatusFailed},
		{Status: store.JobStatusFailed},
	}

	got := ComputeStats(jobs, 2)
	want := Stats{Total: 6, Pending: 2, Creating: 1, Created: 1, Failed: 2, Armed: 2}
	if got != want {
		t.Errorf("ComputeStats() = %+v, want %+v", got, want)
	}

	if empty := ComputeStats(nil, 0); empty != (Stats{}) {
		t.Errorf("ComputeStats(nil) = %+v, want zero", empty)
	}
}
