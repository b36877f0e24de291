package cron

import (
	"context"
	"testing"
)

type namedJob struct {
	name string
}

func (j *namedJob) Name() string              { return j.name }
func (j *namedJob) Run(context.Context) error { return nil }

func TestRegistryPreservesOrderAndSkipsNil(t *testing.T) {
	sweep := &namedJob{name: "session-sweep"}
	retention := &namedJob{name: "outbox-retention"}
	registry := NewRegistry(sweep, nil, retention)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != sweep || jobs[1] != retention {
		t.Fatalf("jobs returned out of order")
	}
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	registry := NewRegistry(&namedJob{name: "session-sweep"})

	jobs := registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}
