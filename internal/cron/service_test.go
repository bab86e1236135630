package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/totem-backend/pkg/logger"
	"github.com/angelmondragon/totem-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(success, failure),
		Lock:     &fakeLock{},
		Metrics:  metrics.NewSchedulerMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if success.runs != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs)
	}
	if failure.runs != 1 {
		t.Fatalf("expected failure job to run once, ran %d", failure.runs)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var failures float64
	for _, mf := range mfs {
		if mf.GetName() != "scheduler_job_runs_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var job, result string
			for _, l := range m.GetLabel() {
				switch l.GetName() {
				case "job":
					job = l.GetValue()
				case "result":
					result = l.GetValue()
				}
			}
			if job == "fail" && result == metrics.ResultFailure {
				failures = m.GetCounter().GetValue()
			}
		}
	}
	if failures != 1 {
		t.Fatalf("expected one recorded failure, got %f", failures)
	}
}

func TestServiceRunOnceSkipsWhenLocked(t *testing.T) {
	job := &testJob{name: "job"}
	lock := &fakeLock{acquired: true}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}
}

func TestServiceIntervalDefaults(t *testing.T) {
	svc, err := NewService(ServiceParams{Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if svc.Interval() != defaultInterval {
		t.Fatalf("expected default interval, got %s", svc.Interval())
	}
	svc, _ = NewService(ServiceParams{Logger: logger.Nop(), Interval: time.Millisecond})
	if svc.Interval() != minInterval {
		t.Fatalf("expected interval floor, got %s", svc.Interval())
	}
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected logger to be required")
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	svc, err := NewService(ServiceParams{Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestLocalLockExcludesOverlappingCycles(t *testing.T) {
	lock := NewLocalLock()
	ctx := context.Background()
	ok, _ := lock.Acquire(ctx)
	if !ok {
		t.Fatalf("expected first acquire to succeed")
	}
	ok, _ = lock.Acquire(ctx)
	if ok {
		t.Fatalf("expected second acquire to fail")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, _ = lock.Acquire(ctx)
	if !ok {
		t.Fatalf("expected acquire after release to succeed")
	}
}
