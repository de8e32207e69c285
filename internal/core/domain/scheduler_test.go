package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.True(t, config.Enabled)
	assert.Len(t, config.Tasks, 2)
	assert.Equal(t, TaskConfig{Enabled: true, Interval: 6 * time.Hour}, config.Task(TaskIDAutoIdle))
	assert.Equal(t, TaskConfig{Enabled: true, Interval: 12 * time.Hour}, config.Task(TaskIDCredentialsCheck))
}

func TestSchedulerConfig_UnknownTaskIsDisabled(t *testing.T) {
	assert.Equal(t, TaskConfig{}, DefaultSchedulerConfig().Task("unknown-task"))
	assert.Equal(t, TaskConfig{}, SchedulerConfig{Enabled: true}.Task("any-task"))
}

func TestScheduledTask_Due(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task ScheduledTask
		want bool
	}{
		{"never scheduled", ScheduledTask{Enabled: true}, true},
		{"past", ScheduledTask{Enabled: true, NextRun: now.Add(-time.Minute)}, true},
		{"exactly now", ScheduledTask{Enabled: true, NextRun: now}, true},
		{"future", ScheduledTask{Enabled: true, NextRun: now.Add(time.Minute)}, false},
		{"disabled", ScheduledTask{NextRun: now.Add(-time.Minute)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Due(now))
		})
	}
}

func TestScheduledTask_Finish(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := ScheduledTask{Interval: time.Hour, LastError: "old"}

	task.Finish(TaskRun{StartedAt: start, EndedAt: start.Add(time.Minute), Success: true})
	assert.Equal(t, start, task.LastRun)
	assert.Equal(t, start.Add(61*time.Minute), task.NextRun)
	assert.Equal(t, start.Add(time.Minute), task.LastSuccess)
	assert.Empty(t, task.LastError)

	later := start.Add(2 * time.Hour)
	task.Finish(TaskRun{StartedAt: later, EndedAt: later, Error: "host not ready"})
	assert.Equal(t, "host not ready", task.LastError)
	assert.Equal(t, start.Add(time.Minute), task.LastSuccess, "a failed run keeps the last success")
}

func TestTaskRun_Duration(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := TaskRun{StartedAt: start, EndedAt: start.Add(90 * time.Second)}

	assert.Equal(t, 90*time.Second, r.Duration())
}

func TestTaskIDs(t *testing.T) {
	assert.Equal(t, "auto-idle", TaskIDAutoIdle)
	assert.Equal(t, "credentials-check", TaskIDCredentialsCheck)
	assert.Equal(t, 100, HistoryRetention)
}
