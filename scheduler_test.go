package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	filename   string
	content    []byte
	mimeType   string
	recipients []string
	deliveries int
	failWith   error

	notified     bool
	notifiedName string
}

func (c *captureSink) Deliver(ctx context.Context, filename string, content []byte, mimeType string, recipients []string) error {
	if c.failWith != nil {
		return c.failWith
	}
	c.filename = filename
	c.content = content
	c.mimeType = mimeType
	c.recipients = recipients
	c.deliveries++
	return nil
}

func (c *captureSink) NotifyError(ctx context.Context, reportName string, execErr error, recipients []string) error {
	c.notified = true
	c.notifiedName = reportName
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *Registry, *captureSink) {
	t.Helper()
	store := newTestStore()
	store.Insert("contact",
		Row{"name": "Alpha", "active": true},
		Row{"name": "Bravo", "active": false},
	)
	engine := newTestEngine(store)

	registry := NewRegistry()
	def := contactReport()
	require.NoError(t, registry.Add(def))

	sink := &captureSink{}
	return NewScheduler(engine, registry, sink), registry, sink
}

func TestSchedulerRunScheduled(t *testing.T) {
	scheduler, registry, sink := newTestScheduler(t)
	def := registry.List()[0]

	sched := &Schedule{
		Name:       "Nightly contacts",
		ReportID:   def.ID,
		CronSpec:   "0 6 * * *",
		Format:     FormatCSV,
		Options:    DefaultExportOptions(),
		Recipients: []string{"ops@example.com"},
	}
	require.NoError(t, scheduler.Add(sched))
	assert.Equal(t, defaultMaxRecords, sched.MaxRecords)
	assert.NotEmpty(t, sched.ID)

	result, err := scheduler.RunScheduled(context.Background(), sched.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowCount())

	assert.Equal(t, 1, sink.deliveries)
	assert.Equal(t, "Contacts.csv", sink.filename)
	assert.Equal(t, mimeTypes[FormatCSV], sink.mimeType)
	assert.Equal(t, []string{"ops@example.com"}, sink.recipients)
	assert.NotEmpty(t, sink.content)

	status, ok := scheduler.Status(sched.ID)
	require.True(t, ok)
	assert.Equal(t, 1, status.ExecutionCount)
	assert.Empty(t, status.LastError)
	assert.NotNil(t, status.LastExecution)

	// a successful run persists stats on the registry
	stats, ok := registry.Stats(def.ID)
	require.True(t, ok)
	assert.Equal(t, 2, stats.RowCount)
}

func TestSchedulerRunWithFilters(t *testing.T) {
	scheduler, registry, _ := newTestScheduler(t)
	def := registry.List()[0]

	sched := &Schedule{
		ReportID: def.ID,
		CronSpec: "@daily",
		Filters:  []Condition{{Field: "active", Operator: OpEquals, Value: true}},
	}
	require.NoError(t, scheduler.Add(sched))

	result, err := scheduler.RunScheduled(context.Background(), sched.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount())
	assert.Equal(t, "Alpha", result.Rows[0]["name"])
}

func TestSchedulerAddValidation(t *testing.T) {
	scheduler, registry, _ := newTestScheduler(t)
	def := registry.List()[0]

	err := scheduler.Add(&Schedule{ReportID: "missing", CronSpec: "@daily"})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	err = scheduler.Add(&Schedule{ReportID: def.ID, CronSpec: "@daily", Format: ExportFormat("docx")})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	err = scheduler.Add(&Schedule{ReportID: def.ID, CronSpec: "not a cron spec"})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestSchedulerRunnableImmediatelyAfterAdd(t *testing.T) {
	scheduler, registry, _ := newTestScheduler(t)
	def := registry.List()[0]
	scheduler.Start()
	defer scheduler.Stop()

	// the schedule must be resolvable the moment its cron entry exists,
	// an entry firing right after registration looks it up by id
	sched := &Schedule{ReportID: def.ID, CronSpec: "@every 1h"}
	require.NoError(t, scheduler.Add(sched))
	_, err := scheduler.RunScheduled(context.Background(), sched.ID)
	require.NoError(t, err)

	status, ok := scheduler.Status(sched.ID)
	require.True(t, ok)
	assert.Equal(t, 1, status.ExecutionCount)
}

func TestSchedulerRejectedAddLeavesNoState(t *testing.T) {
	scheduler, registry, _ := newTestScheduler(t)
	def := registry.List()[0]

	sched := &Schedule{ID: "bad", ReportID: def.ID, CronSpec: "61 * * * *"}
	require.Error(t, scheduler.Add(sched))

	_, ok := scheduler.Status("bad")
	assert.False(t, ok)
	_, err := scheduler.RunScheduled(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestSchedulerDeliveryFailure(t *testing.T) {
	scheduler, registry, sink := newTestScheduler(t)
	def := registry.List()[0]
	sink.failWith = errors.New("smtp down")

	sched := &Schedule{
		Name:       "Broken",
		ReportID:   def.ID,
		CronSpec:   "@daily",
		Recipients: []string{"ops@example.com"},
	}
	require.NoError(t, scheduler.Add(sched))

	_, err := scheduler.RunScheduled(context.Background(), sched.ID)
	require.Error(t, err)

	status, ok := scheduler.Status(sched.ID)
	require.True(t, ok)
	assert.Equal(t, 0, status.ExecutionCount)
	assert.Contains(t, status.LastError, "smtp down")
	assert.True(t, sink.notified)
	assert.Equal(t, "Broken", sink.notifiedName)
}

func TestSchedulerRemove(t *testing.T) {
	scheduler, registry, _ := newTestScheduler(t)
	def := registry.List()[0]

	sched := &Schedule{ReportID: def.ID, CronSpec: "@daily"}
	require.NoError(t, scheduler.Add(sched))

	scheduler.Remove(sched.ID)
	_, ok := scheduler.Status(sched.ID)
	assert.False(t, ok)

	_, err := scheduler.RunScheduled(context.Background(), sched.ID)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}
