package reports

import (
	"context"
	"sync"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/os/gtime"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DeliverySink accepts the exported file for out-of-band delivery. The
// engine does not implement transport.
type DeliverySink interface {
	Deliver(ctx context.Context, filename string, content []byte, mimeType string, recipients []string) error
}

// ErrorNotifier is an optional sink capability, used to report failed
// scheduled executions.
type ErrorNotifier interface {
	NotifyError(ctx context.Context, reportName string, execErr error, recipients []string) error
}

const defaultMaxRecords = 1000

// Schedule binds a report definition to a cron cadence, an export format
// and a recipient list.
type Schedule struct {
	ID         string
	Name       string
	ReportID   string
	CronSpec   string
	Format     ExportFormat
	Options    ExportOptions
	MaxRecords int
	Filters    []Condition
	Recipients []string
}

type ScheduleStatus struct {
	ExecutionCount int
	LastExecution  *gtime.Time
	LastError      string
}

// Scheduler runs report executions on a cron cadence and hands the export
// to the delivery sink. Each run is bounded by the schedule's MaxRecords so
// an unattended report cannot grow without limit.
type Scheduler struct {
	engine   *Engine
	registry *Registry
	sink     DeliverySink
	cron     *cron.Cron
	log      *logrus.Logger

	mu        sync.Mutex
	schedules map[string]*Schedule
	entries   map[string]cron.EntryID
	status    map[string]*ScheduleStatus
}

func NewScheduler(engine *Engine, registry *Registry, sink DeliverySink) *Scheduler {
	return &Scheduler{
		engine:    engine,
		registry:  registry,
		sink:      sink,
		cron:      cron.New(),
		log:       engine.log,
		schedules: map[string]*Schedule{},
		entries:   map[string]cron.EntryID{},
		status:    map[string]*ScheduleStatus{},
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Add validates and registers a schedule.
func (s *Scheduler) Add(sched *Schedule) error {
	if s.registry.Get(sched.ReportID) == nil {
		return gerror.NewCodef(CodeConfiguration, "schedule references unknown report %q", sched.ReportID)
	}
	if sched.Format == "" {
		sched.Format = FormatXLSX
	}
	if _, err := s.engine.Formatter(sched.Format, sched.Options); err != nil {
		return err
	}
	if sched.MaxRecords <= 0 {
		sched.MaxRecords = defaultMaxRecords
	}
	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}
	if _, err := cron.ParseStandard(sched.CronSpec); err != nil {
		return gerror.WrapCodef(CodeConfiguration, err, "bad cron spec %q", sched.CronSpec)
	}

	// store the schedule before registering the cron entry, an entry that
	// fires immediately must find it
	id := sched.ID
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[id]; ok {
		s.cron.Remove(old)
	}
	s.schedules[id] = sched
	s.status[id] = &ScheduleStatus{}
	entry, err := s.cron.AddFunc(sched.CronSpec, func() {
		if _, err := s.RunScheduled(context.Background(), id); err != nil {
			s.log.WithField("schedule", id).WithError(err).Error("scheduled report failed")
		}
	})
	if err != nil {
		delete(s.schedules, id)
		delete(s.status, id)
		return gerror.WrapCodef(CodeConfiguration, err, "bad cron spec %q", sched.CronSpec)
	}
	s.entries[id] = entry
	return nil
}

func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[id]; ok {
		s.cron.Remove(entry)
	}
	delete(s.schedules, id)
	delete(s.entries, id)
	delete(s.status, id)
}

func (s *Scheduler) Status(id string) (ScheduleStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.status[id]
	if !ok {
		return ScheduleStatus{}, false
	}
	return *status, true
}

// RunScheduled executes one schedule immediately: run the report with the
// schedule's filters and record bound, persist the stats, export and hand
// the file to the sink. Failures are recorded on the schedule status.
func (s *Scheduler) RunScheduled(ctx context.Context, id string) (*ExecutionResult, error) {
	s.mu.Lock()
	sched, ok := s.schedules[id]
	s.mu.Unlock()
	if !ok {
		return nil, gerror.NewCodef(CodeConfiguration, "schedule %q not found", id)
	}

	result, err := s.run(ctx, sched)

	s.mu.Lock()
	status := s.status[id]
	if status != nil {
		status.LastExecution = gtime.Now()
		if err != nil {
			status.LastError = err.Error()
		} else {
			status.ExecutionCount++
			status.LastError = ""
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.notifyError(ctx, sched, err)
		return nil, err
	}
	return result, nil
}

func (s *Scheduler) run(ctx context.Context, sched *Schedule) (*ExecutionResult, error) {
	def := s.registry.Get(sched.ReportID)
	if def == nil {
		return nil, gerror.NewCodef(CodeConfiguration, "report %q not found", sched.ReportID)
	}

	result, err := s.engine.Execute(ctx, def, sched.Filters, sched.MaxRecords)
	if err != nil {
		return nil, err
	}
	s.registry.RecordStats(def.ID, result.Stats)

	file, err := s.engine.Export(def, result, sched.Format, sched.Options)
	if err != nil {
		return nil, err
	}
	if err := s.sink.Deliver(ctx, file.Filename, file.Content, file.MimeType, sched.Recipients); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"schedule": sched.Name,
		"report":   def.Name,
		"rows":     result.Stats.RowCount,
		"format":   sched.Format,
	}).Info("scheduled report delivered")
	return result, nil
}

func (s *Scheduler) notifyError(ctx context.Context, sched *Schedule, execErr error) {
	notifier, ok := s.sink.(ErrorNotifier)
	if !ok || len(sched.Recipients) == 0 {
		return
	}
	if err := notifier.NotifyError(ctx, sched.Name, execErr, sched.Recipients); err != nil {
		s.log.WithField("schedule", sched.Name).WithError(err).Error("error notification failed")
	}
}
