package collector

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/airtrends/airtrends/internal/airquality"
)

// ErrNoData is returned when a run completes without a single successful
// combination. Partial success is the expected common case and not an
// error.
var ErrNoData = errors.New("no data available for any requested combination")

// Worker pool sizes. Annual report lookups are cheap, so more run in
// parallel; bulk hourly pulls carry large payloads and get fewer workers.
const (
	DefaultAnnualWorkers = 8
	DefaultBulkWorkers   = 4
)

// Fetcher retrieves upstream payloads for the two endpoint families.
type Fetcher interface {
	FetchAnnualReport(ctx context.Context, site string, year int) (*airquality.AnnualReport, error)
	FetchHourlyData(ctx context.Context, site string, start, end time.Time) (*airquality.HourlyReport, error)
}

// Config holds configuration for the collector.
type Config struct {
	Fetcher Fetcher
	Logger  zerolog.Logger

	// AnnualWorkers is the pool size for annual/monthly runs.
	AnnualWorkers int

	// BulkWorkers is the pool size for daily/hourly runs.
	BulkWorkers int

	// OnProgress, if set, is invoked after every completed task with the
	// monotonic completed count and the run total.
	OnProgress func(completed, total int)
}

// Collector executes collection runs.
type Collector struct {
	fetcher       Fetcher
	logger        zerolog.Logger
	annualWorkers int
	bulkWorkers   int
	onProgress    func(completed, total int)
}

// New creates a collector.
func New(cfg Config) *Collector {
	annualWorkers := cfg.AnnualWorkers
	if annualWorkers <= 0 {
		annualWorkers = DefaultAnnualWorkers
	}
	bulkWorkers := cfg.BulkWorkers
	if bulkWorkers <= 0 {
		bulkWorkers = DefaultBulkWorkers
	}

	return &Collector{
		fetcher:       cfg.Fetcher,
		logger:        cfg.Logger,
		annualWorkers: annualWorkers,
		bulkWorkers:   bulkWorkers,
		onProgress:    cfg.OnProgress,
	}
}

// TaskError pairs a failed task with its error message.
type TaskError struct {
	Task Task
	Err  string
}

// RunResult aggregates the classified outcomes of one collection run.
// Every task lands in exactly one of Records, NoData, or Failed, so
// len(Records)+len(NoData)+len(Failed) == Total.
type RunResult struct {
	Resolution airquality.Resolution
	StartedAt  time.Time
	Duration   time.Duration
	Total      int

	// Records holds one entry per successful task.
	Records []airquality.CollectedRecord

	// NoData lists combinations whose fetch succeeded but whose payload
	// held nothing for the pollutant.
	NoData []Task

	// Failed lists combinations whose fetch itself failed.
	Failed []TaskError
}

// Run validates the request, executes all fetch tasks on a bounded worker
// pool, and returns the classified result. It returns a *ValidationError
// before issuing any request for invalid input, and ErrNoData when the run
// completes with zero successes.
func (c *Collector) Run(ctx context.Context, req Request) (*RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tasks := req.tasks()
	workers := c.annualWorkers
	if !req.Resolution.YearBased() {
		workers = c.bulkWorkers
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	result := &RunResult{
		Resolution: req.Resolution,
		StartedAt:  time.Now(),
		Total:      len(tasks),
	}

	c.logger.Info().
		Str("resolution", string(req.Resolution)).
		Int("total_tasks", len(tasks)).
		Int("workers", workers).
		Msg("starting collection run")

	taskChan := make(chan Task, len(tasks))
	resultChan := make(chan taskOutcome, len(tasks))

	var completed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				select {
				case <-ctx.Done():
					resultChan <- taskOutcome{task: task, err: ctx.Err()}
				default:
					outcome := c.runTask(ctx, req.Resolution, task)
					resultChan <- outcome
				}
				done := int(completed.Add(1))
				if c.onProgress != nil {
					c.onProgress(done, len(tasks))
				}
			}
		}()
	}

	for _, t := range tasks {
		taskChan <- t
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for outcome := range resultChan {
		switch {
		case outcome.err != nil:
			result.Failed = append(result.Failed, TaskError{Task: outcome.task, Err: outcome.err.Error()})
		case outcome.record == nil:
			result.NoData = append(result.NoData, outcome.task)
		default:
			result.Records = append(result.Records, *outcome.record)
		}
	}

	sortTasks(result.NoData)
	sort.Slice(result.Failed, func(a, b int) bool {
		return taskLess(result.Failed[a].Task, result.Failed[b].Task)
	})

	result.Duration = time.Since(result.StartedAt)

	c.logger.Info().
		Dur("duration", result.Duration).
		Int("success", len(result.Records)).
		Int("no_data", len(result.NoData)).
		Int("failed", len(result.Failed)).
		Msg("collection run completed")

	if len(result.Records) == 0 {
		return result, ErrNoData
	}
	return result, nil
}

// taskOutcome classifies one finished task: err set means failed, nil
// record means no data, otherwise success.
type taskOutcome struct {
	task   Task
	record *airquality.CollectedRecord
	err    error
}

func (c *Collector) runTask(ctx context.Context, res airquality.Resolution, task Task) taskOutcome {
	if res.YearBased() {
		report, err := c.fetcher.FetchAnnualReport(ctx, task.Site, task.Year)
		if err != nil {
			return taskOutcome{task: task, err: err}
		}
		record := airquality.ExtractAnnual(report, task.Pollutant, res)
		if record == nil {
			return taskOutcome{task: task}
		}
		return taskOutcome{task: task, record: &airquality.CollectedRecord{
			Site:      task.Site,
			Pollutant: task.Pollutant,
			Year:      task.Year,
			Annual:    record,
		}}
	}

	report, err := c.fetcher.FetchHourlyData(ctx, task.Site, task.Start, task.End)
	if err != nil {
		return taskOutcome{task: task, err: err}
	}
	points := airquality.ExtractHourly(report, task.Pollutant, res)
	if len(points) == 0 {
		return taskOutcome{task: task}
	}
	return taskOutcome{task: task, record: &airquality.CollectedRecord{
		Site:      task.Site,
		Pollutant: task.Pollutant,
		Points:    points,
	}}
}

func sortTasks(tasks []Task) {
	sort.Slice(tasks, func(a, b int) bool {
		return taskLess(tasks[a], tasks[b])
	})
}

func taskLess(a, b Task) bool {
	if a.Site != b.Site {
		return a.Site < b.Site
	}
	if a.Pollutant != b.Pollutant {
		return a.Pollutant < b.Pollutant
	}
	return a.Year < b.Year
}
