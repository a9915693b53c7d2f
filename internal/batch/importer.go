package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/lingopop/internal/gateway"
	"codeberg.org/snonux/lingopop/internal/library"
	"codeberg.org/snonux/lingopop/internal/term"
)

// JobStatus represents the current state of a job
type JobStatus int

const (
	StatusQueued JobStatus = iota
	StatusProcessing
	StatusCompleted
	StatusSkipped
	StatusFailed
)

func (s JobStatus) String() string {
	switch s {
	case StatusQueued:
		return "Queued"
	case StatusProcessing:
		return "Processing"
	case StatusCompleted:
		return "Completed"
	case StatusSkipped:
		return "Skipped"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Job is the import of a single term
type Job struct {
	ID          int
	Term        string
	Status      JobStatus
	Record      *term.Record
	Err         error
	StartedAt   time.Time
	CompletedAt time.Time
}

// Summary counts job outcomes
type Summary struct {
	Completed int
	Skipped   int
	Failed    int
}

// Config configures an Importer
type Config struct {
	Settings term.Settings
	Workers  int  // concurrent analyses, default 2
	Images   bool // also generate illustrations
	Logger   *slog.Logger

	// OnUpdate is called whenever a job changes status. It may be called
	// from several goroutines.
	OnUpdate func(Job)
}

// Target receives imported records
type Target interface {
	// Terms lists the terms already saved
	Terms(ctx context.Context) ([]string, error)
	// Add saves rec. It may be called from several goroutines.
	Add(ctx context.Context, rec term.Record) error
}

// StoreTarget writes imported records straight through to a library store
type StoreTarget struct {
	store library.Store

	mu  sync.Mutex
	lib library.Library
}

// NewStoreTarget creates a target for store
func NewStoreTarget(store library.Store) *StoreTarget {
	return &StoreTarget{store: store}
}

// Terms loads the library and returns its terms
func (t *StoreTarget) Terms(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lib, err := t.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load library: %w", err)
	}
	t.lib = lib
	return lib.Terms(), nil
}

// Add puts rec first in the library and saves it
func (t *StoreTarget) Add(ctx context.Context, rec term.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lib.Contains(rec.ID) {
		return nil
	}
	next, _ := t.lib.Toggle(rec)
	if err := t.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}
	t.lib = next
	return nil
}

// Importer analyzes terms and saves them to a target
type Importer struct {
	gw     gateway.Gateway
	target Target
	config Config
}

// NewImporter creates an importer writing to target
func NewImporter(gw gateway.Gateway, target Target, config Config) *Importer {
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Importer{gw: gw, target: target, config: config}
}

// Import processes terms and returns one job per term in input order. Terms
// already in the library are skipped. Each imported record is saved as soon
// as it is ready, so a cancelled import keeps what it finished.
func (im *Importer) Import(ctx context.Context, terms []string) ([]*Job, Summary, error) {
	if err := im.config.Settings.Validate(); err != nil {
		return nil, Summary{}, err
	}

	existing, err := im.target.Terms(ctx)
	if err != nil {
		return nil, Summary{}, err
	}

	saved := make(map[string]bool)
	for _, t := range existing {
		saved[strings.ToLower(t)] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.config.Workers)

	jobs := make([]*Job, len(terms))
	for i, t := range terms {
		job := &Job{ID: i + 1, Term: strings.TrimSpace(t), Status: StatusQueued}
		jobs[i] = job
		if job.Term == "" || saved[strings.ToLower(job.Term)] {
			job.Status = StatusSkipped
			im.notify(job)
			continue
		}
		im.notify(job)
		g.Go(func() error {
			im.process(gctx, job)
			return nil
		})
	}
	// Failures are recorded per job, so the group never returns an error
	_ = g.Wait()

	var summary Summary
	for _, job := range jobs {
		switch job.Status {
		case StatusCompleted:
			summary.Completed++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
	}

	im.config.Logger.Info("Import finished", "completed", summary.Completed, "skipped", summary.Skipped, "failed", summary.Failed)
	return jobs, summary, ctx.Err()
}

func (im *Importer) process(ctx context.Context, job *Job) {
	if err := ctx.Err(); err != nil {
		im.fail(job, err)
		return
	}

	job.Status = StatusProcessing
	job.StartedAt = time.Now()
	im.notify(job)

	settings := im.config.Settings
	analysis, err := im.gw.Analyze(ctx, job.Term, settings.Native, settings.Target)
	if err != nil {
		im.fail(job, err)
		return
	}

	rec := term.NewRecord(job.Term, analysis)
	if im.config.Images {
		ref, err := im.gw.SynthesizeImage(ctx, rec.Term, rec.Explanation)
		if err != nil {
			im.config.Logger.Warn("Image generation failed", "term", rec.Term, "error", err)
		}
		rec.ImageURL = ref
	}

	if err := im.target.Add(ctx, rec); err != nil {
		im.fail(job, err)
		return
	}

	job.Record = &rec
	job.Status = StatusCompleted
	job.CompletedAt = time.Now()
	im.notify(job)
}

func (im *Importer) fail(job *Job, err error) {
	job.Status = StatusFailed
	job.Err = err
	job.CompletedAt = time.Now()
	im.config.Logger.Error("Import failed", "term", job.Term, "error", err)
	im.notify(job)
}

func (im *Importer) notify(job *Job) {
	if im.config.OnUpdate != nil {
		im.config.OnUpdate(*job)
	}
}
