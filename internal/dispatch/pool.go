package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kyanite-sh/kyanite/internal/expand"
	"github.com/kyanite-sh/kyanite/internal/model"

	"golang.org/x/sync/errgroup"
)

// Executor runs one expanded command line and reports what the process
// did. The error return is reserved for failing to launch the process at
// all; a non-zero exit comes back as a regular Execution.
type Executor interface {
	Run(ctx context.Context, command string) (model.Execution, error)
}

// Pool is a fixed set of workers pulling jobs from a shared channel. Every
// job yields exactly one JobResult; a failing job never stops the other
// workers.
type Pool struct {
	workers  int
	dryRun   bool
	template string
	expander expand.Expander
	exec     Executor
}

func NewPool(workers int, dryRun bool, template string, expander expand.Expander, exec Executor) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers:  workers,
		dryRun:   dryRun,
		template: template,
		expander: expander,
		exec:     exec,
	}
}

// Run starts the workers over the jobs channel and returns the result
// channel. It carries one JobResult per Job and is closed once the jobs
// channel is closed, drained and every worker has exited.
func (p *Pool) Run(ctx context.Context, jobs <-chan model.Job) <-chan model.JobResult {
	results := make(chan model.JobResult, p.workers)

	var g errgroup.Group
	for i := range p.workers {
		g.Go(func() error {
			p.work(ctx, i, jobs, results)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	return results
}

func (p *Pool) work(ctx context.Context, worker int, jobs <-chan model.Job, results chan<- model.JobResult) {
	for job := range jobs {
		slog.DebugContext(ctx, "processing job", "worker", worker, "job", job.ID)
		results <- p.runJob(ctx, job)
	}
	slog.DebugContext(ctx, "worker finished", "worker", worker)
}

func (p *Pool) runJob(ctx context.Context, job model.Job) model.JobResult {
	command := p.expander.Expand(p.template, job.Line)

	if p.dryRun {
		return model.JobResult{ID: job.ID, Output: "[+] " + command}
	}

	ex, err := p.exec.Run(ctx, command)
	if err != nil {
		return model.JobResult{ID: job.ID, Err: fmt.Errorf("failed to execute command: %w", err)}
	}

	res := model.JobResult{ID: job.ID, Output: combined(ex)}
	if ex.ExitCode != 0 {
		res.Err = fmt.Errorf("command failed with exit code: %d", ex.ExitCode)
	}
	return res
}

// combined merges captured output with trailing whitespace stripped from
// each stream, stdout first when both are present.
func combined(ex model.Execution) string {
	stdout := strings.TrimRight(ex.Stdout, " \t\r\n")
	stderr := strings.TrimRight(ex.Stderr, " \t\r\n")
	switch {
	case stderr == "":
		return stdout
	case stdout == "":
		return stderr
	default:
		return stdout + stderr
	}
}
