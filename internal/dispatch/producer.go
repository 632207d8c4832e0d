// Package dispatch coordinates the job pipeline: a producer reading input
// lines and a fixed worker pool executing one command per job.
package dispatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kyanite-sh/kyanite/internal/model"
)

// Produce turns lines read from r into Jobs with strictly increasing ids
// starting at 0. The trailing newline is stripped and whitespace-only
// lines are skipped without consuming an id. Production stops at maxJobs
// when maxJobs > 0, at end of stream, or when ctx is cancelled;
// cancellation is not an error. A mid-stream read failure is fatal for the
// whole run and is delivered on the returned error channel, leaving the
// exit decision to the caller.
//
// Both channels are closed once production ends.
func Produce(ctx context.Context, r io.Reader, maxJobs int) (<-chan model.Job, <-chan error) {
	jobs := make(chan model.Job)
	fatal := make(chan error, 1)

	go func() {
		defer close(fatal)
		defer close(jobs)

		// bufio.Reader, not bufio.Scanner: a line may exceed any fixed
		// token limit and must still become one ordinary job
		reader := bufio.NewReader(r)
		var emitted int
		for {
			line, readErr := reader.ReadString('\n')
			if readErr != nil && !errors.Is(readErr, io.EOF) {
				fatal <- fmt.Errorf("reading input: %w", readErr)
				return
			}

			if maxJobs > 0 && emitted >= maxJobs {
				slog.DebugContext(ctx, "job cap reached", "jobs", emitted)
				return
			}

			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			if strings.TrimSpace(line) != "" {
				job := model.Job{ID: uint64(emitted), Line: line}
				select {
				case <-ctx.Done():
					slog.DebugContext(ctx, "input cancelled", "jobs", emitted)
					return
				case jobs <- job:
				}
				slog.DebugContext(ctx, "queued job", "job", job.ID, "line", job.Line)
				emitted++
			}

			if errors.Is(readErr, io.EOF) {
				slog.DebugContext(ctx, "input finished", "jobs", emitted)
				return
			}
		}
	}()

	return jobs, fatal
}
