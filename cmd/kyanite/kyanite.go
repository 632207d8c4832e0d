package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kyanite-sh/kyanite/internal/collect"
	"github.com/kyanite-sh/kyanite/internal/dispatch"
	"github.com/kyanite-sh/kyanite/internal/expand"
	"github.com/kyanite-sh/kyanite/internal/log"
	"github.com/kyanite-sh/kyanite/internal/model"
	"github.com/kyanite-sh/kyanite/internal/shell"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func doRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	attrs := slog.Group("kyanite",
		slog.String("run", uuid.NewString()),
		slog.Int("pid", os.Getpid()),
	)
	ctx = log.ContextAttrs(ctx, attrs)

	return run(ctx, config, args[0], os.Stdin, os.Stdout, os.Stderr)
}

// run wires producer, worker pool and collector together and blocks until
// the pipeline drains. An interrupt cancels the producer only: jobs
// already queued or running are executed to completion and their results
// are still collected. The producer's read error, if any, is the only
// error run can return.
func run(ctx context.Context, cfg model.Config, template string, in io.Reader, out, errOut io.Writer) error {
	produceCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs, fatal := dispatch.Produce(produceCtx, in, cfg.Jobs.MaxJobs)

	expander := expand.New(cfg.Template.Placeholder, cfg.Template.FieldSeparator)
	pool := dispatch.NewPool(
		cfg.WorkerCount(),
		cfg.Jobs.DryRun,
		template,
		expander,
		shell.Runner{Shell: cfg.Shell},
	)
	results := pool.Run(ctx, jobs)

	collect.New(cfg.Jobs.KeepOrder, cfg.Jobs.Verbose, out, errOut).Run(results)

	return <-fatal
}
