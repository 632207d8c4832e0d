// Package collect emits job results to the output sinks, either as they
// arrive or reassembled into input order.
package collect

import (
	"fmt"
	"io"
	"slices"

	"github.com/kyanite-sh/kyanite/internal/model"
)

// Collector consumes the result stream and prints it. Successful
// non-empty output goes to the out writer; failures go to the error writer
// tagged with the job id, together with any partial output.
type Collector struct {
	keepOrder bool
	verbose   bool
	out       io.Writer
	errOut    io.Writer
}

func New(keepOrder, verbose bool, out, errOut io.Writer) *Collector {
	return &Collector{
		keepOrder: keepOrder,
		verbose:   verbose,
		out:       out,
		errOut:    errOut,
	}
}

// Run consumes results until the channel is closed and drained. In
// keep-order mode results are buffered by id and emitted strictly in
// sequence 0, 1, 2, …
func (c *Collector) Run(results <-chan model.JobResult) {
	if !c.keepOrder {
		for res := range results {
			c.emit(res)
		}
		return
	}

	pending := make(map[uint64]model.JobResult)
	var next uint64
	for res := range results {
		pending[res.ID] = res
		for {
			buffered, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			c.emit(buffered)
			next++
		}
	}

	// A gap at next means some job never reported back. Flush whatever is
	// left in ascending id order rather than dropping it.
	ids := make([]uint64, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		c.emit(pending[id])
	}
}

func (c *Collector) emit(res model.JobResult) {
	if res.Err != nil {
		fmt.Fprintf(c.errOut, "error in job %d: %v\n", res.ID, res.Err)
		if res.Output != "" {
			fmt.Fprintf(c.errOut, "output: %s\n", res.Output)
		}
		return
	}
	if res.Output == "" {
		return
	}
	if c.verbose {
		fmt.Fprintf(c.out, "[job %d] %s\n", res.ID, res.Output)
	} else {
		fmt.Fprintln(c.out, res.Output)
	}
}
