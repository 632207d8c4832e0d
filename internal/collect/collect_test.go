package collect_test

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/kyanite-sh/kyanite/internal/collect"
	"github.com/kyanite-sh/kyanite/internal/model"
	"github.com/stretchr/testify/require"
)

func feed(results ...model.JobResult) <-chan model.JobResult {
	ch := make(chan model.JobResult, len(results))
	for _, res := range results {
		ch <- res
	}
	close(ch)
	return ch
}

func TestCollector_KeepOrder(t *testing.T) {
	t.Parallel()

	const n = 20
	results := make([]model.JobResult, n)
	for i := range results {
		results[i] = model.JobResult{ID: uint64(i), Output: fmt.Sprintf("r%d", i)}
	}
	// any completion interleaving must come out as 0, 1, 2, …
	rand.Shuffle(n, func(i, j int) {
		results[i], results[j] = results[j], results[i]
	})

	var out, errOut bytes.Buffer
	collect.New(true, false, &out, &errOut).Run(feed(results...))

	var want bytes.Buffer
	for i := range n {
		fmt.Fprintf(&want, "r%d\n", i)
	}
	require.Equal(t, want.String(), out.String())
	require.Empty(t, errOut.String())
}

func TestCollector_ArrivalOrder(t *testing.T) {
	t.Parallel()

	results := []model.JobResult{
		{ID: 2, Output: "two"},
		{ID: 0, Output: "zero"},
		{ID: 1, Output: "one"},
	}

	var out, errOut bytes.Buffer
	collect.New(false, false, &out, &errOut).Run(feed(results...))

	require.Equal(t, "two\nzero\none\n", out.String())
	require.Empty(t, errOut.String())
}

func TestCollector_KeepOrderFlushesLeftovers(t *testing.T) {
	t.Parallel()

	// id 2 never arrives: 0 and 1 drain normally, 3 and 5 are flushed in
	// ascending order once the stream closes
	results := []model.JobResult{
		{ID: 5, Output: "five"},
		{ID: 1, Output: "one"},
		{ID: 3, Output: "three"},
		{ID: 0, Output: "zero"},
	}

	var out, errOut bytes.Buffer
	collect.New(true, false, &out, &errOut).Run(feed(results...))

	require.Equal(t, "zero\none\nthree\nfive\n", out.String())
}

func TestCollector_Emission(t *testing.T) {
	t.Parallel()

	type given struct {
		verbose bool
		res     model.JobResult
	}

	var testCases = []struct {
		scenario string
		given    given
		thenOut  string
		thenErr  string
	}{
		{
			"plain output",
			given{false, model.JobResult{ID: 7, Output: "hello"}},
			"hello\n",
			"",
		},
		{
			"verbose output is tagged",
			given{true, model.JobResult{ID: 7, Output: "hello"}},
			"[job 7] hello\n",
			"",
		},
		{
			"empty output emits nothing",
			given{false, model.JobResult{ID: 7}},
			"",
			"",
		},
		{
			"error goes to the error sink",
			given{false, model.JobResult{ID: 2, Err: errors.New("command failed with exit code: 1")}},
			"",
			"error in job 2: command failed with exit code: 1\n",
		},
		{
			"partial output accompanies the error",
			given{false, model.JobResult{ID: 2, Output: "partial", Err: errors.New("boom")}},
			"",
			"error in job 2: boom\noutput: partial\n",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			var out, errOut bytes.Buffer
			collect.New(false, tt.given.verbose, &out, &errOut).Run(feed(tt.given.res))
			require.Equal(t, tt.thenOut, out.String())
			require.Equal(t, tt.thenErr, errOut.String())
		})
	}
}
