package model

// Job is one unit of work: one input line plus the sequence id assigned by
// the producer. Ids start at 0, are strictly increasing and never reused.
type Job struct {
	ID   uint64
	Line string
}

// JobResult is what a worker reports back for exactly one Job. Output may
// be non-empty even when Err is set, covering partial output of a command
// that failed later.
type JobResult struct {
	ID     uint64
	Output string
	Err    error
}

// Execution describes one finished command invocation under the shell.
// Stdout and stderr are captured separately, untrimmed.
type Execution struct {
	Stdout   string
	Stderr   string
	ExitCode int
}
