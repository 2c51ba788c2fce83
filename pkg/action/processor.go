// Package action applies the confirm action to batches of portal items.
//
// The Processor is the only place where protocol errors are turned into
// data: every requested id ends up with a Result, whether the backend
// confirmed it, refused it, returned an error, or panicked.
package action

import (
	"context"
	"fmt"
	"sort"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/logging"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("action")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		debugLog.Warnf("Failed to initialize action logger, using stderr fallback: %v", err)
	}
}

// Result is the outcome of confirming one item.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProgressFunc is called after each processed item with the number of items
// done so far and the number of distinct items in the batch.
type ProgressFunc func(done, total int)

// ResultFunc is called after each processed item with its id, its result and
// the batch progress.
type ResultFunc func(id int, res Result, done, total int)

// Processor confirms items one at a time through a Backend.
type Processor struct {
	backend portal.Backend
	log     *logging.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger routes the processor's log to l.
func WithLogger(l *logging.Logger) Option {
	return func(p *Processor) {
		p.log = l
	}
}

// NewProcessor returns a processor that confirms items through backend.
func NewProcessor(backend portal.Backend, opts ...Option) *Processor {
	p := &Processor{
		backend: backend,
		log:     debugLog,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessSingle confirms one item and never fails: refusals, errors and
// panics of the backend all become a failed Result.
func (p *Processor) ProcessSingle(ctx context.Context, id int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("Entry %d: backend panicked: %v", id, r)
			res = Result{Success: false, Message: fmt.Sprintf("Error: %v", r)}
		}
	}()

	ok, err := p.backend.ConfirmItem(ctx, id)
	switch {
	case err != nil:
		p.log.Warnf("Entry %d: %v", id, err)
		return Result{Success: false, Message: "Error: " + err.Error()}
	case ok:
		p.log.Infof("Entry %d confirmed", id)
		return Result{Success: true, Message: fmt.Sprintf("Action applied to entry %d", id)}
	default:
		p.log.Infof("Entry %d refused by portal", id)
		return Result{Success: false, Message: fmt.Sprintf("Failed to apply action to entry %d", id)}
	}
}

// ProcessAll confirms the distinct ids in first-occurrence order, strictly
// one after another. onProgress may be nil.
//
// A failing item never stops the batch. A cancelled ctx does not either:
// the remaining items fail fast and are recorded like any other failure, so
// the result always holds one entry per distinct id.
func (p *Processor) ProcessAll(ctx context.Context, ids []int, onProgress ProgressFunc) map[int]Result {
	var onResult ResultFunc
	if onProgress != nil {
		onResult = func(_ int, _ Result, done, total int) { onProgress(done, total) }
	}
	return p.ProcessEach(ctx, ids, onResult)
}

// ProcessEach behaves like ProcessAll but hands every result to onResult as
// soon as it is known. onResult may be nil.
func (p *Processor) ProcessEach(ctx context.Context, ids []int, onResult ResultFunc) map[int]Result {
	distinct := Distinct(ids)
	total := len(distinct)
	results := make(map[int]Result, total)

	p.log.Infof("Processing %d entries (%d requested)", total, len(ids))
	for i, id := range distinct {
		res := p.ProcessSingle(ctx, id)
		results[id] = res
		if onResult != nil {
			onResult(id, res, i+1, total)
		}
	}

	s := Summarize(results)
	p.log.Infof("Batch finished: %d succeeded, %d failed", s.Succeeded, s.Failed)
	return results
}

// Distinct returns ids without repetitions, keeping the first occurrence of
// each.
func Distinct(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize counts successes and failures in results.
func Summarize(results map[int]Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		}
	}
	s.Failed = s.Total - s.Succeeded
	return s
}

// String renders the summary the way the status line shows it.
func (s Summary) String() string {
	return fmt.Sprintf("Abgeschlossen: %d/%d erfolgreich", s.Succeeded, s.Total)
}

// SucceededIDs returns the ids of successful results in ascending order.
func SucceededIDs(results map[int]Result) []int {
	var ids []int
	for id, r := range results {
		if r.Success {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// FailedIDs returns the ids of failed results in ascending order.
func FailedIDs(results map[int]Result) []int {
	var ids []int
	for id, r := range results {
		if !r.Success {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
