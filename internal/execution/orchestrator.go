package execution

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"ffmpeg-architect/internal/command"
	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/ffmpeg"
	"ffmpeg-architect/internal/progress"
)

// Executor runs one ffmpeg invocation and streams its stderr.
type Executor interface {
	Execute(ctx context.Context, args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error)
}

// Prober supplies media duration for percent computation.
type Prober interface {
	Probe(ctx context.Context, path string) *domain.ProbeResult
}

// RecordStore persists one history row per invocation.
type RecordStore interface {
	InsertRun(ctx context.Context, record domain.RunRecord) (int64, error)
}

// Hooks receives run telemetry. Every field is optional.
type Hooks struct {
	OnProgress  func(snapshot domain.ProgressSnapshot)
	OnItemStart func(item Item)
	OnItemDone  func(item Item)
	OnLog       func(line string)
}

// Item describes one external-tool invocation inside a run.
type Item struct {
	Index    int                 `json:"index"`
	Total    int                 `json:"total"`
	Input    string              `json:"input"`
	Output   string              `json:"output"`
	Args     []string            `json:"args"`
	Command  string              `json:"command"`
	ExitCode int                 `json:"exitCode"`
	Stderr   string              `json:"stderr,omitempty"`
	Status   domain.RecordStatus `json:"status,omitempty"`
}

// Outcome is the terminal result of a run. Runs never return errors;
// failures are described here.
type Outcome struct {
	RunID    string                  `json:"runId"`
	Status   domain.RunStatus        `json:"status"`
	Progress domain.ProgressSnapshot `json:"progress"`
	Items    []Item                  `json:"items"`
	Err      *RunError               `json:"error,omitempty"`
}

// Message returns the user-facing error text, or "" on success.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Message
}

// RunError is an item-aware failure with the invocation that caused it.
type RunError struct {
	Index    int                    `json:"index"`
	Total    int                    `json:"total"`
	Message  string                 `json:"message"`
	Category progress.ErrorCategory `json:"category"`
	Item     Item                   `json:"item"`
	Err      error                  `json:"-"`
}

// Error formats run failures for logs and UI.
func (e *RunError) Error() string {
	if e == nil {
		return ""
	}
	if e.Item.Command == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (cmd=%s exit=%d)", e.Message, e.Item.Command, e.Item.ExitCode)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *RunError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

var extensionRe = regexp.MustCompile(`(\.[\w\d]+)$`)

// BatchOutputName inserts a 1-based sequence suffix before the extension.
// Names without an extension get the suffix appended.
func BatchOutputName(output string, seq int) string {
	suffix := fmt.Sprintf("_%d", seq)
	if extensionRe.MatchString(output) {
		return extensionRe.ReplaceAllString(output, suffix+"$1")
	}
	return output + suffix
}

// Orchestrator sequences ffmpeg invocations for the single and batch paths.
type Orchestrator struct {
	executor Executor
	prober   Prober
	records  RecordStore
	logger   hclog.Logger
	now      func() time.Time
}

// NewOrchestrator wires the collaborators. prober and records may be nil.
func NewOrchestrator(executor Executor, prober Prober, records RecordStore, logger hclog.Logger) *Orchestrator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Orchestrator{
		executor: executor,
		prober:   prober,
		records:  records,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes cfg to completion, cancellation, or the first stopping failure.
// An override command always runs once, whatever the input list holds.
func (o *Orchestrator) Run(ctx context.Context, runID string, cfg domain.Configuration, hooks Hooks) Outcome {
	inputs := cfg.NonEmptyInputs()
	if len(inputs) > 1 && !cfg.AIOverride {
		return o.runBatch(ctx, runID, cfg, inputs, hooks)
	}
	return o.runSingle(ctx, runID, cfg, inputs, hooks)
}

func (o *Orchestrator) runSingle(ctx context.Context, runID string, cfg domain.Configuration, inputs []string, hooks Hooks) Outcome {
	outcome := Outcome{RunID: runID}

	var total float64
	if o.prober != nil && len(inputs) == 1 && !cfg.AIOverride {
		total = o.prober.Probe(ctx, inputs[0]).DurationSeconds()
	}

	input := ""
	if len(inputs) == 1 {
		input = inputs[0]
		// Empty entries are preview placeholders and never executed.
		if !cfg.AIOverride {
			cfg = cfg.Clone()
			cfg.InputFiles = []string{input}
		}
	}
	item := newItem(1, 1, input, cfg)

	tracker := newTracker(total, hooks)
	item = o.invoke(ctx, runID, item, tracker, hooks)
	outcome.Items = []Item{item}
	outcome.Progress = tracker.snapshot()

	switch {
	case ctx.Err() != nil:
		outcome.Status = domain.RunStatusCancelled
		outcome.Err = &RunError{Index: 1, Total: 1, Message: "execution cancelled", Item: item, Err: ctx.Err()}
	case item.Status == domain.RecordStatusFailed:
		outcome.Status = domain.RunStatusFailed
		outcome.Err = failure(item, item.Stderr)
	default:
		outcome.Status = domain.RunStatusSuccess
		outcome.Progress = tracker.setPercent(100)
	}
	return outcome
}

func (o *Orchestrator) runBatch(ctx context.Context, runID string, cfg domain.Configuration, inputs []string, hooks Hooks) Outcome {
	outcome := Outcome{RunID: runID, Status: domain.RunStatusSuccess}
	total := len(inputs)
	tracker := newTracker(0, hooks)
	tracker.fixedPercent = true

	completed := 0
	for i, input := range inputs {
		if ctx.Err() != nil {
			break
		}

		per := cfg.Clone()
		per.InputFiles = []string{input}
		per.OutputFile = BatchOutputName(cfg.OutputFile, i+1)

		item := o.invoke(ctx, runID, newItem(i+1, total, input, per), tracker, hooks)
		outcome.Items = append(outcome.Items, item)

		if ctx.Err() != nil {
			break
		}
		if item.Status == domain.RecordStatusFailed {
			outcome.Status = domain.RunStatusFailed
			outcome.Err = failure(item, fmt.Sprintf("Batch failed at file %d: %s", item.Index, item.Stderr))
			if !cfg.ContinueOnError() {
				o.logger.Info("batch stopped after failure", "run_id", runID, "index", item.Index, "total", total)
				break
			}
		}

		completed++
		tracker.setPercent(progress.Percent(float64(completed), float64(total)))
	}

	if err := ctx.Err(); err != nil {
		outcome.Status = domain.RunStatusCancelled
		outcome.Err = &RunError{Index: completed + 1, Total: total, Message: "execution cancelled", Err: err}
	}
	outcome.Progress = tracker.snapshot()
	return outcome
}

func newItem(index, total int, input string, cfg domain.Configuration) Item {
	args := command.BuildArgs(cfg)
	return Item{
		Index:   index,
		Total:   total,
		Input:   input,
		Output:  cfg.OutputFile,
		Args:    args,
		Command: command.Program + " " + strings.Join(args, " "),
	}
}

// invoke runs one item and persists its record.
func (o *Orchestrator) invoke(ctx context.Context, runID string, item Item, tracker *tracker, hooks Hooks) Item {
	if hooks.OnItemStart != nil {
		hooks.OnItemStart(item)
	}

	result, err := o.executor.Execute(ctx, item.Args, func(chunk string) {
		if hooks.OnLog != nil {
			hooks.OnLog(chunk)
		}
		tracker.observe(chunk)
	})

	item.ExitCode = result.ExitCode
	item.Stderr = result.Stderr
	item.Status = domain.RecordStatusSuccess
	if err != nil || result.ExitCode != 0 {
		item.Status = domain.RecordStatusFailed
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		o.logger.Warn("ffmpeg invocation failed to run", "run_id", runID, "index", item.Index, "error", err)
		if item.Stderr == "" {
			item.Stderr = err.Error()
		}
	}

	o.persist(ctx, runID, item)
	if hooks.OnItemDone != nil {
		hooks.OnItemDone(item)
	}
	return item
}

func (o *Orchestrator) persist(ctx context.Context, runID string, item Item) {
	if o.records == nil {
		return
	}
	record := domain.RunRecord{
		RunID:     runID,
		Command:   item.Command,
		Status:    item.Status,
		Stderr:    item.Stderr,
		Timestamp: o.now().UTC(),
	}
	// The record outlives a cancelled run.
	if _, err := o.records.InsertRun(context.WithoutCancel(ctx), record); err != nil {
		o.logger.Error("persist run record", "run_id", runID, "index", item.Index, "error", err)
	}
}

func failure(item Item, message string) *RunError {
	return &RunError{
		Index:    item.Index,
		Total:    item.Total,
		Message:  message,
		Category: progress.Classify(item.Stderr),
		Item:     item,
	}
}

// tracker folds parsed chunks into the live snapshot.
type tracker struct {
	mu           sync.Mutex
	total        float64
	fixedPercent bool
	current      domain.ProgressSnapshot
	onProgress   func(domain.ProgressSnapshot)
}

func newTracker(total float64, hooks Hooks) *tracker {
	return &tracker{total: total, onProgress: hooks.OnProgress}
}

func (t *tracker) observe(chunk string) {
	total := t.total
	if t.fixedPercent {
		total = 0
	}
	update, ok := progress.Parse(chunk, total)
	if !ok {
		return
	}
	t.mu.Lock()
	t.current = progress.Merge(t.current, update)
	snap := t.current
	t.mu.Unlock()
	t.emit(snap)
}

func (t *tracker) setPercent(percent int) domain.ProgressSnapshot {
	t.mu.Lock()
	t.current.Percent = percent
	snap := t.current
	t.mu.Unlock()
	t.emit(snap)
	return snap
}

func (t *tracker) snapshot() domain.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *tracker) emit(snap domain.ProgressSnapshot) {
	if t.onProgress != nil {
		t.onProgress(snap)
	}
}
