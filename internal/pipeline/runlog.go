package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// detailTail is how many trailing lines of engine output the console sink
// shows for a failed job. The entry itself keeps the full text.
const detailTail = 20

// Level classifies a run log entry.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarn     Level = "warn"
	LevelError    Level = "error"
	LevelProgress Level = "progress"
	LevelDone     Level = "done"
)

// Entry is one line of a run log. Detail carries captured engine output.
type Entry struct {
	Time   time.Time `json:"time"`
	Level  Level     `json:"level"`
	Text   string    `json:"text"`
	Detail string    `json:"detail,omitempty"`
}

// String renders the entry the way the console shows it, without timestamp.
func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s", e.Level, e.Text)
}

// Sink receives a copy of every entry as it is appended.
// *logging.Logger satisfies it.
type Sink interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Progress(string, ...interface{})
	Detail(string, ...interface{})
}

// Report is the serialisable snapshot of a finished (or running) batch.
type Report struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	InputDir   string    `json:"input_dir"`
	OutputDir  string    `json:"output_dir"`
	Stats      RunStats  `json:"stats"`
	Entries    []Entry   `json:"entries"`
	Produced   []string  `json:"produced,omitempty"`
}

// RunLog is the append-only outcome record of one batch run. It is safe for
// concurrent readers while the run appends.
type RunLog struct {
	mu       sync.Mutex
	report   Report
	sink     Sink
	finished bool
	seen     map[string]bool // produced paths
	now      func() time.Time
}

// NewRunLog starts an empty log. sink may be nil.
func NewRunLog(id string, sink Sink) *RunLog {
	l := &RunLog{sink: sink, now: time.Now}
	l.report.ID = id
	l.report.StartedAt = l.now()
	return l
}

// ID returns the run identifier.
func (l *RunLog) ID() string { return l.report.ID }

func (l *RunLog) add(level Level, detail, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	l.mu.Lock()
	l.report.Entries = append(l.report.Entries, Entry{Time: l.now(), Level: level, Text: text, Detail: detail})
	l.mu.Unlock()

	if l.sink == nil {
		return
	}
	switch level {
	case LevelInfo:
		l.sink.Info("%s", text)
	case LevelWarn:
		l.sink.Warn("%s", text)
	case LevelError:
		l.sink.Error("%s", text)
		for _, line := range tailLines(detail, detailTail) {
			l.sink.Detail("  %s", line)
		}
	case LevelProgress:
		l.sink.Progress("%s", text)
	case LevelDone:
		l.sink.Success("%s", text)
	}
}

func (l *RunLog) info(format string, args ...interface{}) { l.add(LevelInfo, "", format, args...) }
func (l *RunLog) warn(format string, args ...interface{}) { l.add(LevelWarn, "", format, args...) }
func (l *RunLog) fail(detail, format string, args ...interface{}) {
	l.add(LevelError, detail, format, args...)
}
func (l *RunLog) progress(format string, args ...interface{}) {
	l.add(LevelProgress, "", format, args...)
}
func (l *RunLog) done(format string, args ...interface{}) { l.add(LevelDone, "", format, args...) }

func (l *RunLog) setDirs(in, out string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report.InputDir, l.report.OutputDir = in, out
}

// produced records a written output once, however many jobs wrote it.
func (l *RunLog) produced(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	if l.seen[path] {
		return
	}
	l.seen[path] = true
	l.report.Produced = append(l.report.Produced, path)
}

func (l *RunLog) updateStats(fn func(*RunStats)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.report.Stats)
}

func (l *RunLog) finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report.FinishedAt = l.now()
	l.finished = true
}

// Finished reports whether the run has returned.
func (l *RunLog) Finished() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.finished
}

// Entries returns a copy of all entries in append order.
func (l *RunLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.report.Entries...)
}

// Lines renders every entry as "[level] text".
func (l *RunLog) Lines() []string {
	entries := l.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return lines
}

// Errors returns only the error entries.
func (l *RunLog) Errors() []Entry {
	var errs []Entry
	for _, e := range l.Entries() {
		if e.Level == LevelError {
			errs = append(errs, e)
		}
	}
	return errs
}

// Completed reports whether the run reached its terminal done entry.
func (l *RunLog) Completed() bool {
	entries := l.Entries()
	return len(entries) > 0 && entries[len(entries)-1].Level == LevelDone
}

// Produced returns the destination paths of successful jobs.
func (l *RunLog) Produced() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.report.Produced...)
}

// Stats returns the current counters.
func (l *RunLog) Stats() RunStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.report.Stats
}

// Report returns a deep copy of the log's state.
func (l *RunLog) Report() Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.report
	r.Entries = append([]Entry(nil), l.report.Entries...)
	r.Produced = append([]string(nil), l.report.Produced...)
	return r
}

// MarshalJSON encodes the log as its Report.
func (l *RunLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Report())
}

func tailLines(s string, n int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
