package pipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageInspect covers preprocessing and reflection on the CPU.
	StageInspect Stage = "inspect"
	// StageCompile covers compiling and linking on the GPU.
	StageCompile Stage = "compile"
	// StageDone marks the end of the whole check (File is empty).
	StageDone Stage = "done"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
	// StatusSkipped indicates the stage did not run for this task.
	StatusSkipped Status = "skipped"
)

// Event reports progress for a program (or for the overall pipeline when
// Program is empty).
type Event struct {
	Program string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from several
// goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// FuncSink adapts a function to ProgressSink.
type FuncSink func(Event)

func (f FuncSink) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}
