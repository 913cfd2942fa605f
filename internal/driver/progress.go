package driver

import "time"

// Stage names a step of formatting one file.
type Stage string

const (
	// StageCollect is the directory walk, reported with an empty File.
	StageCollect Stage = "collect"
	// StageRead is reading the file from disk.
	StageRead Stage = "read"
	// StageFormat is the ignore check plus the engine call.
	StageFormat Stage = "format"
	// StageWrite is writing the result back.
	StageWrite Stage = "write"
)

// Progress is the state of a file within its stage.
type Progress string

const (
	ProgressQueued  Progress = "queued"
	ProgressWorking Progress = "working"
	ProgressDone    Progress = "done"
	ProgressSkipped Progress = "skipped"
	ProgressError   Progress = "error"
)

// Event reports progress for a file, or for the whole run when File is empty.
type Event struct {
	File     string
	Stage    Stage
	Progress Progress
	Err      error
	Elapsed  time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from worker
// goroutines.
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

func notify(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
