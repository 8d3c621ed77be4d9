// Package logger collects diagnostics raised during a single pipeline
// invocation and forwards them to the ambient structured logger. The
// collector shape (Kind + AddMsg + Done) is grounded on evanw-esbuild's
// internal/logger, which uses the same per-build message collection
// pattern; this version is trimmed to the three kinds spec section 7
// actually needs and drops esbuild's terminal-color/build-summary
// machinery, which has no equivalent in this domain.
package logger

import "github.com/go-logr/logr"

// Kind mirrors esbuild's MsgKind enum, restricted to what spec section 7
// calls for: every swallowed error "produces a log at least at Warning
// level".
type Kind uint8

const (
	Warning Kind = iota
	Error
	Note
)

func (k Kind) String() string {
	switch k {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "note"
	}
}

// Msg is one diagnostic raised by a stage.
type Msg struct {
	Kind Kind
	Path string
	Text string
}

// Log collects messages for one pipeline invocation. It is created fresh
// per request/compile, same lifetime as the marker generator it's usually
// passed alongside.
type Log struct {
	msgs []Msg
}

func New() *Log {
	return &Log{}
}

func (l *Log) AddWarning(path, text string) {
	l.msgs = append(l.msgs, Msg{Kind: Warning, Path: path, Text: text})
}

func (l *Log) AddError(path, text string) {
	l.msgs = append(l.msgs, Msg{Kind: Error, Path: path, Text: text})
}

func (l *Log) HasErrors() bool {
	for _, m := range l.msgs {
		if m.Kind == Error {
			return true
		}
	}
	return false
}

func (l *Log) Done() []Msg {
	return l.msgs
}

// Flush drains l into an ambient logr.Logger, used at the HTTP server
// boundary once a request's pipeline run has finished. Per-request
// collection stays decoupled from the sink so stages under test don't need
// a real logr.Logger wired in.
func Flush(l *Log, sink logr.Logger) {
	for _, m := range l.Done() {
		switch m.Kind {
		case Error:
			sink.Error(nil, m.Text, "path", m.Path)
		default:
			sink.Info(m.Text, "path", m.Path, "kind", m.Kind.String())
		}
	}
}
