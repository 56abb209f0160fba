// Package obslog is the pass's structured logging sink: one record
// per rewrite decision (candidate, verdict, reason), turning the
// original's commented-out debug-print block into a first-class,
// opt-in log stream built on go.uber.org/zap rather than bare fmt/log.
// A Logger with no backing zap logger is a silent no-op, matching the
// pass's single-threaded, no-side-channel concurrency model when no
// debug sink is configured.
package obslog

import "go.uber.org/zap"

// Logger wraps a *zap.SugaredLogger. The zero value logs nothing: New
// only attaches a real sink when verbose is true.
type Logger struct {
	z *zap.SugaredLogger
}

// New builds a Logger. When verbose is false it returns a Logger that
// silently drops every call, so callers never need a nil check before
// logging.
func New(verbose bool) (*Logger, error) {
	if !verbose {
		return &Logger{}, nil
	}
	z, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z.Sugar()}, nil
}

// RewriteDecision logs one candidate's outcome: verdict is one of
// "rewritten" or "skipped", reason names why.
func (l *Logger) RewriteDecision(candidate, verdict, reason string) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Infow("rewrite decision", "candidate", candidate, "verdict", verdict, "reason", reason)
}

// InvariantViolation logs a hard pass failure before it propagates as
// an error, so the last structured record on a crashed run still names
// the offending node.
func (l *Logger) InvariantViolation(node, message string) {
	if l == nil || l.z == nil {
		return
	}
	l.z.Errorw("invariant violation", "node", node, "message", message)
}

// Sync flushes the underlying zap logger. Safe to call on a nil or
// no-op Logger.
func (l *Logger) Sync() error {
	if l == nil || l.z == nil {
		return nil
	}
	return l.z.Sync()
}
