package log

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Progress prints step-by-step feedback for a CLI run. A quiet Progress
// prints nothing but still emits debug logs.
type Progress struct {
	mu        sync.Mutex
	out       io.Writer
	quiet     bool
	startTime time.Time
	stepStart time.Time
	step      string
}

// NewProgress creates a progress printer writing to out
func NewProgress(out io.Writer, quiet bool) *Progress {
	now := time.Now()
	return &Progress{
		out:       out,
		quiet:     quiet,
		startTime: now,
		stepStart: now,
	}
}

// Step announces the start of a step
func (p *Progress) Step(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.step = fmt.Sprintf(format, args...)
	p.stepStart = time.Now()
	p.printf("%s\n", p.step)
}

// Done marks the current step as finished
func (p *Progress) Done(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	p.printf("  ✓ %s\n", msg)

	log.Debug().
		Str("step", p.step).
		Dur("elapsed", time.Since(p.stepStart)).
		Msg(msg)
}

// Info prints a standalone line
func (p *Progress) Info(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.printf(format+"\n", args...)
}

// Elapsed returns time since the progress printer was created
func (p *Progress) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

func (p *Progress) printf(format string, args ...any) {
	if p.quiet || p.out == nil {
		return
	}
	fmt.Fprintf(p.out, format, args...)
}
