package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Spinner displays an animated spinner with a message.
type Spinner struct {
	out     io.Writer
	message string
	frames  []string
	done    chan struct{}
	wg      sync.WaitGroup
	tty     bool
}

// Default spinner frames (dots style)
var defaultFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a spinner writing to stderr.
func NewSpinner(message string) *Spinner {
	return NewSpinnerTo(os.Stderr, message)
}

// NewSpinnerTo creates a spinner writing to out. It only animates when out is
// a terminal.
func NewSpinnerTo(out io.Writer, message string) *Spinner {
	return &Spinner{
		out:     out,
		message: message,
		frames:  defaultFrames,
		done:    make(chan struct{}),
		tty:     isTerminal(out),
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if !s.tty {
		fmt.Fprintf(s.out, "%s...\n", s.message)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.done:
				fmt.Fprint(s.out, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprintf(s.out, "\r%s %s", Bold.Render(s.frames[i%len(s.frames)]), s.message)
			}
		}
	}()
}

// Stop stops the spinner.
func (s *Spinner) Stop() {
	if !s.tty {
		return
	}
	close(s.done)
	s.wg.Wait()
}

// Progress displays a counted progress line, e.g. while extracting elements.
// Update has the signature of an extraction progress callback and is safe
// for concurrent use.
type Progress struct {
	out     io.Writer
	message string
	tty     bool

	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

// NewProgress creates a progress indicator writing to stderr.
func NewProgress(message string) *Progress {
	return NewProgressTo(os.Stderr, message)
}

// NewProgressTo creates a progress indicator writing to out. Nothing is drawn
// unless out is a terminal.
func NewProgressTo(out io.Writer, message string) *Progress {
	return &Progress{out: out, message: message, tty: isTerminal(out), interval: 50 * time.Millisecond}
}

// Update redraws the line. Redraws are throttled except for the final one.
func (p *Progress) Update(current, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.tty {
		return
	}
	now := time.Now()
	if current < total && now.Sub(p.last) < p.interval {
		return
	}
	p.last = now
	fmt.Fprintf(p.out, "\r%s %s", p.message, Muted.Render(fmt.Sprintf("(%d/%d)", current, total)))
}

// Done clears the progress line.
func (p *Progress) Done() {
	if p.tty {
		fmt.Fprint(p.out, "\r\033[K")
	}
}
