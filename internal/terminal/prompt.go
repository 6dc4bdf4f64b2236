// Package terminal lets the recommend command run a submission from a shell:
// it lists possible duplicates, asks before continuing and prints the outcome.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"github.com/nguyentranbao-ct/product-hub/internal/submission"
)

var (
	colorSuccess = lipgloss.Color("#8BC34A")
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorMuted   = lipgloss.Color("#8a94a6")
)

type styles struct {
	success lipgloss.Style
	err     lipgloss.Style
	warning lipgloss.Style
	name    lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		success: r.NewStyle().Foreground(colorSuccess).Bold(true),
		err:     r.NewStyle().Foreground(colorError).Bold(true),
		warning: r.NewStyle().Foreground(colorWarning),
		name:    r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
	}
}

type Option func(*Prompt)

// WithAssumeYes answers every confirmation with yes, without reading input.
func WithAssumeYes(yes bool) Option {
	return func(p *Prompt) {
		p.assumeYes = yes
	}
}

// WithWebURL prefixes navigation targets so they print as clickable links.
func WithWebURL(base string) Option {
	return func(p *Prompt) {
		p.webURL = strings.TrimRight(base, "/")
	}
}

// Prompt implements submission.Confirmer, submission.Notifier and
// submission.Navigator on top of a line-based terminal.
type Prompt struct {
	in        *bufio.Reader
	out       io.Writer
	style     styles
	assumeYes bool
	webURL    string

	mu    sync.Mutex
	route *models.Route
}

func NewPrompt(in io.Reader, out io.Writer, opts ...Option) *Prompt {
	p := &Prompt{
		in:    bufio.NewReader(in),
		out:   out,
		style: newStyles(lipgloss.NewRenderer(out)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Prompt) Confirm(ctx context.Context, candidates []models.ProductCandidate, total int) (submission.Decision, error) {
	p.printf("%s\n", p.style.warning.Render(fmt.Sprintf("Found %d similar product(s):", total)))
	for _, c := range candidates {
		line := fmt.Sprintf("  • %s %s", p.style.name.Render(c.Name), p.style.muted.Render(fmt.Sprintf("(%d%%)", c.Score)))
		if c.Tagline != "" {
			line += " " + c.Tagline
		}
		p.printf("%s\n", line)
	}
	if more := total - len(candidates); more > 0 {
		p.printf("%s\n", p.style.muted.Render(fmt.Sprintf("  and %d more", more)))
	}

	if p.assumeYes {
		p.printf("Continue? [y/N] y\n")
		return submission.DecisionConfirmed, nil
	}
	p.printf("Continue? [y/N] ")

	answer, err := p.readLine(ctx)
	switch {
	case errors.Is(err, io.EOF) && answer == "":
		p.printf("\n")
		return submission.DecisionDismissed, nil
	case err != nil && !errors.Is(err, io.EOF):
		return submission.DecisionErrored, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return submission.DecisionConfirmed, nil
	default:
		return submission.DecisionDismissed, nil
	}
}

// readLine gives up when ctx ends; the pending read is abandoned.
func (p *Prompt) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

func (p *Prompt) Success(_ context.Context, message string) {
	p.printf("%s %s\n", p.style.success.Render("✔"), message)
}

func (p *Prompt) Error(_ context.Context, message string) {
	p.printf("%s %s\n", p.style.err.Render("✖"), message)
}

func (p *Prompt) Replace(_ context.Context, route models.Route) {
	p.mu.Lock()
	p.route = &route
	p.mu.Unlock()
	p.printf("Continue editing at %s\n", p.style.name.Render(p.webURL+route.As))
}

// Route returns the last navigation target, or nil.
func (p *Prompt) Route() *models.Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.route
}

func (p *Prompt) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}
