package logsink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/m-mizutani/gitzip/pkg/domain/model"
)

// Console prints the progress log with a colored severity tag
type Console struct {
	w       io.Writer
	noColor bool
	mu      sync.Mutex
}

// ConsoleOption configures NewConsole
type ConsoleOption func(*Console)

// WithNoColor disables ANSI colors
func WithNoColor() ConsoleOption {
	return func(c *Console) {
		c.noColor = true
	}
}

// NewConsole creates a Console sink writing to w
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{w: w}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record implements interfaces.LogSink
func (c *Console) Record(ctx context.Context, entry model.LogEntry) {
	tag := c.tag(entry.Severity)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "%s %s\n", tag, entry.Message)
}

func (c *Console) tag(severity model.Severity) string {
	label := fmt.Sprintf("[%-5s]", severity)

	var attr color.Attribute
	switch severity {
	case model.SeverityError:
		attr = color.FgRed
	case model.SeverityWarn:
		attr = color.FgYellow
	default:
		attr = color.FgCyan
	}

	cl := color.New(attr, color.Bold)
	if c.noColor {
		cl.DisableColor()
	} else {
		cl.EnableColor()
	}
	return cl.Sprint(label)
}
