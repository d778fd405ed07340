// Package msgfmt prints agent transcripts to a terminal.
package msgfmt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/casualjim/swekit/events"
	"github.com/casualjim/swekit/messages"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
)

// DefaultToolOutput is how many characters of a tool response are shown.
const DefaultToolOutput = 400

var _ events.Hook = (*Console)(nil)

// Console is a hook that writes a colored transcript. Assistant messages and
// patches go through a markdown renderer when one is configured.
type Console struct {
	mu         sync.Mutex
	w          io.Writer
	glam       *glamour.TermRenderer
	toolOutput int
}

// NewConsole creates a console hook on w. With markdown set, assistant
// messages are rendered in the terminal's style.
func NewConsole(w io.Writer, markdown bool) (*Console, error) {
	c := &Console{w: w, toolOutput: DefaultToolOutput}
	if markdown {
		glam, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return nil, err
		}
		c.glam = glam
	}
	return c, nil
}

// WithToolOutput changes how much of each tool response is printed, 0 hides them.
func (c *Console) WithToolOutput(n int) *Console {
	c.toolOutput = n
	return c
}

func (c *Console) render(s string) string {
	if c.glam == nil {
		return s
	}
	out, err := c.glam.Render(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(out)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (c *Console) OnUserPrompt(_ context.Context, msg messages.Message[messages.UserMessage]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sender := msg.Sender
	if sender == "" {
		sender = "User"
	}
	fmt.Fprintf(c.w, "%s: %s\n", color.CyanString(sender), truncate(msg.Payload.Content, 2000))
}

func (c *Console) OnAssistantMessage(_ context.Context, msg messages.Message[messages.AssistantMessage]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content := msg.Payload.Content
	if content == "" && msg.Payload.Refusal != "" {
		content = color.RedString("refused: ") + msg.Payload.Refusal
	}
	fmt.Fprintf(c.w, "%s: %s\n", color.MagentaString(msg.Sender), c.render(content))
}

func (c *Console) OnToolCallMessage(_ context.Context, msg messages.Message[messages.ToolCallMessage]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tc := range msg.Payload.ToolCalls {
		if tc.Name == "" {
			continue
		}
		args := strings.ReplaceAll(tc.Arguments, ": ", "=")
		fmt.Fprintf(c.w, "%s %s%s\n", color.MagentaString(msg.Sender), color.YellowString(tc.Name), args)
	}
}

func (c *Console) OnToolCallResponse(_ context.Context, msg messages.Message[messages.ToolResponse]) {
	if c.toolOutput <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "  %s %s\n", color.YellowString(msg.Payload.ToolName+" ->"), truncate(msg.Payload.Content, c.toolOutput))
}

func (c *Console) OnError(_ context.Context, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %v\n", color.RedString("Error:"), err)
}

// Patch prints a unified diff, highlighted when markdown is on.
func (c *Console) Patch(patch string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, color.GreenString("Final patch:"))
	if strings.TrimSpace(patch) == "" {
		fmt.Fprintln(c.w, "(empty)")
		return
	}
	if c.glam == nil {
		fmt.Fprintln(c.w, patch)
		return
	}
	fmt.Fprintln(c.w, c.render("```diff\n"+patch+"\n```"))
}
