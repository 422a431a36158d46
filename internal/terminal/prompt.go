package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompt asks yes/no questions on a shared line reader. With AssumeYes set
// every question is answered yes without reading input.
type Prompt struct {
	in        *bufio.Reader
	out       io.Writer
	AssumeYes bool
}

func NewPrompt(in *bufio.Reader, out io.Writer, assumeYes bool) *Prompt {
	return &Prompt{in: in, out: out, AssumeYes: assumeYes}
}

func (p *Prompt) Confirm(ctx context.Context, prompt string) bool {
	if p.AssumeYes {
		return true
	}
	if ctx.Err() != nil {
		return false
	}

	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
