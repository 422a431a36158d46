// Package terminal renders sessions and history to a terminal and asks the
// user for confirmation on stdin.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/spacesedan/sentiscope/internal/models"
)

const (
	EmptyHistoryMessage = "No analysis history yet."
	barWidth            = 20
	previewRunes        = 60
)

type Presenter struct {
	out io.Writer
	now func() time.Time

	mu       sync.Mutex
	positive lipgloss.Style
	negative lipgloss.Style
	neutral  lipgloss.Style
	faint    lipgloss.Style
	alert    lipgloss.Style
}

func NewPresenter(out io.Writer) *Presenter {
	r := lipgloss.NewRenderer(out)
	return &Presenter{
		out:      out,
		now:      time.Now,
		positive: r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		negative: r.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		neutral:  r.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
		faint:    r.NewStyle().Faint(true),
		alert:    r.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

func (p *Presenter) RenderResult(view models.ResultView) {
	p.mu.Lock()
	defer p.mu.Unlock()

	filled := view.ConfidencePercent * barWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(p.out, "Sentiment:  %s\n", p.labelStyle(view.Label).Render(view.Label.String()))
	fmt.Fprintf(p.out, "Confidence: %d%% %s\n", view.ConfidencePercent, bar)
	fmt.Fprintf(p.out, "Positive:   %d%%\n", view.PositivePercent)
	fmt.Fprintf(p.out, "Negative:   %d%%\n", view.NegativePercent)
}

func (p *Presenter) RenderLoading(loading bool) {
	if !loading {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.faint.Render("Analyzing..."))
}

func (p *Presenter) RenderError(message string) {
	if message == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.negative.Render("✗ "+message))
}

func (p *Presenter) RenderIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.faint.Render("Ready for another analysis."))
}

func (p *Presenter) RenderHistoryList(records []models.AnalysisRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(records) == 0 {
		fmt.Fprintln(p.out, p.faint.Render(EmptyHistoryMessage))
		return
	}

	now := p.now()
	for _, r := range records {
		pct := models.NewResultView(r.Label, r.ConfidenceScore).ConfidencePercent
		fmt.Fprintf(p.out, "[%s] %s - %d%%  %s\n",
			r.ID,
			p.labelStyle(r.Label).Render(r.Label.String()),
			pct,
			p.faint.Render(relativeTime(r.CreatedAt, now)))
		fmt.Fprintf(p.out, "    %s\n", preview(r.Text))
	}
}

func (p *Presenter) RenderSearchResults(query string, records []models.AnalysisRecord) {
	if len(records) == 0 {
		p.mu.Lock()
		fmt.Fprintln(p.out, p.faint.Render(fmt.Sprintf("No analyses match %q.", query)))
		p.mu.Unlock()
		return
	}
	p.RenderHistoryList(records)
}

func (p *Presenter) RenderHistoryError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.negative.Render(message))
}

func (p *Presenter) Notify(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.alert.Render("! "+message))
}

func (p *Presenter) labelStyle(label models.Label) lipgloss.Style {
	switch label {
	case models.LabelPositive:
		return p.positive
	case models.LabelNegative:
		return p.negative
	default:
		return p.neutral
	}
}

func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "recently"
	}
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	if now.Sub(t) > 7*24*time.Hour {
		return t.Local().Format("Jan 2, 2006")
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes-1]) + "…"
}
