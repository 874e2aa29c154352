package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/cnmarch/internal/fvm"
	"github.com/san-kum/cnmarch/internal/report"
)

const (
	canvasWidth  = 60
	canvasHeight = 20
	playInterval = time.Second / 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(playInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Browser steps through the snapshots of one march, drawing the numerical
// profile as a line and the analytical profile as dots.
type Browser struct {
	title     string
	reporter  *report.Reporter
	hist      *fvm.History
	errors    report.Series
	residuals report.Series
	lo, hi    float64

	idx      int
	playing  bool
	showHelp bool
	theme    Theme
	styles   Styles
	canvas   *Canvas
}

// NewBrowser precomputes the error and residual series of hist.
func NewBrowser(ctx context.Context, title string, r *report.Reporter, hist *fvm.History) (Browser, error) {
	if hist == nil || hist.Len() == 0 {
		return Browser{}, fmt.Errorf("%w: empty history", fvm.ErrDimension)
	}
	errs, err := r.ErrorSeries(ctx)
	if err != nil {
		return Browser{}, err
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, u := range hist.U {
		for _, v := range u {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi <= lo {
		lo, hi = lo-1, hi+1
	}

	theme := Themes[0]
	return Browser{
		title:     title,
		reporter:  r,
		hist:      hist,
		errors:    errs,
		residuals: r.ResidualSeries(),
		lo:        lo,
		hi:        hi,
		theme:     theme,
		styles:    NewStyles(theme),
		canvas:    NewCanvas(canvasWidth, canvasHeight),
	}, nil
}

// Index returns the snapshot currently shown.
func (b Browser) Index() int { return b.idx }

func (b Browser) Playing() bool { return b.playing }

func (b Browser) Init() tea.Cmd { return nil }

func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	last := b.hist.Len() - 1
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return b, tea.Quit
		case "left", "[":
			b.seek(b.idx - 1)
		case "right", "]":
			b.seek(b.idx + 1)
		case "home":
			b.seek(0)
		case "end":
			b.seek(last)
		case "pgup":
			b.seek(b.idx - b.jump())
		case "pgdown":
			b.seek(b.idx + b.jump())
		case " ":
			b.playing = !b.playing
			if b.playing {
				if b.idx == last {
					b.idx = 0
				}
				return b, tick()
			}
		case "t":
			b.theme = NextTheme(b.theme)
			b.styles = NewStyles(b.theme)
		case "?":
			b.showHelp = !b.showHelp
		}
	case TickMsg:
		if !b.playing {
			return b, nil
		}
		if b.idx >= last {
			b.playing = false
			return b, nil
		}
		b.idx++
		return b, tick()
	}
	return b, nil
}

func (b *Browser) seek(i int) {
	b.idx = max(0, min(i, b.hist.Len()-1))
}

func (b Browser) jump() int {
	return max(1, b.hist.Len()/10)
}

func (b Browser) View() string {
	x := b.hist.X[b.idx]
	u := b.hist.U[b.idx]

	comps, err := b.reporter.Compare([]float64{x})
	if err != nil {
		return b.styles.Bad.Render(err.Error()) + "\n"
	}
	exact := comps[0].Analytical

	lo, hi := b.lo, b.hi
	for _, v := range exact {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	b.canvas.Clear()
	b.canvas.Polyline(u, lo, hi)
	b.canvas.Dots(exact, lo, hi, max(1, len(exact)/30))
	canvasView := b.styles.Canvas.Render(b.canvas.String())

	var s strings.Builder
	s.WriteString(b.styles.Header.Render(strings.ToUpper(b.title)) + "\n")
	status := "PAUSED"
	if b.playing {
		status = "PLAYING"
	}
	s.WriteString(status + "\n\n")

	row := func(label, value string) {
		s.WriteString(b.styles.Label.Render(label) + b.styles.Value.Render(value) + "\n")
	}
	last := b.hist.Len() - 1
	row("Snapshot", fmt.Sprintf("%d/%d", b.idx, last))
	row("x", fmt.Sprintf("%.5g", x))
	row("L2 error", fmt.Sprintf("%.3e", b.errors.Y[b.idx]))
	peak := 0.0
	if len(u) > 0 {
		peak = u[0]
		for _, v := range u {
			peak = math.Max(peak, v)
		}
	}
	row("Peak", fmt.Sprintf("%.5g", peak))
	if b.idx > 0 {
		row("Residual", fmt.Sprintf("%.3e", b.residuals.Y[b.idx-1]))
	}

	s.WriteString("\n" + b.styles.Label.Render("Residual") + "\n")
	if b.idx > 0 {
		s.WriteString(b.styles.Numeric.Render(Sparkline(b.residuals.Y[:b.idx], 30)) + "\n")
	} else {
		s.WriteString(Sparkline(nil, 30) + "\n")
	}

	frac := 1.0
	if last > 0 {
		frac = float64(b.idx) / float64(last)
	}
	s.WriteString("\n" + b.styles.ProgressBar(frac, 30) + "\n")
	s.WriteString(b.styles.Numeric.Render("── numerical") + "  " + b.styles.Exact.Render("·· analytical") + "\n")
	s.WriteString(b.styles.Hint.Render("─────────────────────\nSP:Play ←→:Step Q:Quit\nT:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, b.styles.Panel.Render(s.String()))
	if b.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  ← / [    - Previous snapshot        ║
║  → / ]    - Next snapshot            ║
║  Home/End - First/last snapshot      ║
║  PgUp/Dn  - Jump a tenth of the run  ║
║  Space    - Play/pause               ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// RunBrowser blocks until the user quits.
func RunBrowser(b Browser) error {
	_, err := tea.NewProgram(b, tea.WithAltScreen()).Run()
	return err
}

// WithTheme returns a copy of b using the named theme.
func (b Browser) WithTheme(name string) Browser {
	b.theme = GetTheme(name)
	b.styles = NewStyles(b.theme)
	return b
}

func (b Browser) Theme() Theme { return b.theme }
