package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/wheelsim/internal/client"
	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/protocol"
)

// Simulator is the part of client.Client the console uses.
type Simulator interface {
	Simulate(ctx context.Context, params experiment.Params) (*protocol.SimulationData, error)
	// Done is closed when the connection ends.
	Done() <-chan struct{}
	Close() error
}

// DialFunc opens the connection to the server.
type DialFunc func(ctx context.Context) (Simulator, error)

type connectedMsg struct{ sim Simulator }
type connectFailedMsg struct{ err error }
type resultMsg struct{ data *protocol.SimulationData }
type simFailedMsg struct{ err error }
type disconnectedMsg struct{}
type spinMsg time.Time

type Console struct {
	dial    DialFunc
	timeout time.Duration

	sim     Simulator
	lost    bool
	sliders []Slider
	cursor  int
	button  Button
	data    *protocol.SimulationData
	frame   int

	width  int
	height int
}

func NewConsole(dial DialFunc) Console {
	return Console{
		dial:    dial,
		timeout: time.Minute,
		sliders: DefaultSliders(),
		button:  Button{State: Connecting},
		width:   100,
		height:  40,
	}
}

// DialURL adapts client.Dial for the console.
func DialURL(url string) DialFunc {
	return func(ctx context.Context) (Simulator, error) {
		return client.Dial(ctx, url)
	}
}

func (m Console) Init() tea.Cmd {
	dial := m.dial
	connect := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sim, err := dial(ctx)
		if err != nil {
			return connectFailedMsg{err}
		}
		return connectedMsg{sim}
	}
	return tea.Batch(connect, spin())
}

func (m Console) Button() Button { return m.button }

func (m Console) Sliders() []Slider { return m.sliders }

func (m Console) Cursor() int { return m.cursor }

func (m Console) Data() *protocol.SimulationData { return m.data }

func waitDisconnect(sim Simulator) tea.Cmd {
	return func() tea.Msg {
		<-sim.Done()
		return disconnectedMsg{}
	}
}

func spin() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return spinMsg(t) })
}

func (m Console) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case connectedMsg:
		m.sim = msg.sim
		m.button = Button{State: Ready}
		return m, waitDisconnect(msg.sim)
	case connectFailedMsg:
		m.button = Button{State: ConnectionError}
	case disconnectedMsg:
		m.lost = true
		m.button = Button{State: Disconnected}
	case resultMsg:
		m.data = msg.data
		if !m.lost {
			m.button = Button{State: Ready}
		}
	case simFailedMsg:
		var serr *client.ServerError
		if errors.As(msg.err, &serr) && !m.lost {
			m.button = Button{State: Failed, Err: serr.Message}
		} else {
			m.button = Button{State: Disconnected}
		}
	case spinMsg:
		if m.button.State == Running || m.button.State == Connecting {
			m.frame++
			return m, spin()
		}
	}
	return m, nil
}

func (m Console) handleKey(msg tea.KeyMsg) (Console, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.sim != nil {
			m.sim.Close()
		}
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j", "tab":
		if m.cursor < len(m.sliders)-1 {
			m.cursor++
		}
	case "left", "h":
		m.sliders[m.cursor].Move(-1)
	case "right", "l":
		m.sliders[m.cursor].Move(1)
	case "H", "pgdown":
		m.sliders[m.cursor].Move(-10)
	case "L", "pgup":
		m.sliders[m.cursor].Move(10)
	case "enter", " ", "s":
		return m.start()
	}
	return m, nil
}

// start sends the current slider values, if the button is enabled.
func (m Console) start() (Console, tea.Cmd) {
	if !m.button.Enabled() || m.sim == nil {
		return m, nil
	}

	params, err := Params(m.sliders)
	if err != nil {
		m.button = Button{State: Failed, Err: err.Error()}
		return m, nil
	}

	m.button = Button{State: Running}
	sim, timeout := m.sim, m.timeout
	run := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		data, err := sim.Simulate(ctx, params)
		if err != nil {
			return simFailedMsg{err}
		}
		return resultMsg{data}
	}
	return m, tea.Batch(run, spin())
}

func (m Console) View() string {
	var b strings.Builder

	b.WriteString(title.Render("wheelsim") + subtle.Render("  flywheel speed control, PID vs fuzzy") + "\n\n")

	left := m.viewControls()
	if m.data == nil {
		b.WriteString(left)
	} else {
		right := m.viewResults()
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	}

	b.WriteString("\n" + keyHint.Render("↑/↓ select  ←/→ adjust  H/L ×10  enter run  q quit") + "\n")
	return b.String()
}

func (m Console) viewControls() string {
	var b strings.Builder
	for i, s := range m.sliders {
		label := fmt.Sprintf("%-20s", s.Label)
		if i == m.cursor {
			label = selected.Render("▸ " + label)
		} else {
			label = metricLabel.Render("  " + label)
		}
		fmt.Fprintf(&b, "%s %s %s\n", label, bar(s.Fraction(), 16), metricValue.Render(s.Text()))
	}

	b.WriteString("\n")
	btn := m.button.render()
	if m.button.State == Running || m.button.State == Connecting {
		btn = spinner(m.frame) + " " + btn
	}
	b.WriteString(btn)
	return panel.Render(b.String())
}

func (m Console) chartWidth() int {
	w := m.width - 60
	if w < 30 {
		w = 30
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Console) viewResults() string {
	d := m.data
	w := m.chartWidth()
	pid := renderController("PID", d.Time, d.Omega, d.Tau, d.OmegaSet, d.Stats, w)
	fuzzy := renderController("Fuzzy", d.Time, d.OmegaFuzzy, d.TauFuzzy, d.OmegaSet, d.StatsFuzzy, w)
	return lipgloss.JoinVertical(lipgloss.Left, pid, fuzzy)
}

func renderController(name string, times, omega, tau []float64, omegaSet float64, stats experiment.Stats, width int) string {
	var b strings.Builder
	b.WriteString(title.Render(name) + "\n")

	if len(omega) > 0 {
		setpoint := make([]float64, len(omega))
		for i := range setpoint {
			setpoint[i] = omegaSet
		}
		b.WriteString(asciigraph.PlotMany([][]float64{omega, setpoint},
			asciigraph.Height(8),
			asciigraph.Width(width),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
			asciigraph.Caption("ω [rad/s] (red: setpoint)"),
		) + "\n")
		b.WriteString(asciigraph.Plot(tau,
			asciigraph.Height(4),
			asciigraph.Width(width),
			asciigraph.SeriesColors(asciigraph.Green),
			asciigraph.Caption(fmt.Sprintf("τ [N·m] over %.1f s", times[len(times)-1])),
		) + "\n")
	}

	for _, line := range StatLines(stats) {
		b.WriteString(metricLabel.Render(line[0]+": ") + metricValue.Render(line[1]) + "\n")
	}
	return panel.Render(b.String())
}

// StatLines formats the four statistics shown under each chart.
func StatLines(s experiment.Stats) [][2]string {
	settling := "not settled"
	if s.SettlingTime >= 0 {
		settling = fmt.Sprintf("%.3f s", s.SettlingTime)
	}
	return [][2]string{
		{"Settling time", settling},
		{"Steady state error", fmt.Sprintf("%.4f", s.SteadyStateError)},
		{"Integral error", fmt.Sprintf("%.3f", s.IntegralError)},
		{"Total effort", fmt.Sprintf("%.3f", s.IntegralTauAbs)},
	}
}
