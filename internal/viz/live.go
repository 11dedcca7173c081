package viz

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bucketsim/internal/config"
	"github.com/san-kum/bucketsim/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 22
	historyCapacity = 300
	defaultEnergyMV = 10.0 // half height of the plot in MeV
)

type TickMsg time.Time

// Model is the live phase-space view. Every tick advances the ensemble
// by one turn; the sliders write straight into the shared controls.
type Model struct {
	cfg       *config.Config
	sim       *sim.Simulator
	log       *slog.Logger
	interval  time.Duration
	canvas    *Canvas
	window    Window
	sliders   []slider
	selected  int
	running   bool
	showHelp  bool
	keHistory []float64
	lastErr   string
	status    string

	snapshotDir string
}

// NewModel builds a fresh ensemble from cfg.
func NewModel(cfg *config.Config, log *slog.Logger) (Model, error) {
	if log == nil {
		log = slog.Default()
	}
	m := Model{
		cfg:         cfg.Clone(),
		log:         log,
		interval:    time.Duration(cfg.IntervalMs) * time.Millisecond,
		canvas:      NewCanvas(canvasWidth, canvasHeight),
		running:     true,
		snapshotDir: ".",
		window: Window{
			MinX: -2 * math.Pi, MaxX: 2 * math.Pi,
			MinY: -defaultEnergyMV, MaxY: defaultEnergyMV,
		},
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) reset() error {
	s, err := sim.FromConfig(m.cfg)
	if err != nil {
		return err
	}
	s.SetLogger(m.log)
	m.sim = s
	m.sliders = []slider{
		newPhaseSlider(m.cfg.SyncPhaseDeg),
		newVoltageSlider(m.cfg.VoltageKV),
	}
	m.keHistory = nil
	m.lastErr = ""
	m.draw()
	return nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.lastErr = err.Error()
			}
		case "n":
			if !m.running {
				m.step()
			}
		case "tab":
			m.selected = (m.selected + 1) % len(m.sliders)
		case "right", "l":
			m.nudge(1)
		case "left", "h":
			m.nudge(-1)
		case "L", "shift+right":
			m.nudge(10)
		case "H", "shift+left":
			m.nudge(-10)
		case "+", "=":
			m.zoom(0.5)
		case "-", "_":
			m.zoom(2)
		case "s":
			if path, err := m.saveSnapshot(); err != nil {
				m.lastErr = err.Error()
			} else {
				m.status = "saved " + path
				m.log.Info("saved snapshot", "file", path)
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	if err := m.sim.Step(); err != nil {
		m.lastErr = fmt.Sprintf("turn %d: %d particle(s) frozen", m.sim.Ensemble().Turn(), countErrors(err))
	}
	m.syncSliders()
	m.keHistory = append(m.keHistory, m.sim.Ensemble().KineticEnergy()*1e-6)
	if len(m.keHistory) > historyCapacity {
		m.keHistory = m.keHistory[1:]
	}
	m.draw()
}

func countErrors(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}

// syncSliders follows changes made to the controls outside the widget,
// such as scheduled events.
func (m *Model) syncSliders() {
	c := m.sim.Controls()
	for i := range m.sliders {
		switch m.sliders[i].kind {
		case sliderPhase:
			m.sliders[i].set(c.SynchronousPhaseDegrees())
		case sliderVoltage:
			m.sliders[i].set(c.RFVoltageKilovolts())
		}
	}
}

// nudge moves the selected slider by n steps and publishes the value.
func (m *Model) nudge(n int) {
	s := &m.sliders[m.selected]
	s.nudge(n)
	c := m.sim.Controls()
	switch s.kind {
	case sliderPhase:
		c.SetSynchronousPhase(s.value)
	case sliderVoltage:
		c.SetRFVoltageAmplitude(s.value)
	}
}

func (m *Model) zoom(f float64) {
	h := m.window.MaxY * f
	if h < 0.1 || h > 1000 {
		return
	}
	m.window.MinY, m.window.MaxY = -h, h
	m.draw()
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.canvas.Axes(m.window)
	e := m.sim.Ensemble()
	for i := 0; i < e.Len(); i++ {
		p := e.Particle(i)
		if p.Lost {
			continue
		}
		m.canvas.Plot(m.window, p.Phase, p.Energy*1e-6)
	}
}

func (m Model) View() string {
	e := m.sim.Ensemble()

	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("LONGITUDINAL PHASE SPACE  h=%d", m.cfg.Harmonic)) + "\n")
	if m.running {
		s.WriteString(runningStyle.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(pausedStyle.Render("PAUSED") + "\n\n")
	}

	s.WriteString(valueStyle.Render(fmt.Sprintf("Kinetic Energy [MeV]: %.2f", e.KineticEnergy()*1e-6)) + "\n")
	s.WriteString(labelStyle.Render("Turn") + valueStyle.Render(fmt.Sprintf("%d", e.Turn())) + "\n")
	s.WriteString(labelStyle.Render("Particles") + valueStyle.Render(fmt.Sprintf("%d (%d lost)", e.Len(), e.Lost())) + "\n")
	s.WriteString(labelStyle.Render("dE window") + valueStyle.Render(fmt.Sprintf("±%.1f MeV", m.window.MaxY)) + "\n\n")

	for i, sl := range m.sliders {
		line := sl.String()
		if i == m.selected {
			s.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + valueStyle.Render(line) + "\n")
		}
	}

	if len(m.keHistory) > 1 {
		chart := asciigraph.Plot(m.keHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("KE [MeV]"))
		s.WriteString("\n" + graphStyle.Render(chart) + "\n")
	}
	if m.lastErr != "" {
		s.WriteString("\n" + warnStyle.Render(m.lastErr) + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + helpStyle.Render(m.status) + "\n")
	}

	if m.showHelp {
		s.WriteString(helpStyle.Render(strings.Join([]string{
			"space  pause / resume",
			"n      single turn while paused",
			"tab    select slider",
			"←/→    slider -/+ one step (H/L ten)",
			"+/-    zoom energy axis",
			"s      save phase space as SVG",
			"r      restart  q quit",
		}, "\n")))
	} else {
		s.WriteString(helpStyle.Render("SP:Pause TAB:Slider ←→:Adjust ?:Help Q:Quit"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), statsStyle.Render(s.String()))
}
