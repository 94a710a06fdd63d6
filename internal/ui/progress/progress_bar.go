package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"

	"github.com/Ruutuli/whohas/internal/ui/styles"
)

// keyDone reports that a preload candidate settled.
type keyDone struct {
	done int
	key  string
}

// ProgressBar wraps a Bubbletea progress bar for simple non-interactive
// use. Preload runs know their candidate count up front, so the bar
// shows percent, a done/total counter and the key that just settled.
type ProgressBar struct {
	program   *tea.Program
	updateCh  chan keyDone
	done      chan struct{}
	mu        sync.Mutex
	isRunning bool
	total     int
	last      keyDone
	label     string
}

// progressBarModel is the internal Bubbletea model
type progressBarModel struct {
	progress progress.Model
	total    int
	done     int
	key      string
	label    string
	updateCh chan keyDone
}

func (m progressBarModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m progressBarModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updateCh
		if !ok {
			return tea.Quit()
		}
		return update
	}
}

func (m progressBarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case keyDone:
		m.done = msg.done
		m.key = msg.key
		return m, m.waitForUpdate()
	case tea.KeyPressMsg:
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}
}

func (m progressBarModel) View() tea.View {
	// Until the first key settles the bar shows the run label.
	trailer := m.key
	if trailer == "" {
		trailer = m.label
	}

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}

	// Format: [████████░░░░░░░░] 45% (5/11) blue-jelly
	bar := m.progress.ViewAs(percent)
	pct := int(percent * 100)

	return tea.NewView(fmt.Sprintf("%s %3d%% (%d/%d) %s", bar, pct, m.done, m.total, trailer))
}

// NewProgressBar creates a bar for a preload run over total keys. The
// label is shown until the first key settles.
func NewProgressBar(total int, label string) *ProgressBar {
	return &ProgressBar{
		updateCh: make(chan keyDone, 10),
		done:     make(chan struct{}),
		total:    total,
		label:    label,
	}
}

// Start begins the progress bar display.
func (p *ProgressBar) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return
	}

	prog := progress.New(
		progress.WithWidth(40),
		progress.WithoutPercentage(),
		progress.WithColors(styles.Primary, styles.Accent),
	)

	model := progressBarModel{
		progress: prog,
		total:    p.total,
		done:     p.last.done,
		key:      p.last.key,
		label:    p.label,
		updateCh: p.updateCh,
	}

	// Write to stderr so stdout remains clean for piping (e.g., whohas lookup x --json | jq)
	profile := colorprofile.Detect(os.Stderr, os.Environ())
	p.program = tea.NewProgram(model,
		tea.WithoutSignalHandler(),
		tea.WithOutput(os.Stderr),
		tea.WithColorProfile(profile),
	)
	p.isRunning = true

	go func() {
		_, _ = p.program.Run()
		close(p.done)
	}()
}

// SetProgress records that key settled as the done'th candidate.
func (p *ProgressBar) SetProgress(done int, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		p.last = keyDone{done: done, key: key}
		return
	}

	// Non-blocking send - intentionally drops updates if channel is full
	// Safe because channel close happens under same mutex
	select {
	case p.updateCh <- keyDone{done: done, key: key}:
	default:
		// Channel full, skip update (acceptable for UI)
	}
}

// Stop stops the progress bar and clears the line.
func (p *ProgressBar) Stop() {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return
	}
	p.isRunning = false
	// Close channel inside mutex to prevent race with SetProgress
	close(p.updateCh)
	p.mu.Unlock()

	// Quit the program
	if p.program != nil {
		p.program.Quit()
	}

	// Wait for program to finish with timeout
	select {
	case <-p.done:
	case <-time.After(500 * time.Millisecond):
	}

	// Clear to stderr (UI output shouldn't pollute stdout for piping)
	fmt.Fprint(os.Stderr, "\r\033[K")
}

// Total returns the candidate count the bar was built for.
func (p *ProgressBar) Total() int {
	return p.total
}
