// Package deployment renders a simulated provisioning progress view. Nothing
// here observes the real deployment: progress is a function of wall-clock
// ticks only, and every Snapshot is marked Simulated.
package deployment

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
)

const (
	TickInterval    = 500 * time.Millisecond
	CompletionDelay = time.Second
)

var ErrAlreadyStarted = errors.New("deployment simulation already started")

// Status is the display state of one phase.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// Phase is one named stage of the simulated deployment.
type Phase struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    time.Duration `json:"duration"`
}

// Phases returns the fixed phase list for domain.
func Phases(domain string) []Phase {
	return []Phase{
		{"infrastructure", "Setting up Infrastructure", "Provisioning servers and network configuration", 8 * time.Second},
		{"security", "Configuring Security", "Setting up SSL certificates and firewall rules", 6 * time.Second},
		{"database", "Initializing Database", "Creating database schema and initial data", 10 * time.Second},
		{"domain", "Configuring Domain", fmt.Sprintf("Setting up DNS routing for %s", domain), 12 * time.Second},
		{"deployment", "Deploying Application", "Building and deploying your application", 9 * time.Second},
	}
}

// TotalDuration sums the phase durations.
func TotalDuration(phases []Phase) time.Duration {
	var total time.Duration
	for _, p := range phases {
		total += p.Duration
	}
	return total
}

// PhaseState is a phase with its status at a given instant.
type PhaseState struct {
	Phase
	Status Status `json:"status"`
}

// Snapshot is the progress view at one instant.
type Snapshot struct {
	Simulated bool          `json:"simulated"`
	Elapsed   time.Duration `json:"elapsed"`
	Remaining time.Duration `json:"remaining"`
	Percent   float64       `json:"percent"`
	Current   int           `json:"current"` // index of the running phase, len(Phases) once all completed
	Phases    []PhaseState  `json:"phases"`
	Done      bool          `json:"done"`
}

// Progress computes the view for elapsed time into phases.
func Progress(phases []Phase, elapsed time.Duration) Snapshot {
	total := TotalDuration(phases)
	snap := Snapshot{
		Simulated: true,
		Elapsed:   elapsed,
		Remaining: max(total-elapsed, 0),
		Current:   len(phases),
		Phases:    make([]PhaseState, len(phases)),
	}
	if total > 0 {
		snap.Percent = math.Min(float64(elapsed)/float64(total)*100, 100)
	}

	var start time.Duration
	for i, p := range phases {
		end := start + p.Duration
		st := StatusCompleted
		switch {
		case elapsed < start:
			st = StatusPending
		case elapsed < end:
			st = StatusRunning
			snap.Current = i
		}
		snap.Phases[i] = PhaseState{Phase: p, Status: st}
		start = end
	}
	return snap
}

// Simulator advances a Snapshot every TickInterval and calls the completion
// callback once, CompletionDelay after the last phase finishes.
type Simulator struct {
	mu        sync.Mutex
	phases    []Phase
	total     time.Duration
	clock     Clock
	elapsed   time.Duration
	started   bool
	completed bool

	onProgress func(Snapshot)
	stop       chan struct{}
	stopOnce   sync.Once
	done       chan struct{}
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

// WithProgress registers a callback invoked after every tick.
func WithProgress(fn func(Snapshot)) Option {
	return func(s *Simulator) { s.onProgress = fn }
}

// NewSimulator creates a simulator for the deployment of domain.
func NewSimulator(domain string, opts ...Option) *Simulator {
	phases := Phases(domain)
	s := &Simulator{
		phases: phases,
		total:  TotalDuration(phases),
		clock:  RealClock(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins ticking. onComplete runs on the simulator goroutine.
func (s *Simulator) Start(onComplete func()) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	go s.run(onComplete)
	return nil
}

func (s *Simulator) run(onComplete func()) {
	defer close(s.done)

	ticker := s.clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C():
		}

		s.mu.Lock()
		s.elapsed += TickInterval
		finished := s.elapsed >= s.total
		snap := Progress(s.phases, s.elapsed)
		s.mu.Unlock()

		if s.onProgress != nil {
			s.onProgress(snap)
		}
		if finished {
			break
		}
	}
	ticker.Stop()

	select {
	case <-s.stop:
		return
	case <-s.clock.After(CompletionDelay):
	}

	s.mu.Lock()
	s.completed = true
	s.mu.Unlock()
	logger.Log.Debug("Simulated deployment finished", zap.Duration("total", s.total))
	if onComplete != nil {
		onComplete()
	}
}

// Snapshot returns the current view.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Progress(s.phases, s.elapsed)
	snap.Done = s.completed
	return snap
}

// Stop cancels the simulation. The completion callback will not run if it has
// not already. Safe to call more than once.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed when the simulation goroutine exits, after completion or Stop.
func (s *Simulator) Done() <-chan struct{} {
	return s.done
}
