package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/schoolmap/pkg/controller"
)

// timerMsg carries a debounce timer back into Update.
type timerMsg struct {
	ev controller.TimerFired
}

// TickScheduler implements controller.Scheduler with tea.Tick. Requests made
// during one Update are collected and returned as a batch command.
type TickScheduler struct {
	pending []tea.Cmd
}

// Schedule queues a tick that delivers ev after d.
func (s *TickScheduler) Schedule(d time.Duration, ev controller.TimerFired) {
	s.pending = append(s.pending, tea.Tick(d, func(time.Time) tea.Msg {
		return timerMsg{ev: ev}
	}))
}

// Pending returns the number of queued ticks.
func (s *TickScheduler) Pending() int {
	return len(s.pending)
}

// Drain returns the queued ticks as one command and clears the queue.
func (s *TickScheduler) Drain() tea.Cmd {
	if len(s.pending) == 0 {
		return nil
	}
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}
