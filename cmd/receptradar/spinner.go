package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	spinnerFrameWidth = 2 // braille frames render about two columns wide
	spinnerAnimDelay  = 80 * time.Millisecond
	spinnerClearPad   = 5
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line while a provider call runs. Off a terminal
// it prints the message once.
type spinner struct {
	w       io.Writer
	message string
	stop    chan struct{}
	wg      sync.WaitGroup
}

func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{w: w, message: message, stop: make(chan struct{})}
}

func (s *spinner) Start() {
	if !isTTY() {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		ticker := time.NewTicker(spinnerAnimDelay)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r%s %s", style.Render(spinnerFrames[i%len(spinnerFrames)]), s.message)
			select {
			case <-s.stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the animation and clears the line.
func (s *spinner) Stop() {
	close(s.stop)
	s.wg.Wait()
	if isTTY() {
		clearLen := spinnerFrameWidth + 1 + len(s.message) + spinnerClearPad
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", clearLen)+"\r")
	}
}

// runWithSpinner runs operation while a spinner is shown on w.
func runWithSpinner(w io.Writer, message string, operation func() error) error {
	spin := newSpinner(w, message)
	spin.Start()
	err := operation()
	spin.Stop()
	return err
}
