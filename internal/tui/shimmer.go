package tui

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ShimmerConfig holds configuration for the loading shimmer
type ShimmerConfig struct {
	Enabled        bool
	ReduceMotion   bool    // static highlight instead of a moving one
	SpeedMs        int     // tick interval
	WidthRatio     float64 // highlight width relative to the text
	CycleMs        int     // time for one sweep
	PauseBetweenMs int
}

// ShimmerState is the animation state of one shimmering text
type ShimmerState struct {
	Center            float64
	LastUpdate        time.Time
	Active            bool
	Config            ShimmerConfig
	SupportsTrueColor bool
	IsPaused          bool
	PauseStartTime    time.Time
}

// shimmerTickMsg advances every shimmer on screen
type shimmerTickMsg struct{}

// DefaultShimmerConfig returns the default shimmer configuration.
// SAJ_REDUCE_MOTION=1 freezes the highlight.
func DefaultShimmerConfig() ShimmerConfig {
	return ShimmerConfig{
		Enabled:        true,
		ReduceMotion:   os.Getenv("SAJ_REDUCE_MOTION") == "1",
		SpeedMs:        80,
		WidthRatio:     0.3,
		CycleMs:        1400,
		PauseBetweenMs: 300,
	}
}

// NewShimmerState creates a shimmer state
func NewShimmerState(config ShimmerConfig) *ShimmerState {
	return &ShimmerState{
		LastUpdate:        time.Now(),
		Active:            config.Enabled && !config.ReduceMotion,
		Config:            config,
		SupportsTrueColor: os.Getenv("COLORTERM") == "truecolor",
	}
}

// advance moves the highlight along a text of visibleLen glyphs
func (s *ShimmerState) advance(visibleLen int, now time.Time) {
	if !s.Active || visibleLen <= 0 {
		return
	}
	if now.Sub(s.LastUpdate) < time.Duration(s.Config.SpeedMs)*time.Millisecond {
		return
	}
	s.LastUpdate = now

	if s.IsPaused {
		if now.Sub(s.PauseStartTime) >= time.Duration(s.Config.PauseBetweenMs)*time.Millisecond {
			s.IsPaused = false
			s.Center = -float64(visibleLen) * s.Config.WidthRatio
		}
		return
	}

	ticksPerCycle := float64(s.Config.CycleMs) / float64(s.Config.SpeedMs)
	distance := float64(visibleLen) * (1 + 2*s.Config.WidthRatio)
	s.Center += distance / ticksPerCycle

	end := float64(visibleLen) * (1 + s.Config.WidthRatio)
	if s.Center >= end {
		s.Center = end
		s.IsPaused = true
		s.PauseStartTime = now
	}
}

// Reset restarts the sweep
func (s *ShimmerState) Reset() {
	s.Center = 0
	s.LastUpdate = time.Now()
	s.IsPaused = false
	s.PauseStartTime = time.Time{}
}

// SetActive enables or disables the animation
func (s *ShimmerState) SetActive(active bool) {
	s.Active = active && s.Config.Enabled && !s.Config.ReduceMotion
}

// RenderShimmerText renders text with the highlight, truncated to maxWidth glyphs
func (s *ShimmerState) RenderShimmerText(text string, maxWidth int) string {
	glyphs := []rune(text)
	if maxWidth > 3 && len(glyphs) > maxWidth {
		glyphs = append(glyphs[:maxWidth-3], []rune("...")...)
	}
	if len(glyphs) == 0 {
		return ""
	}

	s.advance(len(glyphs), time.Now())

	switch {
	case !s.Active:
		return fmt.Sprintf("\033[38;2;167;139;250m%s\033[0m", string(glyphs))
	case !s.SupportsTrueColor:
		return s.render256(glyphs)
	default:
		return s.renderTrueColor(glyphs)
	}
}

// renderTrueColor blends each glyph from the placeholder grey to a light violet
// along a gaussian centered on the highlight
func (s *ShimmerState) renderTrueColor(glyphs []rune) string {
	const (
		baseR, baseG, baseB = 177, 184, 199 // ColorPlaceholder
		hiR, hiG, hiB       = 234, 230, 255
	)

	sigma := math.Max(1, s.Config.WidthRatio*float64(len(glyphs))/2)

	var b strings.Builder
	for i, g := range glyphs {
		dx := float64(i) - s.Center
		w := math.Exp(-(dx * dx) / (2 * sigma * sigma))
		fmt.Fprintf(&b, "\033[38;2;%d;%d;%dm%c",
			blend(baseR, hiR, w), blend(baseG, hiG, w), blend(baseB, hiB, w), g)
	}
	b.WriteString("\033[0m")
	return b.String()
}

func (s *ShimmerState) render256(glyphs []rune) string {
	width := max(1, int(s.Config.WidthRatio*float64(len(glyphs))))
	start := int(s.Center) - width/2

	var b strings.Builder
	for i, g := range glyphs {
		if i >= start && i < start+width {
			fmt.Fprintf(&b, "\033[38;5;147m%c", g)
		} else {
			fmt.Fprintf(&b, "\033[38;5;250m%c", g)
		}
	}
	b.WriteString("\033[0m")
	return b.String()
}

func blend(from, to int, w float64) int {
	return int(float64(from)*(1-w) + float64(to)*w)
}

// GetTickInterval returns the interval for tea.Tick commands
func (s *ShimmerState) GetTickInterval() time.Duration {
	if !s.Active {
		return 0
	}
	return time.Duration(s.Config.SpeedMs) * time.Millisecond
}

// ShouldTick reports whether the animation needs ticks
func (s *ShimmerState) ShouldTick() bool {
	return s.Active && s.Config.Enabled && !s.Config.ReduceMotion
}

// Tick schedules the next shimmer frame, or nothing when the animation is off
func (s *ShimmerState) Tick() tea.Cmd {
	if !s.ShouldTick() {
		return nil
	}
	return tea.Tick(s.GetTickInterval(), func(time.Time) tea.Msg {
		return shimmerTickMsg{}
	})
}
