package stream

import (
	"io"
	"time"
	"unicode/utf8"
)

// Static is a TokenStream over an already-complete answer, sliced into
// fixed-size rune windows and paced by a short timer. Used for curated
// answers and non-streaming completion backends; the window size is a
// latency tuning knob, not a correctness concern.
type Static struct {
	windows  []string
	idx      int
	interval time.Duration
	done     chan struct{}
}

// NewStatic slices answer into windows of windowRunes runes.
func NewStatic(answer string, windowRunes int, interval time.Duration) *Static {
	if windowRunes <= 0 {
		windowRunes = 48
	}
	return &Static{
		windows:  splitRuneWindows(answer, windowRunes),
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Recv returns the next window after the pacing interval, io.EOF when
// the answer is exhausted.
func (s *Static) Recv() (string, error) {
	if s.idx >= len(s.windows) {
		return "", io.EOF
	}

	if s.interval > 0 {
		t := time.NewTimer(s.interval)
		defer t.Stop()
		select {
		case <-t.C:
		case <-s.done:
			return "", io.EOF
		}
	}

	w := s.windows[s.idx]
	s.idx++
	return w, nil
}

// Close releases a pending Recv.
func (s *Static) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}

// splitRuneWindows slices s into windows of at most n runes without
// splitting multi-byte sequences. Concatenating the windows yields s.
func splitRuneWindows(s string, n int) []string {
	if s == "" {
		return nil
	}
	if !utf8.ValidString(s) {
		return []string{s}
	}

	var windows []string
	start := 0
	count := 0
	for i := range s {
		if count == n {
			windows = append(windows, s[start:i])
			start = i
			count = 0
		}
		count++
	}
	windows = append(windows, s[start:])
	return windows
}
