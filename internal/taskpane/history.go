// Package taskpane tracks the navigation history of the task pane frame.
package taskpane

import "sync"

// History is the task pane navigation stack. Navigating while not at the
// end of the stack truncates the forward entries, like a browser history.
type History struct {
	mu         sync.Mutex
	initialURL string
	entries    []string
	index      int
}

// NewHistory starts a history at the bootstrap's initial task URL.
func NewHistory(initialURL string) *History {
	return &History{
		initialURL: initialURL,
		entries:    []string{initialURL},
		index:      0,
	}
}

// Current returns the URL the task pane shows now.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 || h.index >= len(h.entries) {
		return ""
	}
	return h.entries[h.index]
}

// InitialURL returns the home URL of this history.
func (h *History) InitialURL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialURL
}

func (h *History) navigate(url string) string {
	h.index++
	if h.index < len(h.entries) {
		h.entries[h.index] = url
		h.entries = h.entries[:h.index+1]
	} else {
		h.entries = append(h.entries, url)
	}
	return url
}

// Home navigates to the initial task URL, recorded as a new entry.
func (h *History) Home() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.navigate(h.initialURL)
}

// Goto navigates to an arbitrary URL, recorded as a new entry.
func (h *History) Goto(url string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.navigate(url)
}

// Push records a URL the frame navigated to on its own. A silent push
// slots the entry without moving the cursor, so a subsequent Forward
// lands on it.
func (h *History) Push(url string, silent bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot := h.index + 1
	if slot < len(h.entries) {
		h.entries[slot] = url
		h.entries = h.entries[:slot+1]
	} else {
		h.entries = append(h.entries, url)
	}
	if !silent {
		h.index = slot
	}
}

// CanGoBack reports whether a Back navigation is possible.
func (h *History) CanGoBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

// CanGoForward reports whether a Forward navigation is possible.
func (h *History) CanGoForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.entries)-1
}

// Back moves the cursor one entry back and returns the URL there. The
// cursor does not move past the first entry.
func (h *History) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index <= 0 {
		return "", false
	}
	h.index--
	return h.entries[h.index], true
}

// Forward moves the cursor one entry forward and returns the URL there.
func (h *History) Forward() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.entries)-1 {
		return "", false
	}
	h.index++
	return h.entries[h.index], true
}

// Snapshot returns a copy of the entries and the cursor position, for
// state introspection.
func (h *History) Snapshot() ([]string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := make([]string, len(h.entries))
	copy(entries, h.entries)
	return entries, h.index
}
