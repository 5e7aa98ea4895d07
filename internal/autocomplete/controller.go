// Package autocomplete drives an address search box: it debounces typing into
// searches, tracks the dropdown and remembers the chosen address.
package autocomplete

import (
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/talentbridge/internal/debounce"
	"github.com/UnknownOlympus/talentbridge/internal/models"
	"github.com/UnknownOlympus/talentbridge/internal/searchclient"
)

// DefaultDelay is the quiescence window between the last keystroke and the search.
const DefaultDelay = 300 * time.Millisecond

// Searcher is the part of the search client the controller drives.
type Searcher interface {
	SearchAddresses(query string)
	ClearAddresses()
	State() searchclient.State
	Subscribe(fn func(searchclient.State)) func()
}

// View is what the search box renders.
type View struct {
	Text         string
	Selected     *models.Address
	Addresses    []models.Address
	Loading      bool
	Error        string
	ShowDropdown bool
}

// Controller owns the state of one search box.
type Controller struct {
	client    Searcher
	debouncer *debounce.Debouncer
	onSelect  func(*models.Address) // Called with the chosen address, nil on clear
	log       *slog.Logger

	mu                 sync.Mutex
	text               string
	selected           *models.Address
	dropdownOpen       bool
	closed             bool
	unsubscribeClient  func()
	unsubscribePointer func()
}

// NewController creates a Controller on top of client. A non-positive delay
// falls back to DefaultDelay and onSelect may be nil.
func NewController(client Searcher, delay time.Duration, onSelect func(*models.Address), log *slog.Logger) *Controller {
	if delay <= 0 {
		delay = DefaultDelay
	}

	c := &Controller{
		client:    client,
		debouncer: debounce.New(delay),
		onSelect:  onSelect,
		log:       log,
	}
	c.unsubscribeClient = client.Subscribe(c.handleResults)

	return c
}

// SetText records a keystroke. The text is visible immediately; the search runs
// once typing has paused for the quiescence window.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.text = text
	if c.selected != nil && text != c.selected.Label {
		c.selected = nil
	}
	if text == "" {
		c.dropdownOpen = false
	}
	c.mu.Unlock()

	c.debouncer.Trigger(c.search)
}

// Select confirms address as the chosen candidate.
func (c *Controller) Select(address models.Address) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	selected := address
	c.selected = &selected
	c.text = address.Label
	c.dropdownOpen = false
	c.mu.Unlock()

	c.log.Debug("Address selected", "id", address.ID, "label", address.Label)

	c.client.ClearAddresses()
	if c.onSelect != nil {
		c.onSelect(&address)
	}
}

// Clear empties the box and forgets the selection.
func (c *Controller) Clear() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.text = ""
	c.selected = nil
	c.dropdownOpen = false
	c.mu.Unlock()

	c.debouncer.Cancel()
	c.client.ClearAddresses()
	if c.onSelect != nil {
		c.onSelect(nil)
	}
}

// Mount starts listening for pointer-down events so a click outside the box
// closes the dropdown. The returned function stops listening; Close does too.
func (c *Controller) Mount(events PointerEvents) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return func() {}
	}
	if c.unsubscribePointer != nil {
		c.unsubscribePointer()
	}

	var once sync.Once
	unsubscribe := events.OnPointerDown(c.handlePointerDown)
	c.unsubscribePointer = func() { once.Do(unsubscribe) }

	return c.unsubscribePointer
}

// Close releases every subscription and drops any pending search.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribeClient, unsubscribePointer := c.unsubscribeClient, c.unsubscribePointer
	c.mu.Unlock()

	c.debouncer.Stop()
	unsubscribeClient()
	if unsubscribePointer != nil {
		unsubscribePointer()
	}
}

// View returns a snapshot of the box together with the client's last results.
func (c *Controller) View() View {
	state := c.client.State()

	c.mu.Lock()
	defer c.mu.Unlock()

	view := View{
		Text:      c.text,
		Addresses: state.Addresses,
		Loading:   state.Loading,
		Error:     state.Err,
	}
	if c.selected != nil {
		selected := *c.selected
		view.Selected = &selected
	}
	view.ShowDropdown = c.dropdownOpen && c.selected == nil && len(state.Addresses) > 0

	return view
}

func (c *Controller) search() {
	c.mu.Lock()
	text := c.text
	skip := c.closed || c.selected != nil
	c.mu.Unlock()

	if skip {
		return
	}
	c.client.SearchAddresses(text)
}

func (c *Controller) handleResults(state searchclient.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed && c.selected == nil && c.text != "" && len(state.Addresses) > 0 {
		c.dropdownOpen = true
	}
}

// handlePointerDown closes the dropdown on an outside click. A pending search still runs.
func (c *Controller) handlePointerDown(event PointerEvent) {
	if event.Region != RegionOutside {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropdownOpen = false
}
