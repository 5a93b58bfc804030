package notify

import "sync"

type CloseReason int

const (
	CloseButton CloseReason = iota
	CloseBackdrop
	CloseEscape
	CloseUnmount
)

func (r CloseReason) String() string {
	switch r {
	case CloseBackdrop:
		return "backdrop"
	case CloseEscape:
		return "escape"
	case CloseUnmount:
		return "unmount"
	}
	return "button"
}

// Dialog is one modal. Resources taken while it is open (key capture,
// scroll lock) are registered with Acquire and released by Close, whatever
// the reason.
type Dialog struct {
	mu       sync.Mutex
	title    string
	open     bool
	releases []func()
	onClose  func(CloseReason)
}

func NewDialog(onClose func(CloseReason)) *Dialog {
	return &Dialog{onClose: onClose}
}

func (d *Dialog) Open(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
	d.open = true
}

func (d *Dialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *Dialog) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.title
}

// Acquire records release to run on close. On a closed dialog it runs now.
func (d *Dialog) Acquire(release func()) {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		release()
		return
	}
	d.releases = append(d.releases, release)
	d.mu.Unlock()
}

// Close runs releases in reverse order. Closing twice is a no-op.
func (d *Dialog) Close(reason CloseReason) bool {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return false
	}
	d.open = false
	rs := d.releases
	d.releases = nil
	d.mu.Unlock()

	for i := len(rs) - 1; i >= 0; i-- {
		rs[i]()
	}
	if d.onClose != nil {
		d.onClose(reason)
	}
	return true
}

// HandleKey closes on escape and reports whether the key was consumed.
func (d *Dialog) HandleKey(key string) bool {
	if !d.IsOpen() {
		return false
	}
	if key == "esc" {
		d.Close(CloseEscape)
	}
	return true
}
