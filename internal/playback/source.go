package playback

// Listener receives the events a video surface emits
type Listener interface {
	TimeChanged(t float64)
	PlayStateChanged(running bool)
	MetadataLoaded(width, height int)
}

// Source is anything a Listener can attach to. Subscribe returns the function
// that detaches the listener again.
type Source interface {
	Subscribe(l Listener) (unsubscribe func())
}

// Binding is an attached listener. Close detaches it; calling Close more than
// once is a no-op.
type Binding struct {
	release  func()
	onClose  func(*Binding)
	released bool
}

// Close detaches the listener from its source
func (b *Binding) Close() {
	if b == nil || b.released {
		return
	}
	b.released = true
	if b.release != nil {
		b.release()
	}
	if b.onClose != nil {
		b.onClose(b)
	}
}

// Feed is an in-process Source: events emitted on it are forwarded, in
// subscription order, to every attached listener on the caller's goroutine.
type Feed struct {
	listeners []*feedEntry
}

type feedEntry struct {
	l Listener
}

// Subscribe attaches a listener to the feed
func (f *Feed) Subscribe(l Listener) func() {
	entry := &feedEntry{l: l}
	f.listeners = append(f.listeners, entry)
	return func() {
		for i, e := range f.listeners {
			if e == entry {
				f.listeners = append(f.listeners[:i], f.listeners[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of attached listeners
func (f *Feed) Len() int {
	return len(f.listeners)
}

func (f *Feed) TimeChanged(t float64) {
	for _, e := range f.snapshot() {
		e.l.TimeChanged(t)
	}
}

func (f *Feed) PlayStateChanged(running bool) {
	for _, e := range f.snapshot() {
		e.l.PlayStateChanged(running)
	}
}

func (f *Feed) MetadataLoaded(width, height int) {
	for _, e := range f.snapshot() {
		e.l.MetadataLoaded(width, height)
	}
}

// snapshot lets a listener unsubscribe while an event is being delivered
func (f *Feed) snapshot() []*feedEntry {
	out := make([]*feedEntry, len(f.listeners))
	copy(out, f.listeners)
	return out
}
