package pointer

// Handler receives events routed through a Document.
type Handler func(ev *Event)

// ListenerID is returned by Attach and used to detach the same listener.
type ListenerID uint64

type listener struct {
	id   ListenerID
	kind Kind
	fn   Handler
}

// Document is the document-level listener registry. Handlers attached here
// see every event of their kind regardless of where the pointer is, which
// lets a drag continue outside the element that started it.
type Document struct {
	next      ListenerID
	listeners []listener
}

// NewDocument returns an empty registry.
func NewDocument() *Document {
	return &Document{}
}

// Attach registers fn for events of kind k.
func (d *Document) Attach(k Kind, fn Handler) ListenerID {
	d.next++
	d.listeners = append(d.listeners, listener{id: d.next, kind: k, fn: fn})
	return d.next
}

// Detach removes a listener. Unknown ids are ignored.
func (d *Document) Detach(id ListenerID) {
	for i, l := range d.listeners {
		if l.id == id {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return
		}
	}
}

// Len is the number of attached listeners.
func (d *Document) Len() int { return len(d.listeners) }

// Dispatch delivers ev to every listener of its kind, in attach order, until
// one of them stops propagation. It reports whether any listener ran.
//
// Listeners may detach themselves (or others) while handling; the snapshot
// taken before delivery keeps iteration stable.
func (d *Document) Dispatch(ev *Event) bool {
	if len(d.listeners) == 0 {
		return false
	}
	snapshot := make([]listener, len(d.listeners))
	copy(snapshot, d.listeners)
	handled := false
	for _, l := range snapshot {
		if l.kind != ev.Kind {
			continue
		}
		l.fn(ev)
		handled = true
		if ev.Stopped() {
			break
		}
	}
	return handled
}
