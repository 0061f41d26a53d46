package logview

// CountListener receives the view's entry counts after every reload:
// how many entries the active filter hid and how many exist in total.
// Listeners run on the model's owner goroutine and must not call back
// into the model synchronously.
type CountListener interface {
	Updated(filteredOut, total int)
}

// CountListenerFunc adapts a plain function to CountListener.
type CountListenerFunc func(filteredOut, total int)

func (f CountListenerFunc) Updated(filteredOut, total int) { f(filteredOut, total) }

type countEntry struct {
	id       int
	listener CountListener
}

// countDispatcher fans counts out to registered listeners in registration
// order. It is confined to the model's owner goroutine, so removal during
// dispatch is safe.
type countDispatcher struct {
	nextID    int
	listeners []countEntry
}

// add registers l and returns its removal handle.
func (d *countDispatcher) add(l CountListener) (id int) {
	id = d.nextID
	d.nextID++
	d.listeners = append(d.listeners, countEntry{id: id, listener: l})
	return id
}

func (d *countDispatcher) remove(id int) {
	for i, e := range d.listeners {
		if e.id == id {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return
		}
	}
}

func (d *countDispatcher) dispatch(filteredOut, total int) {
	for _, e := range d.listeners {
		e.listener.Updated(filteredOut, total)
	}
}
