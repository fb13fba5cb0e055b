package probe

type event struct {
	started bool
	site    string
	res     Result
}

// asyncObserver moves observer calls off the probing goroutines. Start
// notices are dropped when the buffer is full so a slow observer never holds
// a worker; finish notices are always delivered.
type asyncObserver struct {
	next   Observer
	events chan event
	done   chan struct{}
}

func newAsyncObserver(next Observer, buffer int) *asyncObserver {
	a := &asyncObserver{
		next:   next,
		events: make(chan event, max(buffer, 1)),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(a.done)
		for ev := range a.events {
			if ev.started {
				a.next.ProbeStarted(ev.site)
			} else {
				a.next.ProbeFinished(ev.res)
			}
		}
	}()
	return a
}

func (a *asyncObserver) ProbeStarted(site string) {
	select {
	case a.events <- event{started: true, site: site}:
	default:
	}
}

func (a *asyncObserver) ProbeFinished(res Result) {
	a.events <- event{res: res}
}

// Close delivers what is queued and waits for the observer to finish.
func (a *asyncObserver) Close() {
	close(a.events)
	<-a.done
}
