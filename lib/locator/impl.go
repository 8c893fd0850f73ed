package locator

// round is an open discovery round for one resource name
type round[M any] struct {
	outstanding int
	deferred    []Deferred[M]
}

type locatorImpl[P any, M any] struct {
	locatedAt map[string]P
	rounds    map[string]*round[M]
}

// NewLocator creates a locator with an empty cache
func NewLocator[P any, M any]() ILocator[P, M] {
	return &locatorImpl[P, M]{
		locatedAt: make(map[string]P),
		rounds:    make(map[string]*round[M]),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see locator.ILocator)
// --------------------------------------------------------------------------

func (l *locatorImpl[P, M]) Lookup(name string) (P, bool) {
	p, ok := l.locatedAt[name]
	return p, ok
}

func (l *locatorImpl[P, M]) Defer(name, requester string, msg M, peerCount int) Round {
	entry := Deferred[M]{Requester: requester, Msg: msg}

	if r, ok := l.rounds[name]; ok {
		r.deferred = append(r.deferred, entry)
		return RoundJoined
	}

	l.rounds[name] = &round[M]{
		outstanding: peerCount,
		deferred:    []Deferred[M]{entry},
	}
	if peerCount <= 0 {
		return RoundEmpty
	}
	return RoundStarted
}

func (l *locatorImpl[P, M]) Found(name string, owner P) []Deferred[M] {
	if _, cached := l.locatedAt[name]; !cached {
		l.locatedAt[name] = owner
	}

	r, ok := l.rounds[name]
	if !ok {
		return nil
	}
	delete(l.rounds, name)
	return r.deferred
}

func (l *locatorImpl[P, M]) NotFound(name string) ([]Deferred[M], bool) {
	r, ok := l.rounds[name]
	if !ok {
		return nil, false
	}

	r.outstanding--
	if r.outstanding > 0 {
		return nil, false
	}
	delete(l.rounds, name)
	return r.deferred, true
}

func (l *locatorImpl[P, M]) Drain(name string) []Deferred[M] {
	r, ok := l.rounds[name]
	if !ok {
		return nil
	}
	delete(l.rounds, name)
	return r.deferred
}

func (l *locatorImpl[P, M]) Outstanding(name string) (int, bool) {
	r, ok := l.rounds[name]
	if !ok {
		return 0, false
	}
	return r.outstanding, true
}

func (l *locatorImpl[P, M]) Located() map[string]P {
	out := make(map[string]P, len(l.locatedAt))
	for k, v := range l.locatedAt {
		out[k] = v
	}
	return out
}

func (l *locatorImpl[P, M]) Discovering() map[string]int {
	out := make(map[string]int, len(l.rounds))
	for k, r := range l.rounds {
		out[k] = r.outstanding
	}
	return out
}
