package radio

const eventBufferSize = 16

// Subscription provides event channels for a subscriber. Sends never block;
// events are dropped when a subscriber falls behind.
type Subscription struct {
	StateChanged <-chan State
	TrackChanged <-chan TrackChange
	TrackFailed  <-chan TrackError
	Done         <-chan struct{}

	stateCh chan State
	trackCh chan TrackChange
	errorCh chan TrackError
	doneCh  chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh: make(chan State, eventBufferSize),
		trackCh: make(chan TrackChange, eventBufferSize),
		errorCh: make(chan TrackError, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.TrackChanged = s.trackCh
	s.TrackFailed = s.errorCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendState(e State) {
	select {
	case s.stateCh <- e:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e TrackError) {
	select {
	case s.errorCh <- e:
	default:
	}
}
