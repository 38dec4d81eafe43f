package stream

type (
	Listener      func(stream *Stream)
	DataListener  func(data []byte, stream *Stream)
	ErrorListener func(err error, stream *Stream)
)

type listeners struct {
	data  []DataListener
	drain []Listener
	error []ErrorListener
	end   []Listener
	close []Listener
}

// OnData subscribes to read chunks. The slice is only valid during the call.
// Subscribing switches the stream to non-blocking mode.
func (s *Stream) OnData(listener DataListener) {
	s.activate()
	s.listeners.data = append(s.listeners.data, listener)
}

func (s *Stream) OnDrain(listener Listener) {
	s.activate()
	s.listeners.drain = append(s.listeners.drain, listener)
}

func (s *Stream) OnError(listener ErrorListener) {
	s.activate()
	s.listeners.error = append(s.listeners.error, listener)
}

func (s *Stream) OnEnd(listener Listener) {
	s.activate()
	s.listeners.end = append(s.listeners.end, listener)
}

func (s *Stream) OnClose(listener Listener) {
	s.activate()
	s.listeners.close = append(s.listeners.close, listener)
}

func (s *Stream) RemoveAllListeners() {
	s.listeners = listeners{}
}

// The emitters index into the live slices so that listeners dropped by a
// close during emission are not called.

func (s *Stream) emitData(data []byte) {
	for i := 0; i < len(s.listeners.data); i++ {
		s.listeners.data[i](data, s)
	}
}

func (s *Stream) emitDrain() {
	for i := 0; i < len(s.listeners.drain); i++ {
		s.listeners.drain[i](s)
	}
}

func (s *Stream) emitError(err error) {
	for i := 0; i < len(s.listeners.error); i++ {
		s.listeners.error[i](err, s)
	}
}

func (s *Stream) emitEnd() {
	for i := 0; i < len(s.listeners.end); i++ {
		s.listeners.end[i](s)
	}
}

func (s *Stream) emitClose() {
	for i := 0; i < len(s.listeners.close); i++ {
		s.listeners.close[i](s)
	}
}
