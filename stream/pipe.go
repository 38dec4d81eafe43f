package stream

type PipeOptions struct {
	// KeepOpen leaves the destination open when the source ends.
	KeepOpen bool `json:"keep_open,omitempty"`
}

// Pipe forwards data from source to destination and returns destination.
// The source is paused while the destination reports backpressure and
// resumed on its drain event.
func Pipe(source ReadableStream, destination WritableStream, options ...PipeOptions) WritableStream {
	var option PipeOptions
	if len(options) > 0 {
		option = options[0]
	}
	emitter, canDrain := destination.(DrainEmitter)
	source.OnData(func(data []byte, _ *Stream) {
		_, ok := destination.Write(data)
		if !ok && canDrain {
			source.Pause()
		}
	})
	if canDrain {
		emitter.OnDrain(func(*Stream) {
			source.Resume()
		})
	}
	if !option.KeepOpen && !isSameStream(source, destination) {
		source.OnEnd(func(*Stream) {
			destination.End(nil)
		})
	}
	return destination
}

func isSameStream(source ReadableStream, destination WritableStream) bool {
	sourceStream, isStream := source.(*Stream)
	if !isStream {
		return false
	}
	destinationStream, isStream := destination.(*Stream)
	return isStream && sourceStream == destinationStream
}
