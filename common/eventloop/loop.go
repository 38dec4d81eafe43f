// Package eventloop is a single-threaded readiness loop over file descriptors.
//
// Listeners run on the goroutine that calls Run. Apart from Stop and
// FutureTick, the loop must only be used from that goroutine, or before Run
// is called.
package eventloop

import (
	"os"
	"slices"
	"sync"
	"sync/atomic"

	E "github.com/iwai/evstream/common/exceptions"
	"github.com/iwai/evstream/common/log"

	"github.com/eapache/queue"
	"github.com/sirupsen/logrus"
)

// Listener is invoked with the descriptor that became ready.
type Listener func(fd int)

type Loop interface {
	AddReadStream(fd int, listener Listener) error
	AddWriteStream(fd int, listener Listener) error
	RemoveReadStream(fd int)
	RemoveWriteStream(fd int)
	RemoveStream(fd int)
	FutureTick(fn func())
	Run() error
	Stop()
	Close() error
}

var _ Loop = (*StreamLoop)(nil)

const (
	eventRead uint32 = 1 << iota
	eventWrite
)

var (
	ErrAlreadyRunning = E.New("event loop already running")
	errNotPollable    = E.New("descriptor not pollable")
)

type poller interface {
	add(fd int, events uint32) error
	modify(fd int, events uint32) error
	remove(fd int) error
	wait(timeout int, dispatch func(fd int, events uint32)) error
	wakeup()
	close() error
}

type watch struct {
	read        Listener
	write       Listener
	alwaysReady bool
}

func (w *watch) events() uint32 {
	var events uint32
	if w.read != nil {
		events |= eventRead
	}
	if w.write != nil {
		events |= eventWrite
	}
	return events
}

func (w *watch) listener(event uint32) Listener {
	if event == eventRead {
		return w.read
	}
	return w.write
}

func (w *watch) set(event uint32, listener Listener) {
	if event == eventRead {
		w.read = listener
	} else {
		w.write = listener
	}
}

// StreamLoop is the default Loop: epoll on linux, poll(2) on other unix
// systems. Descriptors the kernel refuses to poll, such as regular files under
// epoll, are treated as always ready.
type StreamLoop struct {
	poller     poller
	watches    map[int]*watch
	readyCount int
	tickAccess sync.Mutex
	ticks      *queue.Queue
	stopping   atomic.Bool
	running    bool
	closed     atomic.Bool
	logger     logrus.Ext1FieldLogger
}

func New() (*StreamLoop, error) {
	poller, err := newPoller()
	if err != nil {
		return nil, E.Cause(err, "create event loop")
	}
	return &StreamLoop{
		poller:  poller,
		watches: make(map[int]*watch),
		ticks:   queue.New(),
		logger:  log.NewLogger("eventloop"),
	}, nil
}

func (l *StreamLoop) SetLogger(logger logrus.Ext1FieldLogger) {
	l.logger = logger
}

// AddReadStream watches fd for read readiness. Adding a second read listener
// for the same descriptor is ignored.
func (l *StreamLoop) AddReadStream(fd int, listener Listener) error {
	return l.addStream(fd, eventRead, listener)
}

// AddWriteStream watches fd for write readiness. Adding a second write
// listener for the same descriptor is ignored.
func (l *StreamLoop) AddWriteStream(fd int, listener Listener) error {
	return l.addStream(fd, eventWrite, listener)
}

func (l *StreamLoop) RemoveReadStream(fd int) {
	l.removeStream(fd, eventRead)
}

func (l *StreamLoop) RemoveWriteStream(fd int) {
	l.removeStream(fd, eventWrite)
}

// RemoveStream drops every watch on fd.
func (l *StreamLoop) RemoveStream(fd int) {
	w, loaded := l.watches[fd]
	if !loaded {
		return
	}
	l.deleteWatch(fd, w)
}

func (l *StreamLoop) addStream(fd int, event uint32, listener Listener) error {
	if l.closed.Load() {
		return os.ErrClosed
	}
	if fd < 0 || listener == nil {
		return E.WithSentinel(E.ErrInvalidArgument, E.New("invalid watch on descriptor ", fd))
	}
	w, loaded := l.watches[fd]
	if loaded {
		if w.listener(event) != nil {
			return nil
		}
		w.set(event, listener)
		if w.alwaysReady {
			return nil
		}
		err := l.poller.modify(fd, w.events())
		if err != nil {
			w.set(event, nil)
			l.logger.Debug("modify watch on fd ", fd, ": ", err)
			return E.Cause(err, "modify watch")
		}
		return nil
	}
	w = new(watch)
	w.set(event, listener)
	err := l.poller.add(fd, w.events())
	if err == errNotPollable {
		w.alwaysReady = true
		l.readyCount++
	} else if err != nil {
		l.logger.Debug("add watch on fd ", fd, ": ", err)
		return E.Cause(err, "add watch")
	}
	l.watches[fd] = w
	return nil
}

func (l *StreamLoop) removeStream(fd int, event uint32) {
	w, loaded := l.watches[fd]
	if !loaded || w.listener(event) == nil {
		return
	}
	w.set(event, nil)
	if w.events() == 0 {
		l.deleteWatch(fd, w)
		return
	}
	if !w.alwaysReady {
		err := l.poller.modify(fd, w.events())
		if err != nil {
			l.logger.Debug("modify watch on fd ", fd, ": ", err)
		}
	}
}

func (l *StreamLoop) deleteWatch(fd int, w *watch) {
	delete(l.watches, fd)
	if w.alwaysReady {
		l.readyCount--
		return
	}
	err := l.poller.remove(fd)
	if err != nil {
		l.logger.Trace("remove watch on fd ", fd, ": ", err)
	}
}

// FutureTick schedules fn to run on the loop goroutine before the next wait.
// It is safe to call from any goroutine. Ticks scheduled on a closed loop are
// dropped.
func (l *StreamLoop) FutureTick(fn func()) {
	l.tickAccess.Lock()
	defer l.tickAccess.Unlock()
	if l.closed.Load() {
		return
	}
	l.ticks.Add(fn)
	l.poller.wakeup()
}

func (l *StreamLoop) pendingTicks() int {
	l.tickAccess.Lock()
	defer l.tickAccess.Unlock()
	return l.ticks.Length()
}

// runTicks runs the ticks queued so far; ticks queued meanwhile wait for the
// next iteration.
func (l *StreamLoop) runTicks() {
	l.tickAccess.Lock()
	count := l.ticks.Length()
	tickList := make([]func(), 0, count)
	for range count {
		tickList = append(tickList, l.ticks.Remove().(func()))
	}
	l.tickAccess.Unlock()
	for _, tick := range tickList {
		tick()
	}
}

// Run dispatches readiness until Stop is called or nothing is left to watch.
func (l *StreamLoop) Run() error {
	if l.closed.Load() {
		return os.ErrClosed
	}
	if l.running {
		return ErrAlreadyRunning
	}
	l.running = true
	defer func() {
		l.running = false
	}()
	for {
		if l.stopping.Swap(false) {
			return nil
		}
		l.runTicks()
		if l.stopping.Swap(false) {
			return nil
		}
		pendingTicks := l.pendingTicks()
		if len(l.watches) == 0 && pendingTicks == 0 {
			return nil
		}
		timeout := -1
		if l.readyCount > 0 || pendingTicks > 0 {
			timeout = 0
		}
		err := l.poller.wait(timeout, l.dispatch)
		if err != nil {
			return E.Cause(err, "wait")
		}
		if l.readyCount > 0 {
			l.dispatchAlwaysReady()
		}
	}
}

func (l *StreamLoop) dispatch(fd int, events uint32) {
	w, loaded := l.watches[fd]
	if !loaded {
		return
	}
	if events&eventRead != 0 && w.read != nil {
		w.read(fd)
	}
	if events&eventWrite == 0 {
		return
	}
	w, loaded = l.watches[fd]
	if loaded && w.write != nil {
		w.write(fd)
	}
}

func (l *StreamLoop) dispatchAlwaysReady() {
	fdList := make([]int, 0, l.readyCount)
	for fd, w := range l.watches {
		if w.alwaysReady {
			fdList = append(fdList, fd)
		}
	}
	slices.Sort(fdList)
	for _, fd := range fdList {
		w, loaded := l.watches[fd]
		if !loaded || !w.alwaysReady {
			continue
		}
		l.dispatch(fd, eventRead|eventWrite)
	}
}

// Stop makes Run return after the current iteration. It is safe to call from
// any goroutine.
func (l *StreamLoop) Stop() {
	l.tickAccess.Lock()
	defer l.tickAccess.Unlock()
	if l.closed.Load() {
		return
	}
	l.stopping.Store(true)
	l.poller.wakeup()
}

// Close releases the poller. The wakeup descriptors are closed under the tick
// lock so a concurrent FutureTick or Stop never writes to a stale descriptor.
func (l *StreamLoop) Close() error {
	l.tickAccess.Lock()
	defer l.tickAccess.Unlock()
	if l.closed.Swap(true) {
		return nil
	}
	clear(l.watches)
	l.readyCount = 0
	l.ticks = queue.New()
	return l.poller.close()
}
