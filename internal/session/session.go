// Package session owns the character-stream link to a greenhouse unit: the
// connection lifecycle state machine, the read loop that frames and
// dispatches inbound records, and the write path used to push configuration.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Preko700/GreenView-sub000/internal/protocol"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateOpen
	StateClosing
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

var (
	ErrSessionActive = errors.New("a session is already opening or open")
	ErrNotOpen       = errors.New("session is not open")
)

// Hooks receives decoded protocol events from the session's read loop.
type Hooks interface {
	// DeviceConnected fires on a handshake whose identifier bound the session.
	DeviceConnected(ctx context.Context, s *Session, hardwareID string)
	// SensorPayload fires for every identified, untyped message.
	SensorPayload(ctx context.Context, hardwareID string, msg protocol.Message)
}

// Session is a single transport connection. Sessions are single-use: once
// closed or errored, a new one is created for the next connect attempt.
type Session struct {
	mu         sync.Mutex
	state      State
	rwc        io.ReadWriteCloser
	cancel     context.CancelFunc
	done       chan struct{}
	hardwareID string

	// writeMu serializes writes and acts as the barrier that keeps a close
	// from tearing the transport down under an in-flight Send.
	writeMu sync.Mutex

	hooks   Hooks
	readBuf int
}

// New creates an idle session dispatching events to hooks.
func New(hooks Hooks, readBufferBytes int) *Session {
	if readBufferBytes <= 0 {
		readBufferBytes = 512
	}
	return &Session{
		state:   StateIdle,
		hooks:   hooks,
		readBuf: readBufferBytes,
		done:    make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether the session occupies the single-session slot.
func (s *Session) Active() bool {
	st := s.State()
	return st == StateOpening || st == StateOpen
}

// HardwareID returns the identifier bound by the handshake, or "".
func (s *Session) HardwareID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hardwareID
}

// Done is closed when the read loop has exited. Intended for tests and
// shutdown sequencing.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Open acquires the transport and starts the read loop. On any opening
// failure the session returns to idle after best-effort cleanup; the error is
// reported to the caller.
func (s *Session) Open(ctx context.Context, open OpenFunc) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrSessionActive
	}
	s.state = StateOpening
	s.mu.Unlock()

	rwc, err := open(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return fmt.Errorf("failed to open transport: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.state != StateOpening {
		// Closed while the transport was being acquired.
		s.mu.Unlock()
		cancel()
		rwc.Close()
		return ErrNotOpen
	}
	s.rwc = rwc
	s.cancel = cancel
	s.state = StateOpen
	s.mu.Unlock()

	go s.readLoop(loopCtx)
	return nil
}

// Send writes one command, fire-and-forget. It refuses to write unless the
// session is open, so a close in progress can never race a write onto a
// half-torn-down transport.
func (s *Session) Send(cmd protocol.Command) error {
	b, err := cmd.Encode()
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	rwc, st := s.rwc, s.state
	s.mu.Unlock()
	if st != StateOpen || rwc == nil {
		return ErrNotOpen
	}
	if _, err := rwc.Write(b); err != nil {
		return fmt.Errorf("failed to write %s: %w", cmd.Command, err)
	}
	return nil
}

// Close tears the session down: reader first, then the write path, then the
// transport. Closing an already-closing or closed session is a no-op, so it
// is safe to trigger from any of disconnect, remote hangup, or shutdown.
func (s *Session) Close() error {
	return s.shutdown(StateClosed)
}

func (s *Session) fail(cause error) {
	log.Printf("session: unrecoverable transport error: %v", cause)
	s.shutdown(StateErrored)
}

func (s *Session) shutdown(final State) error {
	s.mu.Lock()
	switch s.state {
	case StateClosing, StateClosed, StateErrored:
		s.mu.Unlock()
		return nil
	case StateIdle:
		s.mu.Unlock()
		return nil
	case StateOpening:
		// No handles acquired yet; Open notices the state change and
		// releases whatever it acquired.
		s.state = StateClosed
		s.hardwareID = ""
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosing
	rwc, cancel := s.rwc, s.cancel
	s.rwc = nil
	s.hardwareID = ""
	s.mu.Unlock()

	// Reader first: stop dispatching records.
	if cancel != nil {
		cancel()
	}
	// Writer next: wait out any in-flight Send; new ones see a non-open state.
	s.writeMu.Lock()
	s.writeMu.Unlock() //nolint:staticcheck // barrier, not a critical section

	// Transport last. Closing it also unblocks the pending read.
	var err error
	if rwc != nil {
		err = rwc.Close()
	}

	s.mu.Lock()
	s.state = final
	s.mu.Unlock()
	return err
}

func (s *Session) readLoop(ctx context.Context) {
	defer close(s.done)

	framer := &protocol.Framer{}
	buf := make([]byte, s.readBuf)
	for {
		s.mu.Lock()
		rwc := s.rwc
		s.mu.Unlock()
		if rwc == nil {
			return
		}

		n, err := rwc.Read(buf)
		if n > 0 {
			for _, record := range framer.Push(string(buf[:n])) {
				s.dispatch(ctx, record)
			}
		}
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Printf("session: transport closed by remote")
				s.Close()
			} else {
				s.fail(err)
			}
			return
		}
	}
}

// dispatch parses and classifies one framed record. Parse and protocol
// errors never terminate the stream.
func (s *Session) dispatch(ctx context.Context, record string) {
	msg, err := protocol.Parse(record)
	if err != nil {
		log.Printf("session: dropping record: %v", err)
		return
	}

	switch msg.Classify() {
	case protocol.KindHello:
		if !s.bindOrReject(msg.HardwareID) {
			return
		}
		log.Printf("session: handshake from hardware id %s", msg.HardwareID)
		s.hooks.DeviceConnected(ctx, s, msg.HardwareID)
	case protocol.KindAck:
		if !s.bindOrReject(msg.HardwareID) {
			return
		}
		log.Printf("session: device %s acknowledged %s: %s",
			msg.HardwareID, msg.AckCommand(), msg.Raw)
	case protocol.KindSensor:
		if !s.bindOrReject(msg.HardwareID) {
			return
		}
		s.hooks.SensorPayload(ctx, msg.HardwareID, msg)
	default:
		log.Printf("session: dropping unrecognized message: %s", record)
	}
}

// bindOrReject associates the first reported identifier with the session and
// rejects messages carrying a different one. Exactly one identifier is bound
// at a time; it is cleared on teardown.
func (s *Session) bindOrReject(hardwareID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hardwareID == "" {
		s.hardwareID = hardwareID
		return true
	}
	if s.hardwareID != hardwareID {
		log.Printf("session: identifier mismatch: bound to %s, message reports %s; dropping",
			s.hardwareID, hardwareID)
		return false
	}
	return true
}
