package transports

import (
	"fmt"

	"github.com/mbalug7/go-regmap/pkg/hal"
)

// Frame is one recorded bus exchange.
type Frame struct {
	Addr  hal.BusAddress
	Write []byte
	Read  []byte // nil for plain writes
}

// Mock implements hal.Transport on top of an in-memory register file.
// A write stores the payload under its leading register byte; a transact
// serves the bytes stored under the register byte it was given.
type Mock struct {
	Registers map[byte][]byte

	TransactErr error
	WriteErr    error

	TransactCalls int
	WriteCalls    int
	Frames        []Frame
	Closed        bool

	// TransactFunc allows custom read behavior for complex tests
	TransactFunc func(addr hal.BusAddress, w, r []byte) error
}

// NewMock returns a Mock with an empty register file.
func NewMock() *Mock {
	return &Mock{Registers: make(map[byte][]byte)}
}

// Set stores data as the content of register reg.
func (m *Mock) Set(reg byte, data ...byte) {
	if m.Registers == nil {
		m.Registers = make(map[byte][]byte)
	}
	m.Registers[reg] = append([]byte(nil), data...)
}

func (m *Mock) Transact(addr hal.BusAddress, w []byte, r []byte) error {
	m.TransactCalls++
	frame := Frame{Addr: addr, Write: append([]byte(nil), w...)}
	defer func() {
		m.Frames = append(m.Frames, frame)
	}()

	if m.TransactFunc != nil {
		err := m.TransactFunc(addr, w, r)
		frame.Read = append([]byte(nil), r...)
		return err
	}
	if m.TransactErr != nil {
		return m.TransactErr
	}
	if len(w) == 0 {
		return fmt.Errorf("%w: empty register frame", hal.ErrNoAck)
	}
	data, ok := m.Registers[w[0]]
	if !ok || len(data) < len(r) {
		return fmt.Errorf("%w: register 0x%02x", hal.ErrNoAck, w[0])
	}
	copy(r, data)
	frame.Read = append([]byte(nil), r...)
	return nil
}

func (m *Mock) Write(addr hal.BusAddress, p []byte) error {
	m.WriteCalls++
	m.Frames = append(m.Frames, Frame{Addr: addr, Write: append([]byte(nil), p...)})
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if len(p) == 0 {
		return fmt.Errorf("%w: empty register frame", hal.ErrNoAck)
	}
	m.Set(p[0], p[1:]...)
	return nil
}

func (m *Mock) Close() error {
	m.Closed = true
	return nil
}

// Last returns the most recent frame, or an empty frame if none was seen.
func (m *Mock) Last() Frame {
	if len(m.Frames) == 0 {
		return Frame{}
	}
	return m.Frames[len(m.Frames)-1]
}
