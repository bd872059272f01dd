package hal

import (
	"fmt"
	"io"
	"log/slog"
)

// Device is a peripheral at a fixed address, reached through a transport it
// owns exclusively. A Device is not safe for concurrent use.
type Device struct {
	t      Transport
	addr   BusAddress
	logger *slog.Logger

	// frame buffers reused by every access, so Read and Write do not allocate
	tx [1 + MaxWidth]byte
	rx [MaxWidth]byte
}

// Option configures a Device.
type Option func(*Device)

// WithLogger logs every transaction at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// NewDevice takes ownership of t. No bus traffic is generated.
func NewDevice(t Transport, addr BusAddress, opts ...Option) *Device {
	d := &Device{t: t, addr: addr}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Address returns the device bus address.
func (d *Device) Address() BusAddress {
	return d.addr
}

// Release detaches the transport and hands it back to the caller. Any
// access after Release fails with ErrReleased.
func (d *Device) Release() Transport {
	t := d.t
	d.t = nil
	return t
}

// Close releases the transport and closes it when it is an io.Closer.
func (d *Device) Close() error {
	t := d.Release()
	if c, ok := t.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

// Read fetches reg from the device and decodes it. It issues exactly one
// bus transaction: the register address is written, then Width bytes are
// read back. On failure nothing is decoded.
func Read[V any](d *Device, reg ReadableRegister[V]) (V, error) {
	var zero V
	addr := reg.Address()
	w := reg.Width()
	if err := d.check(w); err != nil {
		return zero, &AccessError{Op: "read", Bus: d.addr, Register: addr, Err: err}
	}

	cmd := d.tx[:1]
	cmd[0] = addr.ToByte()
	rx := d.rx[:w]
	if err := d.t.Transact(d.addr, cmd, rx); err != nil {
		d.trace("read failed", addr, nil, err)
		return zero, &AccessError{Op: "read", Bus: d.addr, Register: addr, Err: err}
	}
	d.trace("read", addr, rx, nil)
	return reg.Decode(RawFrom(rx)), nil
}

// Write encodes v and stores it in reg with exactly one bus transaction:
// the register address followed by the big-endian raw value.
func Write[V any](d *Device, reg WritableRegister[V], v V) error {
	addr := reg.Address()
	w := reg.Width()
	if err := d.check(w); err != nil {
		return &AccessError{Op: "write", Bus: d.addr, Register: addr, Err: err}
	}

	tx := d.tx[:1+w]
	tx[0] = addr.ToByte()
	PutRaw(tx[1:], reg.Encode(v)&w.Mask())
	if err := d.t.Write(d.addr, tx); err != nil {
		d.trace("write failed", addr, tx[1:], err)
		return &AccessError{Op: "write", Bus: d.addr, Register: addr, Err: err}
	}
	d.trace("write", addr, tx[1:], nil)
	return nil
}

func (d *Device) check(w Width) error {
	if !w.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, w)
	}
	if d.t == nil {
		return ErrReleased
	}
	return nil
}

func (d *Device) trace(msg string, reg RegAddress, data []byte, err error) {
	if d.logger == nil {
		return
	}
	attrs := []any{
		slog.String("device", d.addr.String()),
		slog.String("register", reg.String()),
	}
	if data != nil {
		attrs = append(attrs, slog.String("data", fmt.Sprintf("% x", data)))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	d.logger.Debug(msg, attrs...)
}
