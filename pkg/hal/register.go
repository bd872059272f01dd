package hal

import "fmt"

// RegAddress is a register offset in a device register map.
type RegAddress uint8

// ToByte returns the address as it is sent on the wire.
func (a RegAddress) ToByte() byte {
	return byte(a)
}

func (a RegAddress) String() string {
	return fmt.Sprintf("0x%02x", uint8(a))
}

// BusAddress is the address of a device on its bus (7-bit or 10-bit).
type BusAddress uint16

func (a BusAddress) String() string {
	return fmt.Sprintf("0x%02x", uint16(a))
}

// Width is the size of a raw register value on the wire, in bytes.
type Width uint8

// MaxWidth is the widest register a Raw can hold.
const MaxWidth Width = 8

// Valid reports whether w fits in a Raw.
func (w Width) Valid() bool {
	return w > 0 && w <= MaxWidth
}

// Mask returns the bit mask covering w bytes.
func (w Width) Mask() Raw {
	if w >= MaxWidth {
		return ^Raw(0)
	}
	return Raw(1)<<(8*uint(w)) - 1
}

// Raw is a register value as transmitted on the bus, right aligned.
type Raw uint64

// Register describes one register of a device. Implementations are
// zero-size types: address, width and codec belong to the type, not to
// an instance.
//
// Decode must accept every bit pattern of the declared width. Encode must
// be a left inverse of Decode for decoded values.
type Register[V any] interface {
	Address() RegAddress
	Width() Width
	Decode(raw Raw) V
	Encode(v V) Raw
}

// Readable marks a register type as readable. Embed it in the register type.
type Readable struct{}

func (Readable) readable() {}

// Writable marks a register type as writable. Embed it in the register type.
type Writable struct{}

func (Writable) writable() {}

// ReadWrite marks a register type as both readable and writable.
type ReadWrite struct {
	Readable
	Writable
}

// ReadableRegister is satisfied only by register types embedding Readable
// or ReadWrite.
type ReadableRegister[V any] interface {
	Register[V]
	readable()
}

// WritableRegister is satisfied only by register types embedding Writable
// or ReadWrite.
type WritableRegister[V any] interface {
	Register[V]
	writable()
}
