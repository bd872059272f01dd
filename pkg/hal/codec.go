package hal

// PutRaw stores raw big-endian into buf, using len(buf) bytes. High bits
// that do not fit are dropped.
func PutRaw(buf []byte, raw Raw) {
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = byte(raw)
		raw >>= 8
	}
}

// RawFrom assembles a big-endian raw value from buf.
func RawFrom(buf []byte) Raw {
	var raw Raw
	for _, b := range buf {
		raw = raw<<8 | Raw(b)
	}
	return raw
}

// Field is a bit range inside a raw register value.
type Field struct {
	Shift uint8
	Bits  uint8
}

// Mask returns the field mask, already shifted into position.
func (f Field) Mask() Raw {
	return (Raw(1)<<f.Bits - 1) << f.Shift
}

// Get extracts the field value from raw.
func (f Field) Get(raw Raw) Raw {
	return (raw & f.Mask()) >> f.Shift
}

// Set returns raw with the field replaced by v. Bits of v outside the field
// are ignored.
func (f Field) Set(raw Raw, v Raw) Raw {
	return raw&^f.Mask() | (v<<f.Shift)&f.Mask()
}

// Flag reports whether any bit of the field is set.
func (f Field) Flag(raw Raw) bool {
	return raw&f.Mask() != 0
}

// SetFlag sets or clears every bit of the field.
func (f Field) SetFlag(raw Raw, on bool) Raw {
	if on {
		return raw | f.Mask()
	}
	return raw &^ f.Mask()
}

// Bit returns a one bit field at position n.
func Bit(n uint8) Field {
	return Field{Shift: n, Bits: 1}
}
