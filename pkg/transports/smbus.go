package transports

import (
	"errors"
	"fmt"
)

// ErrUnsupportedLength is returned when a frame does not map onto an SMBus
// transfer.
var ErrUnsupportedLength = errors.New("unsupported SMBus transfer length")

// maxBlock is the SMBus block payload limit.
const maxBlock = 32

type smbusSize int

const (
	sizeByte smbusSize = iota
	sizeWord
	sizeBlock
)

func (s smbusSize) String() string {
	switch s {
	case sizeByte:
		return "byte"
	case sizeWord:
		return "word"
	case sizeBlock:
		return "block"
	}
	return "unknown"
}

func smbusSizeFor(n int) (smbusSize, error) {
	switch {
	case n == 1:
		return sizeByte, nil
	case n == 2:
		return sizeWord, nil
	case n > 2 && n <= maxBlock:
		return sizeBlock, nil
	}
	return 0, fmt.Errorf("%w: %d bytes", ErrUnsupportedLength, n)
}

// packSMBus lays payload out in the kernel SMBus data union. Word data is
// kept in wire order: the first byte on the bus lands in data[0].
func packSMBus(size smbusSize, data []byte, payload []byte) {
	switch size {
	case sizeByte:
		data[0] = payload[0]
	case sizeWord:
		data[0], data[1] = payload[0], payload[1]
	case sizeBlock:
		data[0] = byte(len(payload))
		copy(data[1:], payload)
	}
}

// unpackSMBus copies the received bytes from the data union into r.
func unpackSMBus(size smbusSize, data []byte, r []byte) {
	switch size {
	case sizeByte:
		r[0] = data[0]
	case sizeWord:
		r[0], r[1] = data[0], data[1]
	case sizeBlock:
		copy(r, data[1:1+len(r)])
	}
}
