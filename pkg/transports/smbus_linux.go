//go:build linux

package transports

import (
	"errors"
	"fmt"

	"github.com/platinasystems/i2c"
	"golang.org/x/sys/unix"

	"github.com/mbalug7/go-regmap/pkg/hal"
)

var smbusSizes = map[smbusSize]i2c.SMBusSize{
	sizeByte:  i2c.ByteData,
	sizeWord:  i2c.WordData,
	sizeBlock: i2c.I2CBlockData,
}

// SMBus implements hal.Transport on a Linux /dev/i2c-N adapter. The bus is
// opened for each transaction and closed right after.
type SMBus struct {
	bus int
}

// NewSMBus returns a transport for /dev/i2c-<bus>.
func NewSMBus(bus int) *SMBus {
	return &SMBus{bus: bus}
}

func (s *SMBus) Transact(addr hal.BusAddress, w []byte, r []byte) error {
	if len(w) != 1 {
		return fmt.Errorf("%w: SMBus read takes one command byte, got %d", ErrUnsupportedLength, len(w))
	}
	size, err := smbusSizeFor(len(r))
	if err != nil {
		return err
	}
	var data i2c.SMBusData
	if size == sizeBlock {
		data[0] = byte(len(r))
	}
	if err := s.do(addr, i2c.Read, w[0], size, &data); err != nil {
		return err
	}
	unpackSMBus(size, data[:], r)
	return nil
}

func (s *SMBus) Write(addr hal.BusAddress, p []byte) error {
	if len(p) < 2 {
		return fmt.Errorf("%w: SMBus write needs a command byte and data, got %d bytes", ErrUnsupportedLength, len(p))
	}
	size, err := smbusSizeFor(len(p) - 1)
	if err != nil {
		return err
	}
	var data i2c.SMBusData
	packSMBus(size, data[:], p[1:])
	return s.do(addr, i2c.Write, p[0], size, &data)
}

func (s *SMBus) do(addr hal.BusAddress, rw i2c.RW, cmd uint8, size smbusSize, data *i2c.SMBusData) error {
	var bus i2c.Bus
	err := bus.Open(s.bus)
	if err != nil {
		return fmt.Errorf("failed to open i2c bus %d: %w", s.bus, err)
	}
	defer bus.Close()

	err = bus.ForceSlaveAddress(int(addr))
	if err != nil {
		return fmt.Errorf("failed to set i2c slave address %s: %w", addr, err)
	}
	err = bus.Do(rw, cmd, smbusSizes[size], data)
	if err != nil {
		return fmt.Errorf("failed to transfer %s data with %s on i2c bus %d: %w", size, addr, s.bus, busError(err))
	}
	return nil
}

// busError adds the matching hal bus error to the fault codes Linux i2c
// adapters report. The errno stays in the chain.
func busError(err error) error {
	switch {
	case errors.Is(err, unix.ENXIO), errors.Is(err, unix.EREMOTEIO):
		return fmt.Errorf("%w: %w", hal.ErrNoAck, err)
	case errors.Is(err, unix.EAGAIN):
		return fmt.Errorf("%w: %w", hal.ErrArbitrationLost, err)
	case errors.Is(err, unix.ETIMEDOUT):
		return fmt.Errorf("%w: %w", hal.ErrBusTimeout, err)
	}
	return err
}
