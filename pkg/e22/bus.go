package e22

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/mbalug7/go-regmap/pkg/hal"
)

const (
	cmdSetRegPermanent byte = 0xC0
	cmdGetReg          byte = 0xC1
	cmdSetRegTemporary byte = 0xC2
)

// DefaultSettleTime is how long the module gets to answer a register
// command before the reply is read.
const DefaultSettleTime = 200 * time.Millisecond

var (
	ErrInvalidRequest   = errors.New("invalid register request")
	ErrInvalidResponse  = errors.New("invalid register response")
	ErrResponseMismatch = errors.New("register response does not match request")
)

// RegisterBus implements hal.Transport over the module UART. Every
// transaction switches the module to sleep mode, exchanges one register
// command and restores the previous mode. The UART is point to point, so
// the bus address is ignored.
type RegisterBus struct {
	hw        hal.HWHandler
	settle    time.Duration
	temporary bool
}

func NewRegisterBus(hw hal.HWHandler, settle time.Duration) *RegisterBus {
	return &RegisterBus{hw: hw, settle: settle}
}

// SetTemporary selects temporary writes (lost on power cycle) instead of
// permanent ones.
func (obj *RegisterBus) SetTemporary(temporary bool) {
	obj.temporary = temporary
}

func (obj *RegisterBus) Transact(_ hal.BusAddress, w []byte, r []byte) error {
	if len(w) != 1 {
		return fmt.Errorf("%w: expected one register byte, got %d", ErrInvalidRequest, len(w))
	}
	return obj.exchange([]byte{cmdGetReg, w[0], byte(len(r))}, r)
}

func (obj *RegisterBus) Write(_ hal.BusAddress, p []byte) error {
	if len(p) < 2 {
		return fmt.Errorf("%w: expected register byte and data, got %d bytes", ErrInvalidRequest, len(p))
	}
	cmd := cmdSetRegPermanent
	if obj.temporary {
		cmd = cmdSetRegTemporary
	}
	params := p[1:]
	req := make([]byte, 0, 3+len(params))
	req = append(req, cmd, p[0], byte(len(params)))
	req = append(req, params...)

	echo := make([]byte, len(params))
	if err := obj.exchange(req, echo); err != nil {
		return err
	}
	if !bytes.Equal(echo, params) {
		return fmt.Errorf("%w: wrote % x, module reports % x", ErrResponseMismatch, params, echo)
	}
	return nil
}

func (obj *RegisterBus) exchange(req []byte, params []byte) (err error) {
	mode, err := obj.hw.GetMode()
	if err != nil {
		return fmt.Errorf("failed to get chip mode: %w", err)
	}
	err = obj.hw.SetMode(hal.ModeSleep)
	if err != nil {
		return fmt.Errorf("failed to set chip mode in register access: %w", err)
	}
	defer func() {
		restoreErr := obj.hw.SetMode(mode)
		if restoreErr != nil && err == nil {
			err = fmt.Errorf("failed to restore chip mode %s: %w", mode, restoreErr)
		}
	}()

	err = obj.hw.WriteSerial(req)
	if err != nil {
		return fmt.Errorf("failed to write register command: %w", err)
	}
	time.Sleep(obj.settle)
	rsp, err := obj.hw.ReadSerial()
	if err != nil {
		return fmt.Errorf("failed to read register response: %w", err)
	}
	return parseChipResponse(rsp, req[1], params)
}

// parseChipResponse checks a C1 reply for register reg and copies its
// parameters into params.
func parseChipResponse(rsp []byte, reg byte, params []byte) error {
	// cmd, starting address, length, and parameters
	if len(rsp) < 3 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidResponse, len(rsp))
	}
	if rsp[0] != cmdGetReg {
		return fmt.Errorf("%w: unexpected command 0x%02x", ErrInvalidResponse, rsp[0])
	}
	length := int(rsp[2])
	if len(rsp)-3 != length {
		return fmt.Errorf("%w: mismatch in length and params count", ErrInvalidResponse)
	}
	if rsp[1] != reg || length != len(params) {
		return fmt.Errorf("%w: got register 0x%02x length %d, want 0x%02x length %d",
			ErrResponseMismatch, rsp[1], length, reg, len(params))
	}
	copy(params, rsp[3:])
	return nil
}
