package e22

import (
	"fmt"

	"github.com/tarm/serial"

	"github.com/mbalug7/go-regmap/pkg/hal"
)

// fakeHW emulates the register commands of an E22 module. Register commands
// are only answered in sleep mode, everything else written in other modes
// is recorded as an outgoing message.
type fakeHW struct {
	regs     [8]byte
	mode     hal.ChipMode
	modes    []hal.ChipMode
	commands [][]byte
	sent     [][]byte
	pending  []byte
	cb       hal.OnMessageCb

	baud   int
	parity serial.Parity

	// corrupt rewrites a response before it is returned
	corrupt func([]byte) []byte
}

func newFakeHW() *fakeHW {
	hw := &fakeHW{mode: hal.ModeNormal}
	hw.regs[REG0] = 0x62 // 9600 8N1, 2.4k air data rate
	hw.regs[REG2] = 0x17
	hw.regs[REG3] = 0x03
	return hw
}

func (f *fakeHW) ReadSerial() ([]byte, error) {
	rsp := f.pending
	f.pending = nil
	if f.corrupt != nil {
		rsp = f.corrupt(rsp)
	}
	return rsp, nil
}

func (f *fakeHW) WriteSerial(msg []byte) error {
	if f.mode != hal.ModeSleep {
		f.sent = append(f.sent, append([]byte(nil), msg...))
		return nil
	}
	f.commands = append(f.commands, append([]byte(nil), msg...))
	if len(msg) < 3 {
		return fmt.Errorf("short command")
	}
	reg, n := int(msg[1]), int(msg[2])
	if reg+n > len(f.regs) {
		f.pending = []byte{0xFF, 0xFF, 0xFF}
		return nil
	}
	switch msg[0] {
	case cmdGetReg:
		params := append([]byte(nil), f.regs[reg:reg+n]...)
		if reg+n > int(CRYPT_H) {
			// key bytes read back as zero
			for i := range params {
				if reg+i >= int(CRYPT_H) {
					params[i] = 0
				}
			}
		}
		f.pending = append([]byte{cmdGetReg, msg[1], msg[2]}, params...)
	case cmdSetRegPermanent, cmdSetRegTemporary:
		copy(f.regs[reg:reg+n], msg[3:])
		f.pending = append([]byte{cmdGetReg, msg[1], msg[2]}, msg[3:]...)
	default:
		f.pending = []byte{0xFF, 0xFF, 0xFF}
	}
	return nil
}

func (f *fakeHW) StageSerialPortConfig(baudRate int, parityBit serial.Parity) {
	f.baud = baudRate
	f.parity = parityBit
}

func (f *fakeHW) SetMode(mode hal.ChipMode) error {
	f.mode = mode
	f.modes = append(f.modes, mode)
	return nil
}

func (f *fakeHW) GetMode() (hal.ChipMode, error) {
	return f.mode, nil
}

func (f *fakeHW) RegisterOnMessageCb(cb hal.OnMessageCb) error {
	if f.cb != nil {
		return fmt.Errorf("on message callback already registered")
	}
	f.cb = cb
	return nil
}
