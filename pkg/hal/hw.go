package hal

import "github.com/tarm/serial"

// ChipMode is the operating mode of a UART-attached module, selected with
// its M0 and M1 lines.
type ChipMode int

type OnMessageCb func([]byte, error)

const (
	ModeNormal ChipMode = iota
	ModeWakeUp
	ModePowerSave
	ModeSleep // configuration mode, registers are reachable only here
)

func (m ChipMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeWakeUp:
		return "wake-up"
	case ModePowerSave:
		return "power-save"
	case ModeSleep:
		return "sleep"
	}
	return "unknown"
}

// HWHandler drives the UART and mode lines of a module. Register access on
// such modules goes through a Transport layered on top of it.
type HWHandler interface {
	ReadSerial() ([]byte, error)
	WriteSerial(msg []byte) error
	StageSerialPortConfig(baudRate int, parityBit serial.Parity)
	SetMode(mode ChipMode) error
	GetMode() (ChipMode, error)
	RegisterOnMessageCb(OnMessageCb) error
}
