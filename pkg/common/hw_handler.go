// Package common drives UART modules with M0/M1 mode lines and an AUX busy
// line through a Linux GPIO character device. It works for E22 and E32
// modules.
package common

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mazen160/go-random"
	"github.com/tarm/serial"
	"github.com/warthog618/gpiod"

	"github.com/mbalug7/go-regmap/pkg/hal"
)

// the module answers register commands at 9600 8N1 only
const (
	sleepBaud   = 9600
	sleepParity = serial.ParityNone
)

const (
	auxTimeout    = 2 * time.Second
	serialTimeout = 2 * time.Second
	// the module needs 2 ms after the AUX edge, give it more
	modeSettle = 200 * time.Millisecond
)

var ErrAuxTimeout = errors.New("timeout waiting for AUX line")

type auxAction int32

const (
	actionPowerReset auxAction = iota
	actionRead
	actionWrite
	actionModeSwitch
)

type lineState struct {
	m0 int
	m1 int
}

var modeLines = map[hal.ChipMode]lineState{
	hal.ModeNormal:    {m0: 0, m1: 0},
	hal.ModeWakeUp:    {m0: 1, m1: 0},
	hal.ModePowerSave: {m0: 0, m1: 1},
	hal.ModeSleep:     {m0: 1, m1: 1},
}

// linesFor returns the M0 and M1 levels that select mode.
func linesFor(mode hal.ChipMode) (lineState, error) {
	s, ok := modeLines[mode]
	if !ok {
		return s, fmt.Errorf("unsupported chip mode: %d", mode)
	}
	return s, nil
}

// modeFor maps M0 and M1 levels back to a mode.
func modeFor(m0, m1 int) (hal.ChipMode, error) {
	for mode, s := range modeLines {
		if s.m0 == m0 && s.m1 == m1 {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("chip is in undefined mode m0=%d m1=%d, check connection", m0, m1)
}

type portConfig struct {
	baud   int
	parity serial.Parity
}

// Config selects the serial port and GPIO lines of a module.
type Config struct {
	TTY      string // serial port name, e.g. /dev/ttyS0
	GPIOChip string // e.g. gpiochip0
	M0       int
	M1       int
	AUX      int
	Logger   *slog.Logger
}

type HWHandler struct {
	tty     string
	current portConfig // port settings in use
	staged  portConfig // port settings applied on the next switch out of sleep mode
	logger  *slog.Logger

	chip         *gpiod.Chip
	m0Line       *gpiod.Line
	m1Line       *gpiod.Line
	auxLine      *gpiod.Line
	serialStream *serial.Port

	auxAction      atomic.Int32          // action executed on the rising edge of AUX
	auxWaiters     map[string]chan error // callers waiting for a rising AUX edge
	writeDone      chan bool
	modeSwitchDone chan bool
	muAuxWaiters   sync.Mutex
	muRead         sync.Mutex // serial reads and port reconfiguration
	muBusy         sync.Mutex // writes and mode switches
	onMsgCb        hal.OnMessageCb
}

// NewHWHandler requests the GPIO lines and opens the serial port at 9600
// 8N1, the module default.
// Anything acquired before a failure is released again.
func NewHWHandler(cfg Config) (_ *HWHandler, err error) {
	handler := &HWHandler{
		tty:            cfg.TTY,
		current:        portConfig{baud: sleepBaud, parity: sleepParity},
		staged:         portConfig{baud: sleepBaud, parity: sleepParity},
		logger:         orDiscard(cfg.Logger).With(slog.String("tty", cfg.TTY)),
		auxWaiters:     make(map[string]chan error),
		writeDone:      make(chan bool, 1),
		modeSwitchDone: make(chan bool, 1),
	}
	handler.setAuxAction(actionPowerReset)
	defer func() {
		if err != nil {
			handler.release()
		}
	}()

	handler.chip, err = gpiod.NewChip(cfg.GPIOChip, gpiod.WithConsumer("ebyte-module"))
	if err != nil {
		return nil, fmt.Errorf("failed to create GPIO chip: %w", err)
	}
	handler.auxLine, err = handler.chip.RequestLine(cfg.AUX, gpiod.WithEventHandler(handler.onAuxPinRiseEvent), gpiod.WithRisingEdge)
	if err != nil {
		return nil, fmt.Errorf("failed to request AUX GPIO line: %w", err)
	}
	handler.m0Line, err = handler.chip.RequestLine(cfg.M0, gpiod.AsOutput(1))
	if err != nil {
		return nil, fmt.Errorf("failed to request M0 GPIO line: %w", err)
	}
	handler.m1Line, err = handler.chip.RequestLine(cfg.M1, gpiod.AsOutput(1))
	if err != nil {
		return nil, fmt.Errorf("failed to request M1 GPIO line: %w", err)
	}
	handler.serialStream, err = serial.OpenPort(handler.serialConfig(handler.current))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	time.Sleep(modeSettle)
	handler.setAuxAction(actionRead)
	handler.logger.Info("module handler ready", slog.String("gpiochip", cfg.GPIOChip))
	return handler, nil
}

func (obj *HWHandler) serialConfig(pc portConfig) *serial.Config {
	return &serial.Config{
		Name:        obj.tty,
		Baud:        pc.baud,
		Size:        8,
		Parity:      pc.parity,
		ReadTimeout: serialTimeout,
	}
}

// orDiscard returns logger, or a logger that drops everything when nil.
func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

func (obj *HWHandler) Close() error {
	return obj.release()
}

// release closes whatever lines, chip and port have been acquired.
func (obj *HWHandler) release() error {
	var errs []error
	for name, line := range map[string]*gpiod.Line{"M0": obj.m0Line, "M1": obj.m1Line, "AUX": obj.auxLine} {
		if line == nil {
			continue
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s line: %w", name, err))
		}
	}
	if obj.chip != nil {
		if err := obj.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close GPIO chip: %w", err))
		}
	}
	if obj.serialStream != nil {
		if err := obj.serialStream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close serial stream: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (obj *HWHandler) RegisterOnMessageCb(cb hal.OnMessageCb) error {
	if obj.onMsgCb != nil {
		return fmt.Errorf("on message callback already registered")
	}
	obj.onMsgCb = cb
	return nil
}

// StageSerialPortConfig sets the port settings used outside sleep mode.
// They are applied on the next mode switch.
func (obj *HWHandler) StageSerialPortConfig(baudRate int, parityBit serial.Parity) {
	obj.staged = portConfig{baud: baudRate, parity: parityBit}
}

// reopenPort reopens the serial port with next unless it is already in use.
func (obj *HWHandler) reopenPort(next portConfig) error {
	if obj.current == next {
		return nil
	}
	obj.muRead.Lock()
	defer obj.muRead.Unlock()

	if obj.serialStream != nil {
		if err := obj.serialStream.Flush(); err != nil {
			return fmt.Errorf("failed to flush serial stream: %w", err)
		}
		if err := obj.serialStream.Close(); err != nil {
			return fmt.Errorf("failed to close serial stream: %w", err)
		}
	}
	var err error
	obj.serialStream, err = serial.OpenPort(obj.serialConfig(next))
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	obj.logger.Debug("serial port reconfigured", slog.Int("baud", next.baud), slog.String("parity", string(rune(next.parity))))
	obj.current = next
	return nil
}

func (obj *HWHandler) onAuxPinRiseEvent(evt gpiod.LineEvent) {
	// the module is idle after a rising AUX edge, release everything that waits for it
	defer obj.notifyAuxWaiters()

	switch obj.getAuxAction() {
	case actionModeSwitch:
		obj.setAuxAction(actionRead)
		obj.modeSwitchDone <- true
	case actionWrite:
		obj.setAuxAction(actionRead)
		obj.writeDone <- true
	case actionRead:
		data, err := obj.ReadSerial()
		if obj.onMsgCb != nil && len(data) > 0 {
			obj.onMsgCb(data, err)
		}
	}
}

func (obj *HWHandler) ReadSerial() ([]byte, error) {
	obj.muRead.Lock()
	defer obj.muRead.Unlock()

	buf := make([]byte, 512)
	n, err := obj.serialStream.Read(buf)
	if err != nil {
		return []byte{}, fmt.Errorf("failed to receive data: %w", err)
	}
	return buf[:n], nil
}

func (obj *HWHandler) WriteSerial(msg []byte) error {
	obj.muBusy.Lock()
	defer obj.muBusy.Unlock()

	err := obj.waitAuxIdle()
	if err != nil {
		return fmt.Errorf("failed to check AUX pin input state: %w", err)
	}
	obj.setAuxAction(actionWrite)

	_, err = obj.serialStream.Write(msg)
	if err != nil {
		return fmt.Errorf("failed to send data: %w", err)
	}
	select {
	case <-time.After(auxTimeout):
		return fmt.Errorf("failed to send data: %w", ErrAuxTimeout)
	case <-obj.writeDone:
	}
	// busy to idle takes 2 ms after the rising AUX edge
	time.Sleep(2 * time.Millisecond)
	return nil
}

// SetMode drives M0 and M1 and waits for the module to confirm the switch
// on AUX. Sleep mode always uses 9600 8N1; the other modes use the staged
// port settings.
func (obj *HWHandler) SetMode(mode hal.ChipMode) error {
	currentMode, err := obj.GetMode()
	if err != nil {
		return err
	}
	if currentMode == mode {
		return nil
	}
	lines, err := linesFor(mode)
	if err != nil {
		return err
	}
	obj.muBusy.Lock()
	defer obj.muBusy.Unlock()

	next := obj.staged
	if mode == hal.ModeSleep {
		next = portConfig{baud: sleepBaud, parity: sleepParity}
	}
	if err := obj.reopenPort(next); err != nil {
		return fmt.Errorf("failed to set up serial port for mode %s: %w", mode, err)
	}
	err = obj.waitAuxIdle()
	if err != nil {
		return fmt.Errorf("failed to check AUX pin input state: %w", err)
	}
	obj.setAuxAction(actionModeSwitch)

	if err := obj.m0Line.SetValue(lines.m0); err != nil {
		return fmt.Errorf("failed to set mode %s on M0 line: %w", mode, err)
	}
	if err := obj.m1Line.SetValue(lines.m1); err != nil {
		return fmt.Errorf("failed to set mode %s on M1 line: %w", mode, err)
	}
	select {
	case <-time.After(auxTimeout):
		return fmt.Errorf("failed to switch chip mode: %w", ErrAuxTimeout)
	case <-obj.modeSwitchDone:
	}
	time.Sleep(modeSettle)
	obj.logger.Debug("chip mode switched", slog.String("from", currentMode.String()), slog.String("to", mode.String()))
	return nil
}

func (obj *HWHandler) GetMode() (hal.ChipMode, error) {
	m0, err := obj.m0Line.Value()
	if err != nil {
		return 0, fmt.Errorf("failed to get M0 line value: %w", err)
	}
	m1, err := obj.m1Line.Value()
	if err != nil {
		return 0, fmt.Errorf("failed to get M1 line value: %w", err)
	}
	return modeFor(m0, m1)
}

func (obj *HWHandler) notifyAuxWaiters() {
	obj.muAuxWaiters.Lock()
	defer obj.muAuxWaiters.Unlock()
	for id, ch := range obj.auxWaiters {
		ch <- nil
		close(ch)
		delete(obj.auxWaiters, id)
	}
}

// waitAuxIdle returns once AUX is high, or after auxTimeout.
func (obj *HWHandler) waitAuxIdle() error {
	val, err := obj.auxLine.Value()
	if err != nil {
		return err
	}
	if val == 1 {
		return nil
	}

	ch := make(chan error, 1)
	id, err := random.String(16)
	if err != nil {
		return fmt.Errorf("failed to generate waiter id: %w", err)
	}
	obj.muAuxWaiters.Lock()
	obj.auxWaiters[id] = ch
	obj.muAuxWaiters.Unlock()

	select {
	case <-time.After(auxTimeout):
		obj.muAuxWaiters.Lock()
		delete(obj.auxWaiters, id)
		obj.muAuxWaiters.Unlock()
		return ErrAuxTimeout
	case err := <-ch:
		return err
	}
}

func (obj *HWHandler) setAuxAction(action auxAction) {
	obj.auxAction.Store(int32(action))
}

func (obj *HWHandler) getAuxAction() auxAction {
	return auxAction(obj.auxAction.Load())
}

var _ hal.HWHandler = (*HWHandler)(nil)
