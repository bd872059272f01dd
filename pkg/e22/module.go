package e22

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tarm/serial"

	"github.com/mbalug7/go-regmap/pkg/hal"
)

// ErrConfigUnchanged is returned when a config write would not change
// anything on the module.
var ErrConfigUnchanged = errors.New("new register setup is the same as the setup on the chip")

type Message struct {
	Payload []byte
	RSSI    uint8
}

type OnMessageCb func(Message, error)

var serialBaudMap = map[BaudRate]int{
	BAUD_1200:   1200,
	BAUD_2400:   2400,
	BAUD_4800:   4800,
	BAUD_9600:   9600,
	BAUD_19200:  19200,
	BAUD_38400:  38400,
	BAUD_57600:  57600,
	BAUD_115200: 115200,
}

var serialParityMap = map[Parity]serial.Parity{
	PARITY_8N1: serial.ParityNone,
	PARITY_8O1: serial.ParityOdd,
	PARITY_8E1: serial.ParityEven,
}

// Config is the readable configuration of the module.
type Config struct {
	Address      uint16             `yaml:"address"`
	Serial       SerialConfig       `yaml:"serial"`
	Radio        RadioConfig        `yaml:"radio"`
	Channel      Channel            `yaml:"channel"`
	Transmission TransmissionConfig `yaml:"transmission"`
}

type options struct {
	settle time.Duration
	logger *slog.Logger
}

// Option configures a Module.
type Option func(*options)

// WithSettleTime overrides DefaultSettleTime.
func WithSettleTime(d time.Duration) Option {
	return func(o *options) {
		o.settle = d
	}
}

// WithLogger logs register transactions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Module is an EByte E22 LoRa module. Its configuration registers are read
// and written through a hal.Device on top of the module UART.
type Module struct {
	hw      hal.HWHandler
	bus     *RegisterBus
	dev     *hal.Device
	onMsgCb OnMessageCb
	rssi    atomic.Bool // incoming messages carry a trailing RSSI byte
	fixed   atomic.Bool // fixed transmission method
}

// NewModule reads the serial and transmission settings from the module,
// stages the serial port to match, and leaves the module in the mode it
// was found in.
func NewModule(hw hal.HWHandler, cb OnMessageCb, opts ...Option) (*Module, error) {
	o := options{settle: DefaultSettleTime}
	for _, opt := range opts {
		opt(&o)
	}
	var devOpts []hal.Option
	if o.logger != nil {
		devOpts = append(devOpts, hal.WithLogger(o.logger))
	}

	m := &Module{
		hw:      hw,
		bus:     NewRegisterBus(hw, o.settle),
		onMsgCb: cb,
	}
	m.dev = hal.NewDevice(m.bus, 0, devOpts...)

	err := hw.RegisterOnMessageCb(m.onMessageHandler)
	if err != nil {
		return nil, fmt.Errorf("failed to register OnMessageCb: %w", err)
	}
	serialCfg, err := hal.Read(m.dev, SerialReg{})
	if err != nil {
		return nil, fmt.Errorf("failed to read serial config: %w", err)
	}
	m.stageSerialPort(serialCfg)
	transmission, err := hal.Read(m.dev, TransmissionReg{})
	if err != nil {
		return nil, fmt.Errorf("failed to read transmission config: %w", err)
	}
	m.setTransmission(transmission)
	return m, nil
}

func (obj *Module) onMessageHandler(msg []byte, err error) {
	if obj.onMsgCb == nil {
		return
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		obj.onMsgCb(Message{}, err)
		return
	}
	if obj.rssi.Load() {
		if len(msg) < 2 {
			obj.onMsgCb(Message{}, fmt.Errorf("invalid message received"))
			return
		}
		obj.onMsgCb(Message{Payload: msg[:len(msg)-1], RSSI: msg[len(msg)-1]}, nil)
		return
	}
	obj.onMsgCb(Message{Payload: msg}, nil)
}

// Configuration reads every readable configuration register.
func (obj *Module) Configuration() (Config, error) {
	var cfg Config
	var err error
	if cfg.Address, err = hal.Read(obj.dev, AddressReg{}); err != nil {
		return cfg, err
	}
	if cfg.Serial, err = hal.Read(obj.dev, SerialReg{}); err != nil {
		return cfg, err
	}
	if cfg.Radio, err = hal.Read(obj.dev, RadioReg{}); err != nil {
		return cfg, err
	}
	if cfg.Channel, err = hal.Read(obj.dev, ChannelReg{}); err != nil {
		return cfg, err
	}
	if cfg.Transmission, err = hal.Read(obj.dev, TransmissionReg{}); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WriteConfig writes the registers of cfg that differ from the module.
// Temporary writes are lost when the module is power cycled.
func (obj *Module) WriteConfig(cfg Config, temporary bool) error {
	if !cfg.Channel.Valid() {
		return fmt.Errorf("failed to write config: channel %d above %d", cfg.Channel, MaxChannel)
	}
	current, err := obj.Configuration()
	if err != nil {
		return fmt.Errorf("failed to read current config: %w", err)
	}
	if current == cfg {
		return ErrConfigUnchanged
	}

	obj.bus.SetTemporary(temporary)
	defer obj.bus.SetTemporary(false)

	if cfg.Address != current.Address {
		if err := hal.Write(obj.dev, AddressReg{}, cfg.Address); err != nil {
			return err
		}
	}
	if cfg.Serial != current.Serial {
		if err := hal.Write(obj.dev, SerialReg{}, cfg.Serial); err != nil {
			return err
		}
		obj.stageSerialPort(cfg.Serial)
	}
	if cfg.Radio != current.Radio {
		if err := hal.Write(obj.dev, RadioReg{}, cfg.Radio); err != nil {
			return err
		}
	}
	if cfg.Channel != current.Channel {
		if err := hal.Write(obj.dev, ChannelReg{}, cfg.Channel); err != nil {
			return err
		}
	}
	if cfg.Transmission != current.Transmission {
		if err := hal.Write(obj.dev, TransmissionReg{}, cfg.Transmission); err != nil {
			return err
		}
		obj.setTransmission(cfg.Transmission)
	}
	return nil
}

// SetCryptKey sets the encryption key. It cannot be read back, make sure
// the other side uses the same key.
func (obj *Module) SetCryptKey(key uint16, temporary bool) error {
	obj.bus.SetTemporary(temporary)
	defer obj.bus.SetTemporary(false)
	return hal.Write(obj.dev, CryptReg{}, key)
}

func (obj *Module) stageSerialPort(c SerialConfig) {
	obj.hw.StageSerialPortConfig(serialBaudMap[c.BaudRate], serialParityMap[c.Parity])
}

func (obj *Module) setTransmission(c TransmissionConfig) {
	obj.rssi.Store(c.RSSI == RSSI_ENABLE)
	obj.fixed.Store(c.Method == TRANSMISSION_FIXED)
}

func (obj *Module) checkSendMode() error {
	currentMode, err := obj.hw.GetMode()
	if err != nil {
		return err
	}
	if currentMode == hal.ModeSleep || currentMode == hal.ModePowerSave {
		return fmt.Errorf("can't send message while E22 module is in mode %s. Change the mode to ModeNormal or ModeWakeUp", currentMode)
	}
	return nil
}

func (obj *Module) SendMessage(message string) error {
	if err := obj.checkSendMode(); err != nil {
		return err
	}
	err := obj.hw.WriteSerial([]byte(message))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (obj *Module) SendFixedMessage(addressHigh byte, addressLow byte, channel Channel, message string) error {
	if err := obj.checkSendMode(); err != nil {
		return err
	}
	if !obj.fixed.Load() {
		return fmt.Errorf("can't send fixed message while module has TRANSMISSION_TRANSPARENT setup, reconfigure module to TRANSMISSION_FIXED mode")
	}
	msgBytes := []byte{addressHigh, addressLow, byte(channel)}
	msgBytes = append(msgBytes, []byte(message)...)

	err := obj.hw.WriteSerial(msgBytes)
	if err != nil {
		return fmt.Errorf("failed to send fixed message: %w", err)
	}
	return nil
}
