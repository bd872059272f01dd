package e22

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"

	"github.com/mbalug7/go-regmap/pkg/hal"
)

func newTestModule(t *testing.T, hw *fakeHW, cb OnMessageCb) *Module {
	t.Helper()
	m, err := NewModule(hw, cb, WithSettleTime(0))
	require.NoError(t, err)
	hw.commands = nil
	hw.modes = nil
	return m
}

func TestNewModuleStagesSerialPort(t *testing.T) {
	hw := newFakeHW()
	hw.regs[REG0] = 0xF2 // 115200 8E1
	_, err := NewModule(hw, nil, WithSettleTime(0))
	require.NoError(t, err)

	assert.Equal(t, 115200, hw.baud)
	assert.Equal(t, serial.ParityEven, hw.parity)
	assert.Equal(t, hal.ModeNormal, hw.mode)
	assert.NotNil(t, hw.cb)
}

func TestNewModuleCallbackAlreadyRegistered(t *testing.T) {
	hw := newFakeHW()
	hw.cb = func([]byte, error) {}
	_, err := NewModule(hw, nil, WithSettleTime(0))
	assert.Error(t, err)
}

func TestConfiguration(t *testing.T) {
	hw := newFakeHW()
	hw.regs[ADD_H] = 0x12
	hw.regs[ADD_L] = 0x34
	hw.regs[REG1] = 0x21
	m := newTestModule(t, hw, nil)

	cfg, err := m.Configuration()
	require.NoError(t, err)
	assert.Equal(t, Config{
		Address:      0x1234,
		Serial:       SerialConfig{BaudRate: BAUD_9600, Parity: PARITY_8N1, AirDataRate: ADR_2400},
		Radio:        RadioConfig{SubPacket: BYTES_200, AmbientNoiseRSSI: RSSI_AMBIENT_NOISE_ENABLE, Power: TP_17_DBM},
		Channel:      23,
		Transmission: TransmissionConfig{WOR: WOR_2000_MS},
	}, cfg)
	assert.Len(t, hw.commands, 5)
}

func TestWriteConfigUnchanged(t *testing.T) {
	hw := newFakeHW()
	m := newTestModule(t, hw, nil)

	cfg, err := m.Configuration()
	require.NoError(t, err)
	hw.commands = nil

	assert.ErrorIs(t, m.WriteConfig(cfg, false), ErrConfigUnchanged)
	for _, cmd := range hw.commands {
		assert.Equal(t, cmdGetReg, cmd[0])
	}
}

func TestWriteConfigOnlyChangedRegisters(t *testing.T) {
	hw := newFakeHW()
	m := newTestModule(t, hw, nil)

	cfg, err := m.Configuration()
	require.NoError(t, err)
	cfg.Channel = 40
	hw.commands = nil

	require.NoError(t, m.WriteConfig(cfg, true))
	var writes [][]byte
	for _, cmd := range hw.commands {
		if cmd[0] != cmdGetReg {
			writes = append(writes, cmd)
		}
	}
	assert.Equal(t, [][]byte{{cmdSetRegTemporary, byte(REG2), 0x01, 40}}, writes)
	assert.Equal(t, byte(40), hw.regs[REG2])
}

func TestWriteConfigRejectsInvalidChannel(t *testing.T) {
	hw := newFakeHW()
	m := newTestModule(t, hw, nil)

	err := m.WriteConfig(Config{Channel: 81}, false)
	assert.Error(t, err)
	assert.Empty(t, hw.commands)
}

func TestWriteConfigRestagesSerialPort(t *testing.T) {
	hw := newFakeHW()
	m := newTestModule(t, hw, nil)

	cfg, err := m.Configuration()
	require.NoError(t, err)
	cfg.Serial.BaudRate = BAUD_19200
	cfg.Serial.Parity = PARITY_8O1
	require.NoError(t, m.WriteConfig(cfg, false))

	assert.Equal(t, 19200, hw.baud)
	assert.Equal(t, serial.ParityOdd, hw.parity)
}

func TestConfigBuilder(t *testing.T) {
	hw := newFakeHW()
	m := newTestModule(t, hw, nil)

	b := NewConfigBuilder(m).
		Address(0, 3).
		Channel(120).
		RSSIState(RSSI_ENABLE).
		TransmissionMethod(TRANSMISSION_FIXED)
	assert.Equal(t, MaxChannel, b.Staged().Channel)
	require.NoError(t, b.WritePermanentConfig())

	cfg, err := m.Configuration()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0003), cfg.Address)
	assert.Equal(t, MaxChannel, cfg.Channel)
	assert.Equal(t, RSSI_ENABLE, cfg.Transmission.RSSI)
	assert.Equal(t, TRANSMISSION_FIXED, cfg.Transmission.Method)
	assert.Equal(t, WOR_2000_MS, cfg.Transmission.WOR, "untouched fields are preserved")
}

func TestConfigBuilderCryptOnly(t *testing.T) {
	hw := newFakeHW()
	m := newTestModule(t, hw, nil)

	require.NoError(t, NewConfigBuilder(m).Crypt(0x12, 0x34).WriteTemporaryConfig())
	last := hw.commands[len(hw.commands)-1]
	assert.Equal(t, []byte{cmdSetRegTemporary, byte(CRYPT_H), 0x02, 0x12, 0x34}, last)
}

func TestConfigBuilderNothingToWrite(t *testing.T) {
	hw := newFakeHW()
	m := newTestModule(t, hw, nil)
	assert.ErrorIs(t, NewConfigBuilder(m).WritePermanentConfig(), ErrConfigUnchanged)
}

func TestOnMessage(t *testing.T) {
	hw := newFakeHW()
	hw.regs[REG3] = 0x80
	var got []Message
	var errs []error
	newTestModule(t, hw, func(msg Message, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		got = append(got, msg)
	})

	hw.cb([]byte("hi\xa0"), nil)
	hw.cb(nil, io.EOF)
	hw.cb([]byte{0x01}, nil)

	assert.Equal(t, []Message{{Payload: []byte("hi"), RSSI: 0xa0}}, got)
	assert.Len(t, errs, 1)
}

func TestOnMessageWithoutRSSI(t *testing.T) {
	hw := newFakeHW()
	var got []Message
	newTestModule(t, hw, func(msg Message, err error) {
		require.NoError(t, err)
		got = append(got, msg)
	})

	hw.cb([]byte("hi"), nil)
	assert.Equal(t, []Message{{Payload: []byte("hi")}}, got)
}

func TestSendMessage(t *testing.T) {
	hw := newFakeHW()
	m := newTestModule(t, hw, nil)

	require.NoError(t, m.SendMessage("ASTATUS"))
	assert.Equal(t, [][]byte{[]byte("ASTATUS")}, hw.sent)

	hw.mode = hal.ModeSleep
	assert.Error(t, m.SendMessage("ASTATUS"))
}

func TestSendFixedMessage(t *testing.T) {
	hw := newFakeHW()
	m := newTestModule(t, hw, nil)

	assert.Error(t, m.SendFixedMessage(0, 3, 23, "hi"), "transparent module")

	require.NoError(t, NewConfigBuilder(m).TransmissionMethod(TRANSMISSION_FIXED).WritePermanentConfig())
	require.NoError(t, m.SendFixedMessage(0, 3, 23, "hi"))
	assert.Equal(t, []byte{0, 3, 23, 'h', 'i'}, hw.sent[len(hw.sent)-1])
}

func TestSetCryptKeyIsNotReadable(t *testing.T) {
	hw := newFakeHW()
	m := newTestModule(t, hw, nil)

	require.NoError(t, m.SetCryptKey(0xBEEF, false))
	assert.Equal(t, []byte{cmdSetRegPermanent, byte(CRYPT_H), 0x02, 0xBE, 0xEF}, hw.commands[0])
}
