/*
Package midi contains MIDI protocol constants and reference-counted MIDI
entities (devices and connectors) that are kept in reflist lists.
*/
package midi

// Status is a MIDI message status. Channel voice statuses occupy the high
// nibble of the status byte and are followed by a 4-bit channel number,
// system statuses use all eight bits.
type Status byte

// Channel voice messages.
const (
	// StatusNoteOff is sent when a note is released.
	StatusNoteOff Status = 0x8
	// StatusNoteOn is sent when a note is depressed.
	StatusNoteOn Status = 0x9
	// StatusPolyphonicKeyPressure is the per-key aftertouch.
	StatusPolyphonicKeyPressure Status = 0xa
	// StatusControlChange is sent when a controller value changes.
	StatusControlChange Status = 0xb
	// StatusProgramChange is sent when the patch number changes.
	StatusProgramChange Status = 0xc
	// StatusChannelPressure is the single greatest pressure value of all
	// depressed keys.
	StatusChannelPressure Status = 0xd
	// StatusPitchWheelChange reports pitch wheel position.
	StatusPitchWheelChange Status = 0xe
)

// System common messages.
const (
	StatusSystemExclusive      Status = 0xf0
	StatusTimeCodeQuarterFrame Status = 0xf1
	StatusSongPositionPointer  Status = 0xf2
	StatusSongSelect           Status = 0xf3
	StatusUndefined0           Status = 0xf4
	StatusUndefined1           Status = 0xf5
	StatusTuneRequest          Status = 0xf6
	StatusEndOfExclusive       Status = 0xf7
)

// System real-time messages.
const (
	StatusTimingClock   Status = 0xf8
	StatusUndefined2    Status = 0xf9
	StatusStart         Status = 0xfa
	StatusContinue      Status = 0xfb
	StatusStop          Status = 0xfc
	StatusUndefined3    Status = 0xfd
	StatusActiveSensing Status = 0xfe
	StatusReset         Status = 0xff
)

// IsChannelVoice checks whether s is one of the channel voice statuses.
func (s Status) IsChannelVoice() bool {
	return s >= StatusNoteOff && s <= StatusPitchWheelChange
}

// IsRealTime checks whether s is a system real-time status.
func (s Status) IsRealTime() bool {
	return s >= StatusTimingClock
}

// Channel is a MIDI channel number.
type Channel byte

// Channels.
const (
	Channel1 Channel = iota
	Channel2
	Channel3
	Channel4
	Channel5
	Channel6
	Channel7
	Channel8
	Channel9
	Channel10
	Channel11
	Channel12
	Channel13
	Channel14
	Channel15
	Channel16
	// ChannelBase is the base channel of a device.
	ChannelBase Channel = 0x10
	// ChannelAll addresses all channels.
	ChannelAll Channel = 0x1f
)

// Property identifies a message property.
type Property uint16

// Message properties.
const (
	PropStatus         Property = 0x00
	PropChannel        Property = 0x01
	PropKey            Property = 0x02
	PropVelocity       Property = 0x03
	PropPressure       Property = 0x04
	PropControl        Property = 0x05
	PropValue          Property = 0x06
	PropProgram        Property = 0x07
	PropValueLSB       Property = 0x08
	PropValueMSB       Property = 0x09
	PropManufacturerID Property = 0x0a
	PropSysexData      Property = 0x0b
	PropSysexSize      Property = 0x0c
	PropSysexFragment  Property = 0x0d
	PropTimeCodeType   Property = 0x0e
	PropNothing        Property = 0xff
)

// Boolean controller values.
const (
	On  byte = 0x7f
	Off byte = 0x00
)

// NibbleValue packs two nibbles into a byte.
func NibbleValue(h, l byte) byte {
	return h<<4 | l&0xf
}

// HighNibble returns the high nibble of b.
func HighNibble(b byte) byte {
	return b >> 4 & 0xf
}

// LowNibble returns the low nibble of b.
func LowNibble(b byte) byte {
	return b & 0xf
}

// LongValue combines two 7-bit values into a 14-bit one.
func LongValue(msb, lsb byte) uint16 {
	return uint16(msb&0x7f)<<7 | uint16(lsb&0x7f)
}

// LSB returns the least significant 7 bits of a 14-bit value.
func LSB(v uint16) byte {
	return byte(v & 0x7f)
}

// MSB returns the most significant 7 bits of a 14-bit value.
func MSB(v uint16) byte {
	return byte(v >> 7 & 0x7f)
}

// ExtendedManufacturerID marks manufacturer id as an extended one.
func ExtendedManufacturerID(v uint16) uint16 {
	return v | 0x80
}

// Bool converts controller value to On or Off.
func Bool(v byte) byte {
	if v >= 64 {
		return On
	}
	return Off
}
