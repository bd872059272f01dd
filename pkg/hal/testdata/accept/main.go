package main

import "github.com/mbalug7/go-regmap/pkg/hal"

type control struct{ hal.ReadWrite }

func (control) Address() hal.RegAddress  { return 0x01 }
func (control) Width() hal.Width         { return 1 }
func (control) Decode(raw hal.Raw) uint8 { return uint8(raw) }
func (control) Encode(v uint8) hal.Raw   { return hal.Raw(v) }

func main() {
	dev := hal.NewDevice(nil, 0x48)
	v, _ := hal.Read(dev, control{})
	_ = hal.Write(dev, control{}, v+1)
}
