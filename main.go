// Command regmap reads a TMP117 temperature sensor on a Linux SMBus adapter
// and prints its registers as YAML.
//
//	regmap [-bus N] [-addr ADDR] [-id] [-v] [snapshot|temperature|config]
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
	"gopkg.in/yaml.v3"

	"github.com/mbalug7/go-regmap/pkg/hal"
	"github.com/mbalug7/go-regmap/pkg/tmp117"
	"github.com/mbalug7/go-regmap/pkg/transports"
)

const usage = "regmap [-bus N] [-addr ADDR] [-id] [-v] [snapshot|temperature|config]"

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flag, args := flags.New(args, "-id", "-v")
	parm, args := parms.New(args, "-bus", "-addr")

	bus := 1
	if s := parm.ByName["-bus"]; len(s) > 0 {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid -bus %q: %w", s, err)
		}
		bus = n
	}
	addr := tmp117.Address
	if s := parm.ByName["-addr"]; len(s) > 0 {
		n, err := strconv.ParseUint(s, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid -addr %q: %w", s, err)
		}
		addr = hal.BusAddress(n)
	}
	command := "snapshot"
	switch len(args) {
	case 0:
	case 1:
		command = args[0]
	default:
		return fmt.Errorf("usage: %s", usage)
	}
	switch command {
	case "snapshot", "temperature", "config":
	default:
		return fmt.Errorf("unknown command %q, usage: %s", command, usage)
	}

	var opts []hal.Option
	if flag.ByName["-v"] {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, hal.WithLogger(logger))
	}
	sensor := tmp117.New(transports.NewSMBus(bus), addr, opts...)
	defer sensor.Close()

	if flag.ByName["-id"] {
		if _, err := sensor.CheckID(); err != nil {
			return err
		}
	}

	var out any
	var err error
	switch command {
	case "snapshot":
		out, err = sensor.Snapshot()
	case "temperature":
		out, err = sensor.Temperature()
	case "config":
		out, err = sensor.Config()
	}
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(out)
}
