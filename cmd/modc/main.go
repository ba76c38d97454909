// modc pokes single registers on the Ecodan interface unit, for bring-up
// and for checking the register map against a live pump.
//
//	modc -addr 10.0.0.5:502 -inputreg 5              tank temperature
//	modc -addr 10.0.0.5:502 -holdingreg 30           CWU mode
//	modc -addr 10.0.0.5:502 -holdingreg 32 -value 4800
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/goburrow/modbus"

	"github.com/cwuctl/controller/pkg/modbusclient"
)

var (
	address    = flag.String("addr", "127.0.0.1:502", "ecodan interface unit tcp address")
	slaveID    = flag.Int("slave", 1, "modbus slave id")
	inputreg   = flag.Int("inputreg", 5, "input register (5=tank 6=flow 7=return 11=outdoor 25=dhw 26=hp 27=hc1)")
	holdingreg = flag.Int("holdingreg", 30, "holding register (30=cwu mode 31=floor mode 32=cwu target)")
	value      = flag.Int("value", 0, "raw value to write to the holding register (cwu target is scale 100)")
	count      = flag.Uint("count", 1, "how many consecutive registers to read")
)

func main() {
	flag.Parse()

	handler := modbus.NewTCPClientHandler(*address)
	handler.SlaveId = byte(*slaveID)
	defer handler.Close()
	client := modbus.NewClient(handler)

	var raw []byte
	var err error
	switch {
	case isFlagPassed("inputreg"):
		raw, err = client.ReadInputRegisters(uint16(*inputreg), uint16(*count))
	case isFlagPassed("holdingreg") && isFlagPassed("value"):
		raw, err = client.WriteSingleRegister(uint16(*holdingreg), uint16(*value))
	case isFlagPassed("holdingreg"):
		raw, err = client.ReadHoldingRegisters(uint16(*holdingreg), uint16(*count))
	default:
		flag.Usage()
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("raw response: %# x (length: %d)\n", raw, len(raw))
	if *count == 1 && len(raw) == 2 {
		v := modbusclient.Decode(raw)
		// the interface unit keeps temperatures as int16 scale 100
		fmt.Printf("value: %d (scale 100: %.2f)\n", v, float64(v)/100.0)
	}
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
