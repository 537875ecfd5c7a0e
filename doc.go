// Package serial provides serial port access for Linux: opening and configuring
// a tty over termios, changing the line speed of an open port, modem signal
// control, and port discovery with USB metadata from sysfs.
//
// # Basic Usage
//
// Open a serial port with default configuration (115200 8N1, no flow control):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	n, err := port.Write([]byte("Hello"))
//	buffer := make([]byte, 256)
//	n, err = port.Read(buffer)
//
// # Configuration Options
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(9600),
//	    serial.WithParity(serial.ParityEven),
//	    serial.WithFlowControl(serial.FlowControlXONXOFF),
//	    serial.WithReadTimeout(100*time.Millisecond),
//	    serial.WithInitialDTR(true),
//	)
//
// The read timeout maps onto VTIME, so it must be a multiple of 100ms. A read
// that waits out the timeout without data returns ErrReadTimeout.
//
// The line speed can be changed while the port is open:
//
//	err = port.SetBaudRate(57600)
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s Serial=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID, info.SerialNumber)
//	}
//
// # Modem Signals
//
//	signals, err := port.GetModemSignals()
//	fmt.Printf("CTS=%v DSR=%v DCD=%v RI=%v\n",
//	    signals.CTS, signals.DSR, signals.DCD, signals.RI)
//
//	err = port.SetRTS(true)
//	err = port.SetDTR(false)
//
// # Error Handling
//
// Errors wrap the package sentinels and are checked with errors.Is:
//
//	n, err := port.Read(buf)
//	switch {
//	case errors.Is(err, serial.ErrReadTimeout):
//	    // nothing arrived, try again
//	case serial.IsFatal(err):
//	    // device unplugged or port closed
//	}
package serial
