package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	serial "github.com/allbin/go-serialterm"
)

func TestParseSignalState(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"high", true, false},
		{"ON", true, false},
		{"1", true, false},
		{"low", false, false},
		{"false", false, false},
		{"maybe", false, true},
	}

	for _, tt := range tests {
		got, err := parseSignalState(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSignalState(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseSignalState(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func testInfos() []*serial.PortInfo {
	return []*serial.PortInfo{
		{Name: "ttyACM0", Path: "/dev/ttyACM0", Description: "USB CDC/ACM Device", VendorID: "2341", ProductID: "0043"},
		{Name: "ttyAMA0", Path: "/dev/ttyAMA0", Description: "ARM Serial Port"},
		{Name: "ttyS0", Path: "/dev/ttyS0", Description: "Standard Serial Port"},
		{Name: "ttySAC1", Path: "/dev/ttySAC1", Description: "Samsung Serial Port"},
		{Name: "ttyUSB0", Path: "/dev/ttyUSB0", Description: "USB Serial Port"},
	}
}

func TestFilterPorts(t *testing.T) {
	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"/dev/ttyACM0", "/dev/ttyAMA0", "/dev/ttyS0", "/dev/ttySAC1", "/dev/ttyUSB0"}},
		{"all", []string{"/dev/ttyACM0", "/dev/ttyAMA0", "/dev/ttyS0", "/dev/ttySAC1", "/dev/ttyUSB0"}},
		{"usb", []string{"/dev/ttyACM0", "/dev/ttyUSB0"}},
		{"USB", []string{"/dev/ttyACM0", "/dev/ttyUSB0"}},
		{"standard", []string{"/dev/ttyS0"}},
		{"arm", []string{"/dev/ttyAMA0"}},
	}

	for _, tt := range tests {
		var got []string
		for _, info := range filterPorts(testInfos(), tt.filter) {
			got = append(got, info.Path)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("filterPorts(%q) = %v, want %v", tt.filter, got, tt.want)
		}
	}

	if validFilter("bluetooth") {
		t.Error("validFilter(bluetooth) = true, want false")
	}
}

func TestRenderSimple(t *testing.T) {
	var buf bytes.Buffer
	renderSimple(&buf, testInfos()[:2])
	if got, want := buf.String(), "/dev/ttyACM0\n/dev/ttyAMA0\n"; got != want {
		t.Errorf("renderSimple() = %q, want %q", got, want)
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, testInfos())

	out := buf.String()
	for _, want := range []string{"Found 5 serial port(s)", "/dev/ttyUSB0", "2341:0043", "Description"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderTable() missing %q", want)
		}
	}
}

func TestPrintPortInfo(t *testing.T) {
	var buf bytes.Buffer
	printPortInfo(&buf, testInfos()[0])
	out := buf.String()

	for _, want := range []string{"/dev/ttyACM0", "USB Device Information", "2341", "0043"} {
		if !strings.Contains(out, want) {
			t.Errorf("printPortInfo() missing %q", want)
		}
	}

	buf.Reset()
	printPortInfo(&buf, testInfos()[2])
	if strings.Contains(buf.String(), "USB Device Information") {
		t.Error("printPortInfo() shows a USB section for ttyS0")
	}
}

func TestPrintSignals(t *testing.T) {
	var buf bytes.Buffer
	printSignals(&buf, "/dev/ttyUSB0", serial.ModemSignals{CTS: true})
	out := buf.String()

	if strings.Count(out, "HIGH") != 1 || strings.Count(out, "LOW") != 5 {
		t.Errorf("printSignals() = %q, want one HIGH and five LOW", out)
	}
}

func TestOpenPortRetriesUntilTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyUSB9")

	start := time.Now()
	_, err := openPort(context.Background(), path, 300*time.Millisecond, nil)
	if !errors.Is(err, serial.ErrDeviceNotFound) {
		t.Fatalf("openPort() error = %v, want ErrDeviceNotFound", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("openPort() gave up after %v without retrying", elapsed)
	}
}

func TestOpenPortSingleAttempt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyUSB9")

	start := time.Now()
	_, err := openPort(context.Background(), path, 0, nil)
	if !errors.Is(err, serial.ErrDeviceNotFound) {
		t.Fatalf("openPort() error = %v, want ErrDeviceNotFound", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("openPort() without timeout took %v", elapsed)
	}
}

func TestOpenPortCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := openPort(ctx, filepath.Join(t.TempDir(), "ttyUSB9"), time.Minute, nil)
	if err == nil {
		t.Fatal("openPort() with cancelled context succeeded")
	}
}

func TestOpenPortPermanentError(t *testing.T) {
	// a regular file is not a tty, so configuring it fails at once
	path := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	_, err := openPort(context.Background(), path, time.Minute, nil)
	if err == nil {
		t.Fatal("openPort() on a regular file succeeded")
	}
	if time.Since(start) > time.Second {
		t.Error("openPort() retried a permanent error")
	}
}
