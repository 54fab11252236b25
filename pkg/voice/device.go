package voice

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// InputDevice selects the capture device and sample format.
type InputDevice struct {
	Name       string // ALSA PCM name, e.g. hw:2,0
	SampleRate int
	Format     string // arecord -f value, e.g. S16_LE
	Channels   int
}

// DefaultDeviceName is the ALSA fallback used when the preferred device is absent.
const DefaultDeviceName = "default"

// DefaultInputDevice is the USB microphone the terminal ships with.
func DefaultInputDevice() InputDevice {
	return InputDevice{
		Name:       "hw:2,0",
		SampleRate: 48000,
		Format:     "S16_LE",
		Channels:   1,
	}
}

func (d InputDevice) String() string {
	return fmt.Sprintf("%s (%s, %d Hz, %dch)", d.Name, d.Format, d.SampleRate, d.Channels)
}

// SinkBluetooth asks for the first Bluetooth sink PulseAudio knows about.
const SinkBluetooth = "bluetooth"

// OutputSelector selects the playback sink. An empty Sink means the system
// default; SinkBluetooth means auto-detect; anything else is a sink name.
type OutputSelector struct {
	Sink string
}

var hwPattern = regexp.MustCompile(`^(?:plug)?hw:(\d+),(\d+)$`)

var cardPattern = regexp.MustCompile(`^card (\d+):.*device (\d+):`)

// parseCaptureCards parses `arecord -l` output into "card,device" keys.
func parseCaptureCards(out string) map[string]bool {
	cards := make(map[string]bool)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		if m := cardPattern.FindStringSubmatch(sc.Text()); m != nil {
			cards[m[1]+","+m[2]] = true
		}
	}
	return cards
}

// parsePCMNames parses `arecord -L` output: names are the unindented lines.
func parsePCMNames(out string) map[string]bool {
	names := make(map[string]bool)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		names[strings.TrimSpace(line)] = true
	}
	return names
}

// ResolveInput checks that the preferred capture device exists and falls
// back to the ALSA default device when it does not. The second return value
// reports whether the fallback was taken. When the device list cannot be
// read the preferred device is kept unverified.
func ResolveInput(ctx context.Context, r Runner, dev InputDevice) (InputDevice, bool) {
	if dev.Name == "" || dev.Name == DefaultDeviceName {
		dev.Name = DefaultDeviceName
		return dev, false
	}

	var present bool
	if m := hwPattern.FindStringSubmatch(dev.Name); m != nil {
		out, _, err := r.Run(ctx, "arecord", "-l")
		if err != nil {
			return dev, false
		}
		present = parseCaptureCards(out)[m[1]+","+m[2]]
	} else {
		out, _, err := r.Run(ctx, "arecord", "-L")
		if err != nil {
			return dev, false
		}
		present = parsePCMNames(out)[dev.Name]
	}
	if present {
		return dev, false
	}

	slog.Warn("capture device not found, using default", "device", dev.Name)
	dev.Name = DefaultDeviceName
	return dev, true
}

// Sink is one line of `pactl list short sinks`.
type Sink struct {
	Index  string
	Name   string
	Driver string
}

// parseSinks parses tab-separated `pactl list short sinks` output.
func parseSinks(out string) []Sink {
	var sinks []Sink
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.Split(sc.Text(), "\t")
		if len(parts) < 2 {
			continue
		}
		s := Sink{Index: parts[0], Name: parts[1]}
		if len(parts) > 2 {
			s.Driver = parts[2]
		}
		sinks = append(sinks, s)
	}
	return sinks
}

// ListSinks returns the PulseAudio/PipeWire sinks.
func ListSinks(ctx context.Context, r Runner) ([]Sink, error) {
	out, stderr, err := r.Run(ctx, "pactl", "list", "short", "sinks")
	if err != nil {
		return nil, fmt.Errorf("pactl list sinks: %w: %s", err, strings.TrimSpace(stderr))
	}
	return parseSinks(out), nil
}

// DetectBluetoothSink returns the first bluez sink, or "" when none exists.
func DetectBluetoothSink(ctx context.Context, r Runner) string {
	sinks, err := ListSinks(ctx, r)
	if err != nil {
		return ""
	}
	for _, s := range sinks {
		if strings.Contains(strings.ToLower(s.Name), "bluez") {
			return s.Name
		}
	}
	return ""
}

// ResolveSink maps an output selector to a concrete sink name. An empty
// result means "use the default sink".
func ResolveSink(ctx context.Context, r Runner, sel OutputSelector) string {
	switch sel.Sink {
	case "":
		return ""
	case SinkBluetooth:
		return DetectBluetoothSink(ctx, r)
	}
	sinks, err := ListSinks(ctx, r)
	if err != nil {
		return ""
	}
	for _, s := range sinks {
		if s.Name == sel.Sink {
			return s.Name
		}
	}
	slog.Warn("output sink not found, using default", "sink", sel.Sink)
	return ""
}
