package midiin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var (
	// ErrDeviceNotFound is returned when no MIDI input is available.
	ErrDeviceNotFound = errors.New("no MIDI devices found")
	// ErrInvalidSelection is returned for a device number out of range.
	ErrInvalidSelection = errors.New("invalid device selection")
)

// ParseSelection converts a 1-based answer into an index into n devices.
func ParseSelection(answer string, n int) (int, error) {
	num, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || num < 1 || num > n {
		return 0, fmt.Errorf("%w: %q not in range [1-%d]", ErrInvalidSelection, strings.TrimSpace(answer), n)
	}
	return num - 1, nil
}

// Choose picks one of names. A single device is selected without asking;
// otherwise the user is prompted on out until in yields a valid number.
func Choose(names []string, in io.Reader, out io.Writer) (int, error) {
	switch len(names) {
	case 0:
		return 0, ErrDeviceNotFound
	case 1:
		return 0, nil
	}

	fmt.Fprintln(out, "Found MIDI devices:")
	for i, name := range names {
		fmt.Fprintf(out, "%d. %s.\n", i+1, name)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nChoose a device by indicating its number as presented above: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("failed to read selection: %w", err)
			}
			return 0, fmt.Errorf("failed to read selection: %w", io.ErrUnexpectedEOF)
		}
		idx, err := ParseSelection(scanner.Text(), len(names))
		if err == nil {
			return idx, nil
		}
		fmt.Fprintf(out, "Please indicate a valid number in range [1-%d]\n", len(names))
	}
}

// Match returns the index of the first name containing pattern, compared
// case-insensitively.
func Match(names []string, pattern string) (int, bool) {
	if pattern == "" {
		return 0, false
	}
	pattern = strings.ToLower(pattern)
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), pattern) {
			return i, true
		}
	}
	return 0, false
}

// SelectPort lists the driver's input ports and picks one, preferring a
// port whose name contains preferred before falling back to Choose.
func SelectPort(preferred string, in io.Reader, out io.Writer, log zerolog.Logger) (drivers.In, error) {
	ports := gomidi.GetInPorts()
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	log.Debug().Strs("devices", names).Msg("MIDI inputs found")

	if idx, ok := Match(names, preferred); ok {
		log.Debug().Str("device", names[idx]).Str("pattern", preferred).Msg("Using preferred MIDI input")
		return ports[idx], nil
	}
	if preferred != "" {
		log.Warn().Str("pattern", preferred).Msg("Preferred MIDI input not found")
	}

	idx, err := Choose(names, in, out)
	if err != nil {
		return nil, err
	}
	return ports[idx], nil
}

// Listen opens port and feeds its messages into r. The returned function
// stops listening and closes the port.
func Listen(port drivers.In, r *Router, log zerolog.Logger) (func(), error) {
	name := port.String()
	if !port.IsOpen() {
		if err := port.Open(); err != nil {
			return nil, fmt.Errorf("open %q: %w", name, err)
		}
	}

	stop, err := gomidi.ListenTo(port, r.Handle, gomidi.HandleError(func(err error) {
		log.Warn().Err(err).Str("device", name).Msg("MIDI listener error")
	}))
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("listen %q: %w", name, err)
	}
	log.Info().Msgf("Using %s", name)

	return func() {
		stop()
		if err := port.Close(); err != nil {
			log.Warn().Err(err).Str("device", name).Msg("Failed to close MIDI input")
		}
	}, nil
}
