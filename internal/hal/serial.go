package hal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"thermal_guard/internal/config"
	"thermal_guard/internal/logger"
)

const (
	defaultBaudRate  = 250000
	serialFrameBuf   = 64
	pwmFullScale     = 255
	serialLineAnalog = "A"
	serialLineDigit  = "D"
)

// SerialBoard talks to an MCU streaming readings as text lines:
//
//	A,<unix_micros>,<pin>:<raw>,<pin>:<raw>...
//	D,<unix_micros>,<pin>:<0|1>,...
//
// and accepts heater commands "P<pin>:<0..255>\n".
type SerialBoard struct {
	conn    io.ReadWriteCloser
	log     *logger.Logger
	latest  *latest
	outputs *outputQueue
	wmu     sync.Mutex

	closeOnce sync.Once
	readDone  chan struct{}
}

// OpenSerial opens the port from cfg and starts the reader.
func OpenSerial(cfg config.SerialConfig, log *logger.Logger) (*SerialBoard, error) {
	baud := cfg.Baud
	if baud == 0 {
		baud = defaultBaudRate
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	return newSerialBoard(port, cfg.Stale, log), nil
}

// SerialPorts lists the ports the OS reports.
func SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

func newSerialBoard(conn io.ReadWriteCloser, stale time.Duration, log *logger.Logger) *SerialBoard {
	b := &SerialBoard{
		conn:     conn,
		log:      log,
		latest:   newLatest(serialFrameBuf, stale),
		readDone: make(chan struct{}),
	}
	b.outputs = newOutputQueue(b.writeDuties, func(err error) {
		b.log.Errorw("serial_write_failed", "err", err)
	})
	go b.readLines()
	return b
}

func (b *SerialBoard) ReadAnalog(ctx context.Context, pin int) (float64, error) {
	return b.latest.readAnalog(ctx, pin)
}

func (b *SerialBoard) ReadDigital(ctx context.Context, pin int) (bool, error) {
	return b.latest.readDigital(ctx, pin)
}

func (b *SerialBoard) SetPWM(pin int, duty float64) error {
	return b.outputs.set(pin, duty)
}

// Close flushes pending heater commands and closes the port.
func (b *SerialBoard) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.outputs.close()
		err = b.conn.Close()
		<-b.readDone
	})
	return err
}

func (b *SerialBoard) writeDuties(batch map[int]float64) error {
	pins := make([]int, 0, len(batch))
	for pin := range batch {
		pins = append(pins, pin)
	}
	sort.Ints(pins)

	var cmd strings.Builder
	for _, pin := range pins {
		fmt.Fprintf(&cmd, "P%d:%d\n", pin, int(batch[pin]*pwmFullScale+0.5))
	}
	b.wmu.Lock()
	defer b.wmu.Unlock()
	if _, err := io.WriteString(b.conn, cmd.String()); err != nil {
		return fmt.Errorf("failed to send heater command: %w", err)
	}
	return nil
}

func (b *SerialBoard) readLines() {
	defer close(b.readDone)
	defer close(b.latest.frames)

	scanner := bufio.NewScanner(b.conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		f, err := parseSerialLine(line, time.Now())
		if err != nil {
			b.log.Warnw("serial_parse_failed", "line", line, "err", err)
			continue
		}
		b.latest.publish(f)
	}
	if err := scanner.Err(); err != nil {
		b.log.Warnw("serial_read_stopped", "err", err)
	}
}

// parseSerialLine decodes one MCU line. received stamps the frame; the
// MCU clock is only validated, since it is not synchronised with ours.
func parseSerialLine(line string, received time.Time) (frame, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return frame{}, fmt.Errorf("invalid line format: expected at least 3 fields, got %d", len(parts))
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return frame{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	f := frame{at: received}
	switch parts[0] {
	case serialLineAnalog:
		f.analog = make(map[int]float64, len(parts)-2)
	case serialLineDigit:
		f.digital = make(map[int]bool, len(parts)-2)
	default:
		return frame{}, fmt.Errorf("unknown line type %q", parts[0])
	}
	for _, field := range parts[2:] {
		pinStr, valStr, ok := strings.Cut(field, ":")
		if !ok {
			return frame{}, fmt.Errorf("invalid field %q", field)
		}
		pin, err := strconv.Atoi(pinStr)
		if err != nil {
			return frame{}, fmt.Errorf("invalid pin %q: %w", pinStr, err)
		}
		if f.analog != nil {
			v, err := strconv.ParseFloat(valStr, 64)
			if err != nil {
				return frame{}, fmt.Errorf("invalid reading on pin %d: %w", pin, err)
			}
			f.analog[pin] = v
			continue
		}
		switch valStr {
		case "0":
			f.digital[pin] = false
		case "1":
			f.digital[pin] = true
		default:
			return frame{}, fmt.Errorf("invalid level %q on pin %d", valStr, pin)
		}
	}
	return f, nil
}
