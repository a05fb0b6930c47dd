package rangefinder

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// mmWave radar frame delimiters (LD2410 basic reporting mode).
var (
	frameHeader  = []byte{0xF4, 0xF3, 0xF2, 0xF1}
	frameTrailer = []byte{0xF8, 0xF7, 0xF6, 0xF5}
)

const (
	dataTypeBasic  = 0x02
	targetDataHead = 0xAA
	targetDataTail = 0x55

	// basicPayloadLen covers type, head, state, two distance/energy
	// pairs, detection distance, tail and check byte.
	basicPayloadLen = 13
)

var (
	ErrNoHeader   = errors.New("rangefinder: frame header not found")
	ErrShortFrame = errors.New("rangefinder: frame too short")
	ErrBadFrame   = errors.New("rangefinder: malformed target data")
)

// Reading is one parsed basic-mode radar report. Distances are in
// centimeters.
type Reading struct {
	TargetState  byte
	MovingDist   int
	MovingEnergy byte
	StaticDist   int
	StaticEnergy byte

	// Distance is the sensor's fused detection distance, the value the
	// gate pipeline consumes.
	Distance int
}

// parseBasicFrame extracts a Reading from one radar frame (trailer
// already stripped by the scanner). Garbage before the header is
// skipped, matching the sensor's habit of interleaving ASCII debug
// output with binary frames.
func parseBasicFrame(frame []byte) (*Reading, error) {
	start := bytes.Index(frame, frameHeader)
	if start < 0 {
		return nil, ErrNoHeader
	}
	body := frame[start+len(frameHeader):]

	if len(body) < 2 {
		return nil, ErrShortFrame
	}
	payloadLen := int(binary.LittleEndian.Uint16(body[:2]))
	body = body[2:]
	if payloadLen < basicPayloadLen || len(body) < basicPayloadLen {
		return nil, ErrShortFrame
	}

	if body[0] != dataTypeBasic || body[1] != targetDataHead {
		return nil, ErrBadFrame
	}
	if body[11] != targetDataTail {
		return nil, ErrBadFrame
	}

	return &Reading{
		TargetState:  body[2],
		MovingDist:   int(binary.LittleEndian.Uint16(body[3:5])),
		MovingEnergy: body[5],
		StaticDist:   int(binary.LittleEndian.Uint16(body[6:8])),
		StaticEnergy: body[8],
		Distance:     int(binary.LittleEndian.Uint16(body[9:11])),
	}, nil
}

// splitFrames is a bufio.SplitFunc that yields one radar frame per
// token, delimited by the frame trailer.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, frameTrailer); i >= 0 {
		return i + len(frameTrailer), data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
