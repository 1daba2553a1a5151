package telemetry

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/zeusync/galaxy/internal/core/system"
	"github.com/zeusync/galaxy/pkg/encoding"
)

// MaxFrameSize bounds a length prefixed frame read from the wire.
const MaxFrameSize = 64 << 20

var _ encoding.Serializable[Frame] = (*Frame)(nil)

// BodyState is the wire form of one body.
type BodyState struct {
	ID     string  `json:"id"`
	Mass   float64 `json:"mass"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
}

// Frame is the state of every body after a step.
type Frame struct {
	Step   uint64      `json:"step"`
	Time   float64     `json:"time"`
	Bodies []BodyState `json:"bodies"`
}

func FrameFromSnapshots(step uint64, t float64, snaps []system.Snapshot) *Frame {
	f := &Frame{Step: step, Time: t, Bodies: make([]BodyState, len(snaps))}
	for i, s := range snaps {
		f.Bodies[i] = BodyState{
			ID:     s.ID,
			Mass:   s.Mass,
			X:      s.Position.Xv,
			Y:      s.Position.Yv,
			VX:     s.Velocity.Xv,
			VY:     s.Velocity.Yv,
			Radius: s.Radius,
			Color:  s.Color.Hex(),
		}
	}
	return f
}

func (f *Frame) Serialize() ([]byte, error) {
	return json.Marshal(f)
}

func (f *Frame) Deserialize(data []byte) error {
	return json.Unmarshal(data, f)
}

// WriteFrame writes payload with a 4 byte big endian length prefix.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return errors.Wrapf(ErrFrameTooLarge, "%d bytes", len(payload))
	}
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one length prefixed frame written by WriteFrame.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > MaxFrameSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d bytes", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.Wrap(err, "read frame payload")
	}

	f := &Frame{}
	if err := f.Deserialize(payload); err != nil {
		return nil, errors.Wrap(err, "decode frame")
	}
	return f, nil
}
