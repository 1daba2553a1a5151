package telemetry

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/galaxy/internal/core/system"
	"github.com/zeusync/galaxy/internal/core/systems/physics"
)

func testFrame() *Frame {
	return FrameFromSnapshots(7, 0.35, []system.Snapshot{
		{
			ID:       "a",
			Mass:     2,
			Position: physics.V2(1, -2),
			Velocity: physics.V2(0.5, 0),
			Radius:   0.3,
			Color:    physics.RGB32{R: 255, G: 16},
		},
		{ID: "b", Mass: 1},
	})
}

func TestFrameFromSnapshots(t *testing.T) {
	f := testFrame()

	assert.Equal(t, uint64(7), f.Step)
	assert.Equal(t, 0.35, f.Time)
	require.Len(t, f.Bodies, 2)
	assert.Equal(t, BodyState{
		ID: "a", Mass: 2, X: 1, Y: -2, VX: 0.5, VY: 0, Radius: 0.3, Color: "#ff1000",
	}, f.Bodies[0])
	assert.Equal(t, "#000000", f.Bodies[1].Color)
}

func TestFrameSerialize(t *testing.T) {
	data, err := testFrame().Serialize()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"color":"#ff1000"`)

	var got Frame
	require.NoError(t, got.Deserialize(data))
	assert.Equal(t, *testFrame(), got)

	assert.Error(t, got.Deserialize([]byte("{")))
}

func TestWriteReadFrame(t *testing.T) {
	payload, err := testFrame().Serialize()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, payload))
	require.NoError(t, WriteFrame(&buf, payload))
	assert.Equal(t, uint32(len(payload)), binary.BigEndian.Uint32(buf.Bytes()[:4]))

	for i := 0; i < 2; i++ {
		f, err := ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, testFrame(), f)
	}

	_, err = ReadFrame(&buf)
	assert.Error(t, err)
}

func TestReadFrame_TooLarge(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)

	_, err := ReadFrame(bytes.NewReader(header[:]))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}
