package tray

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIconEncodes(t *testing.T) {
	data := Icon(true)
	require.NotEmpty(t, data)
	if runtime.GOOS == "windows" {
		require.Greater(t, len(data), 22)
		data = data[22:]
	}
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, iconSize, img.Bounds().Dx())
	assert.Equal(t, iconSize, img.Bounds().Dy())
}

func TestIconReflectsState(t *testing.T) {
	assert.NotEqual(t, Icon(true), Icon(false))
	on := drawIcon(true)
	off := drawIcon(false)
	assert.Equal(t, iconAccent, on.NRGBAAt(15, 15))
	assert.Equal(t, iconMuted, off.NRGBAAt(15, 15))
	assert.Equal(t, uint8(0), on.NRGBAAt(0, 0).A)
}

func TestWrapICO(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	ico := wrapICO(payload, 32)
	require.Len(t, ico, 22+len(payload))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(ico[2:4]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(ico[4:6]))
	assert.Equal(t, uint8(32), ico[6])
	assert.Equal(t, uint32(len(payload)), binary.LittleEndian.Uint32(ico[14:18]))
	assert.Equal(t, uint32(22), binary.LittleEndian.Uint32(ico[18:22]))
	assert.Equal(t, payload, ico[22:])
}

func TestTooltip(t *testing.T) {
	assert.Equal(t, "App", tooltip("App", ""))
	assert.Equal(t, "App: Saved", tooltip("App", "Saved"))
}
