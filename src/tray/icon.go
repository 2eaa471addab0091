package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

var (
	iconFill   = color.NRGBA{R: 0x1f, G: 0x2a, B: 0x44, A: 0xff}
	iconAccent = color.NRGBA{R: 0x4c, G: 0xc2, B: 0xff, A: 0xff}
	iconMuted  = color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

// Icon returns the tray icon in the format the platform tray expects: ICO on
// windows, PNG elsewhere. A disabled icon draws the selection bar grey.
func Icon(enabled bool) []byte {
	img := drawIcon(enabled)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		return wrapICO(buf.Bytes(), iconSize)
	}
	return buf.Bytes()
}

// drawIcon paints a rounded badge with a text-selection bar across it.
func drawIcon(enabled bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	accent := iconAccent
	if !enabled {
		accent = iconMuted
	}
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			if cornerCut(x, y) {
				continue
			}
			img.SetNRGBA(x, y, iconFill)
		}
	}
	for y := 13; y < 19; y++ {
		for x := 6; x < 26; x++ {
			img.SetNRGBA(x, y, accent)
		}
	}
	for y := 9; y < 23; y++ {
		img.SetNRGBA(5, y, accent)
		img.SetNRGBA(26, y, accent)
	}
	return img
}

func cornerCut(x, y int) bool {
	const r = 5
	cx, cy := -1, -1
	switch {
	case x < r && y < r:
		cx, cy = r, r
	case x >= iconSize-r && y < r:
		cx, cy = iconSize-r-1, r
	case x < r && y >= iconSize-r:
		cx, cy = r, iconSize-r-1
	case x >= iconSize-r && y >= iconSize-r:
		cx, cy = iconSize-r-1, iconSize-r-1
	default:
		return false
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy > r*r
}

// wrapICO embeds a PNG image in a single-entry ICO container.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	header := struct {
		Reserved, Type, Count uint16
	}{0, 1, 1}
	entry := struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{
		Width:    uint8(size),
		Height:   uint8(size),
		Planes:   1,
		BitCount: 32,
		Size:     uint32(len(pngData)),
		Offset:   6 + 16,
	}
	_ = binary.Write(&buf, binary.LittleEndian, header)
	_ = binary.Write(&buf, binary.LittleEndian, entry)
	buf.Write(pngData)
	return buf.Bytes()
}
