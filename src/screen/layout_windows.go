//go:build windows

package screen

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
)

type rect32 struct {
	Left, Top, Right, Bottom int32
}

type monitorInfo struct {
	CbSize    uint32
	RcMonitor rect32
	RcWork    rect32
	DwFlags   uint32
}

func (r rect32) toRect() Rect {
	return Rect{X: int(r.Left), Y: int(r.Top), Width: int(r.Right - r.Left), Height: int(r.Bottom - r.Top)}
}

// win32Layout reads per-monitor work areas with GetMonitorInfoW.
type win32Layout struct{}

func newPlatformLayout() Layout { return win32Layout{} }

var (
	enumMu       sync.Mutex
	enumResult   []Monitor
	enumCallback = windows.NewCallback(func(hmon, hdc, lprc, lparam uintptr) uintptr {
		var mi monitorInfo
		mi.CbSize = uint32(unsafe.Sizeof(mi))
		ret, _, _ := procGetMonitorInfoW.Call(hmon, uintptr(unsafe.Pointer(&mi)))
		if ret != 0 {
			enumResult = append(enumResult, Monitor{Bounds: mi.RcMonitor.toRect(), WorkArea: mi.RcWork.toRect()})
		}
		return 1
	})
)

func (win32Layout) Monitors() ([]Monitor, error) {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumResult = nil
	ret, _, err := procEnumDisplayMonitors.Call(0, 0, enumCallback, 0)
	if ret == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}
	if len(enumResult) == 0 {
		return nil, ErrNoDisplays
	}
	out := make([]Monitor, len(enumResult))
	copy(out, enumResult)
	return out, nil
}
