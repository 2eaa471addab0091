//go:build windows

package overlay

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"papermem-capture/src/screen"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
	"golang.org/x/time/rate"
)

const (
	wmRun            = win.WM_APP + 1
	wmMouseActivate  = 0x0021
	maNoActivate     = 3
	swShowNoActivate = 4
	wsExToolWindow   = 0x00000080
	wsExTransparent  = 0x00000020
	wsExLayered      = 0x00080000
	wsExNoActivate   = 0x08000000
	lwaAlpha         = 0x2
	overlayAlpha     = 235
	dismissWidth     = 22
	touchInterval    = 250 * time.Millisecond
)

var (
	user32                        = windows.NewLazySystemDLL("user32.dll")
	procSetLayeredWindowAttribute = user32.NewProc("SetLayeredWindowAttributes")

	// the window procedure is a package-level callback, so one native
	// surface exists per process
	createMu sync.Mutex
	activeMu sync.Mutex
	active   *nativeSurface
	wndProc  = syscall.NewCallback(overlayWndProc)
)

type nativeSurface struct {
	hwnd  win.HWND
	ops   chan func()
	ready chan error

	mu      sync.Mutex
	actions Actions
	width   int32
	touch   rate.Sometimes
}

// NewPlatformSurface creates the topmost, non-activating Win32 overlay window
// on its own locked OS thread.
func NewPlatformSurface() (Surface, error) {
	createMu.Lock()
	defer createMu.Unlock()
	activeMu.Lock()
	existing := active
	activeMu.Unlock()
	if existing != nil {
		return existing, nil
	}
	s := &nativeSurface{
		ops:   make(chan func(), 16),
		ready: make(chan error, 1),
		width: DefaultWidth,
		touch: rate.Sometimes{Interval: touchInterval},
	}
	go s.run()
	if err := <-s.ready; err != nil {
		return nil, err
	}
	return s, nil
}

func (s *nativeSurface) SetActions(a Actions) {
	s.mu.Lock()
	s.actions = a
	s.mu.Unlock()
}

func (s *nativeSurface) Place(b screen.Rect) error {
	return s.do(func() {
		s.mu.Lock()
		s.width = int32(b.Width)
		s.mu.Unlock()
		win.SetWindowPos(s.hwnd, win.HWND_TOPMOST, int32(b.X), int32(b.Y), int32(b.Width), int32(b.Height),
			win.SWP_NOACTIVATE)
		win.InvalidateRect(s.hwnd, nil, true)
	})
}

func (s *nativeSurface) Show() error {
	return s.do(func() { win.ShowWindow(s.hwnd, swShowNoActivate) })
}

func (s *nativeSurface) Hide() error {
	return s.do(func() { win.ShowWindow(s.hwnd, win.SW_HIDE) })
}

func (s *nativeSurface) SetPassthrough(passthrough bool) error {
	return s.do(func() {
		style := win.GetWindowLong(s.hwnd, win.GWL_EXSTYLE)
		if passthrough {
			style |= wsExTransparent
		} else {
			style &^= wsExTransparent
		}
		win.SetWindowLong(s.hwnd, win.GWL_EXSTYLE, style)
	})
}

// do runs fn on the window thread.
func (s *nativeSurface) do(fn func()) error {
	select {
	case s.ops <- fn:
	default:
		return fmt.Errorf("overlay window queue full")
	}
	if !win.PostMessage(s.hwnd, wmRun, 0, 0) {
		return fmt.Errorf("PostMessage failed")
	}
	return nil
}

func (s *nativeSurface) drain() {
	for {
		select {
		case fn := <-s.ops:
			fn()
		default:
			return
		}
	}
}

func (s *nativeSurface) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	className := syscall.StringToUTF16Ptr(fmt.Sprintf("PapermemOverlay_%d", time.Now().UnixNano()))
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		LpfnWndProc:   wndProc,
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_ARROW)),
		HbrBackground: win.HBRUSH(win.CreateSolidBrush(win.COLORREF(0x442A1F))),
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		s.ready <- fmt.Errorf("failed to register overlay window class")
		return
	}
	defer win.UnregisterClass(className)

	s.hwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST|wsExToolWindow|wsExNoActivate|wsExLayered|wsExTransparent,
		className,
		syscall.StringToUTF16Ptr("Save selection"),
		win.WS_POPUP,
		0, 0, DefaultWidth, DefaultHeight,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if s.hwnd == 0 {
		s.ready <- fmt.Errorf("failed to create overlay window")
		return
	}
	procSetLayeredWindowAttribute.Call(uintptr(s.hwnd), 0, overlayAlpha, lwaAlpha)
	log.Printf("overlay: native window created, hwnd=%v", s.hwnd)

	activeMu.Lock()
	active = s
	activeMu.Unlock()
	s.ready <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			log.Printf("overlay: message loop ended (%d)", ret)
			return
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

func (s *nativeSurface) paint(hwnd win.HWND) {
	var ps win.PAINTSTRUCT
	hdc := win.BeginPaint(hwnd, &ps)
	defer win.EndPaint(hwnd, &ps)

	s.mu.Lock()
	w := s.width
	s.mu.Unlock()

	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0xFFFFFF))
	label := "Save"
	win.TextOut(hdc, 8, 8, syscall.StringToUTF16Ptr(label), int32(len(label)))
	cross := "×"
	win.TextOut(hdc, w-dismissWidth+6, 8, syscall.StringToUTF16Ptr(cross), 1)
}

func (s *nativeSurface) click(x int32) {
	s.mu.Lock()
	a, w := s.actions, s.width
	s.mu.Unlock()
	if x >= w-dismissWidth {
		if a.Dismiss != nil {
			a.Dismiss()
		}
		return
	}
	if a.Save != nil {
		a.Save()
	}
}

func (s *nativeSurface) hover() {
	s.mu.Lock()
	touch := s.actions.Touch
	s.mu.Unlock()
	if touch != nil {
		s.touch.Do(touch)
	}
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	activeMu.Lock()
	s := active
	activeMu.Unlock()
	if s == nil || s.hwnd != hwnd {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case wmRun:
		s.drain()
		return 0
	case win.WM_PAINT:
		s.paint(hwnd)
		return 0
	case wmMouseActivate:
		return maNoActivate
	case win.WM_MOUSEMOVE:
		s.hover()
		return 0
	case win.WM_LBUTTONUP:
		s.click(int32(int16(win.LOWORD(uint32(lParam)))))
		return 0
	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}
