//go:build darwin

package permission

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>

static int axTrusted(int prompt) {
	const void *keys[] = { kAXTrustedCheckOptionPrompt };
	const void *values[] = { prompt ? kCFBooleanTrue : kCFBooleanFalse };
	CFDictionaryRef opts = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
		&kCFCopyStringDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
	Boolean trusted = AXIsProcessTrustedWithOptions(opts);
	CFRelease(opts);
	return trusted ? 1 : 0;
}
*/
import "C"

import "log"

// axGate asks for Accessibility trust, which macOS enforces for global event taps.
type axGate struct {
	requested bool
}

func newPlatformGate() Gate { return &axGate{} }

func (g *axGate) Check() Status {
	if C.axTrusted(0) == 1 {
		return Granted
	}
	return NotGranted
}

func (g *axGate) RequestIfNeeded() Status {
	if g.Check() == Granted {
		return Granted
	}
	if g.requested {
		return Denied
	}
	g.requested = true
	log.Printf("permission: requesting Accessibility trust")
	if C.axTrusted(1) == 1 {
		return Granted
	}
	return Denied
}

func (g *axGate) Enforced() bool { return true }

func (g *axGate) Advice() string {
	return "Grant Accessibility access in System Settings > Privacy & Security > Accessibility, then restart"
}
