// Package permission checks the OS privilege required for global input
// observation. It is consulted once at start-up and never polled.
package permission

type Status int

const (
	Granted Status = iota
	NotGranted
	Denied
)

func (s Status) String() string {
	switch s {
	case Granted:
		return "granted"
	case NotGranted:
		return "not granted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Gate is the per-OS permission capability.
type Gate interface {
	// Check performs a non-blocking check without prompting.
	Check() Status
	// RequestIfNeeded checks and, when not granted, issues a one-time request
	// which may prompt the user outside this process.
	RequestIfNeeded() Status
	// Enforced reports whether a missing grant prevents the hook from running.
	// Advisory platforms return false: the hook is attempted regardless.
	Enforced() bool
	// Advice is a human-readable hint shown when the grant is missing.
	Advice() string
}

// New returns the gate for the running OS.
func New() Gate { return newPlatformGate() }

// Allowed reports whether the input bridge should be started given status.
func Allowed(g Gate, status Status) bool {
	return status == Granted || !g.Enforced()
}

// Static is a fixed gate, used when the platform check is bypassed.
type Static struct {
	Status   Status
	Enforce  bool
	Message  string
	Requests int
}

func (s *Static) Check() Status { return s.Status }

func (s *Static) RequestIfNeeded() Status {
	if s.Status == Granted {
		return Granted
	}
	s.Requests++
	return Denied
}

func (s *Static) Enforced() bool { return s.Enforce }
func (s *Static) Advice() string { return s.Message }
