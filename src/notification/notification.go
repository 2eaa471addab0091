package notification

import (
	"log"
	"unicode/utf8"
)

const maxMessageRunes = 400

// ShowBlockingError reports a start-up failure to the user and waits until it
// is acknowledged where the platform has a dialog for it.
func ShowBlockingError(title, message string) {
	message = truncate(message)
	log.Printf("%s: %s", title, message)
	if err := showDialog(title, message, true); err != nil {
		log.Printf("Failed to show dialog: %v", err)
	}
}

// ShowWarning reports an advisory condition without blocking the caller.
func ShowWarning(title, message string) {
	message = truncate(message)
	log.Printf("%s: %s", title, message)
	go func() {
		if err := showDialog(title, message, false); err != nil {
			log.Printf("Failed to show dialog: %v", err)
		}
	}()
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxMessageRunes {
		return s
	}
	return string([]rune(s)[:maxMessageRunes]) + "..."
}
