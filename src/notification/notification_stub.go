//go:build !windows

package notification

// showDialog is a no-op off Windows; the message is already in the log.
func showDialog(title, message string, isError bool) error {
	return nil
}
