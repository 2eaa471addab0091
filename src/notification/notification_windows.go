//go:build windows

package notification

import (
	"golang.org/x/sys/windows"
)

const (
	mbOK            = 0x00000000
	mbIconError     = 0x00000010
	mbIconWarning   = 0x00000030
	mbTopmost       = 0x00040000
	mbSetForeground = 0x00010000
)

func showDialog(title, message string, isError bool) error {
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	m, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return err
	}
	style := uint32(mbOK | mbTopmost | mbSetForeground)
	if isError {
		style |= mbIconError
	} else {
		style |= mbIconWarning
	}
	_, err = windows.MessageBox(0, m, t, style)
	return err
}
