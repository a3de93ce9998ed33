package source

import "errors"

var (
	// ErrFetch wraps transport failures talking to a remote source.
	ErrFetch = errors.New("record source fetch failed")
	// ErrStatus is returned when the remote source answers with a non-2xx status.
	ErrStatus = errors.New("record source returned an error status")
	// ErrMissingCredentials is returned when a remote source has no API key.
	ErrMissingCredentials = errors.New("record source credentials missing")
	// ErrDecode is returned when a response or file cannot be decoded.
	ErrDecode = errors.New("record source payload could not be decoded")
	// ErrNoSheet is returned when the spreadsheet has no usable sheet.
	ErrNoSheet = errors.New("spreadsheet sheet not found")
)
