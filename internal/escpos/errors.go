package escpos

import "errors"

// Configuration errors, fatal at construction time. Unsupported names fail
// loudly instead of degrading to a near-miss codepage.
var (
	ErrUnknownCodepage      = errors.New("unsupported codepage")
	ErrUnknownInternational = errors.New("unsupported international character set")
)
