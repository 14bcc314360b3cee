package settings

import "fmt"

// UnknownSettingError reports a key that names no recognized field of the
// scope it was addressed to.
type UnknownSettingError struct {
	Scope string
	Key   string
}

func (e *UnknownSettingError) Error() string {
	return fmt.Sprintf("settings: unknown %s setting %q", e.Scope, e.Key)
}

// TypeConversionError reports a raw value that does not parse as the field's
// declared type.
type TypeConversionError struct {
	Key  string
	Raw  string
	Want string
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("settings: %s requires %s value, got %q", e.Key, e.Want, e.Raw)
}
