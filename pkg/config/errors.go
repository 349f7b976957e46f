package config

import (
	"fmt"
	"strings"
)

// MissingRequiredOptionError reports a required option absent from every
// configuration source.
type MissingRequiredOptionError struct {
	Option string
}

func (e *MissingRequiredOptionError) Error() string {
	return fmt.Sprintf("missing required option --%s", strings.ReplaceAll(e.Option, "_", "-"))
}

// TypeCoercionError reports a raw value that could not be converted to the
// option's declared kind.
type TypeCoercionError struct {
	Option string
	Raw    string
	Reason string
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("invalid value %q for option --%s: %s",
		e.Raw, strings.ReplaceAll(e.Option, "_", "-"), e.Reason)
}

// InvalidChoiceError reports a value outside an option's allowed set.
type InvalidChoiceError struct {
	Option  string
	Raw     string
	Allowed []string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid choice %q for option --%s (allowed: %s)",
		e.Raw, strings.ReplaceAll(e.Option, "_", "-"), strings.Join(e.Allowed, ", "))
}

// ScopeConflictError reports that zero or both of user-id and group-id were
// supplied; exactly one library scope must be selected.
type ScopeConflictError struct {
	Both bool
}

func (e *ScopeConflictError) Error() string {
	if e.Both {
		return "exactly one of --user-id and --group-id may be set, not both"
	}
	return "one of --user-id or --group-id is required"
}
