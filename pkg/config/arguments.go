package config

// Arguments is the fully-resolved, coerced option set of one invocation.
// It is produced once by Resolve and read-only afterwards; handlers receive
// it by value of reference and never mutate it.
type Arguments struct {
	command string
	values  map[string]any
}

// Command returns the command these arguments were resolved for.
func (a *Arguments) Command() string { return a.command }

// Has reports whether the option resolved to a value from any source.
func (a *Arguments) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Value returns the raw resolved value, or nil when unset.
func (a *Arguments) Value(name string) any { return a.values[name] }

// String returns a string-typed option, or "" when unset.
func (a *Arguments) String(name string) string {
	s, _ := a.values[name].(string)
	return s
}

// Int returns an integer-typed option, or 0 when unset.
func (a *Arguments) Int(name string) int {
	n, _ := a.values[name].(int)
	return n
}

// Bool returns a flag-typed option, or false when unset.
func (a *Arguments) Bool(name string) bool {
	b, _ := a.values[name].(bool)
	return b
}

// Strings returns a repeatable option's values in original order. A value
// resolved from a single-valued source is returned as a one-element slice.
func (a *Arguments) Strings(name string) []string {
	switch v := a.values[name].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	default:
		return nil
	}
}
