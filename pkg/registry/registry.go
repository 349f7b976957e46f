// Package registry holds the option metadata every command declares at
// startup. It is pure data: coercion and validation live in pkg/config.
package registry

import (
	"fmt"
	"strings"
)

// Kind describes how a raw option value is interpreted.
type Kind int

const (
	// String accepts any value unchanged.
	String Kind = iota
	// Integer parses a base-10 integer.
	Integer
	// ExistingFile requires the value to name a regular file on disk.
	ExistingFile
	// ExistingPath requires the value to name an existing path on disk.
	ExistingPath
	// JSON parses the value as a JSON document.
	JSON
	// Flag maps true/yes/on and false/no/off to a boolean.
	Flag
	// Choice restricts the value to the descriptor's Choices set.
	Choice
)

// Multiplicity describes how many values an option carries.
type Multiplicity int

const (
	Single Multiplicity = iota
	ZeroOrMore
	OneOrMore
)

// Descriptor declares one recognized option of a command.
//
// Name is the internal identifier (words joined with underscores). The
// external name used in config files and on the command line joins words
// with hyphens instead; see ExternalName.
type Descriptor struct {
	Name         string
	Kind         Kind
	Multiplicity Multiplicity
	Required     bool
	Choices      []string
	Help         string
}

// ExternalName returns the hyphenated form used by config files and flags.
func (d Descriptor) ExternalName() string {
	return strings.ReplaceAll(d.Name, "_", "-")
}

// EnvSuffix returns the upper-cased, underscore-joined form appended to an
// environment variable prefix.
func (d Descriptor) EnvSuffix() string {
	return strings.ToUpper(d.Name)
}

// Registry maps command names to their declared options, plus the global
// options that apply to every command. It is built once at startup and
// treated as immutable afterwards.
type Registry struct {
	globals  []Descriptor
	commands map[string][]Descriptor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{commands: make(map[string][]Descriptor)}
}

// RegisterGlobal adds a descriptor that applies to every command.
// A duplicate name is a programming error and panics.
func (r *Registry) RegisterGlobal(d Descriptor) {
	if r.hasGlobal(d.Name) {
		panic(fmt.Sprintf("registry: duplicate global option %q", d.Name))
	}
	r.globals = append(r.globals, d)
}

// Register adds a descriptor to one command's option set. A name already
// taken by the command or by a global descriptor is a programming error
// and panics.
func (r *Registry) Register(command string, d Descriptor) {
	if r.hasGlobal(d.Name) {
		panic(fmt.Sprintf("registry: option %q of command %q shadows a global option", d.Name, command))
	}
	for _, have := range r.commands[command] {
		if have.Name == d.Name {
			panic(fmt.Sprintf("registry: duplicate option %q for command %q", d.Name, command))
		}
	}
	r.commands[command] = append(r.commands[command], d)
}

// Describe returns the command's descriptors in registration order.
func (r *Registry) Describe(command string) []Descriptor {
	return r.commands[command]
}

// Globals returns the global descriptors in registration order.
func (r *Registry) Globals() []Descriptor {
	return r.globals
}

// All returns the union of a command's descriptors and the globals,
// globals first.
func (r *Registry) All(command string) []Descriptor {
	out := make([]Descriptor, 0, len(r.globals)+len(r.commands[command]))
	out = append(out, r.globals...)
	out = append(out, r.commands[command]...)
	return out
}

func (r *Registry) hasGlobal(name string) bool {
	for _, d := range r.globals {
		if d.Name == name {
			return true
		}
	}
	return false
}
