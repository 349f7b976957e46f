package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/bibkit/bibkit/pkg/registry"
)

// Environment variable prefixes checked for every option, in order: the
// CLI-specific prefix first, then the broader API-wide prefix shared with
// other Biblib tooling.
const (
	envCLIPrefix = "BIBKIT_"
	envAPIPrefix = "BIBLIB_"
)

// Environment looks up one variable, os.LookupEnv-shaped so tests can
// inject a fixed map.
type Environment func(key string) (string, bool)

// Options carries the sources and collaborators Resolve works with.
type Options struct {
	Registry *registry.Registry
	Document *Document
	Env      Environment

	// Fallback is consulted for an option only after every source came up
	// empty, before the required check. bibkit wires it to the OS keyring
	// for the api_key option.
	Fallback func(option string) (string, bool)

	// LookupSelfID resolves the sentinel user id 0 to the key owner's
	// numeric id. This is the one place resolution performs network I/O;
	// it runs before any command logic sees the resolved scope.
	LookupSelfID func(ctx context.Context, baseURL, apiKey string) (int, error)

	// Defaults are applied last, only for options no source supplied.
	Defaults map[string]any
}

// Resolve merges all configuration sources for one command into a single
// coerced argument set.
//
// Per option, the first source that yields any value wins: an explicit flag
// value, the command-scoped config table, the two environment variable
// names, the command-scoped table again, then the global config table.
// Values from config or environment arrive as raw strings and are coerced
// to the descriptor's kind; explicit values already passed flag-level
// validation and are stored as-is.
func Resolve(ctx context.Context, command string, explicit map[string]any, opts Options) (*Arguments, error) {
	if opts.Env == nil {
		opts.Env = os.LookupEnv
	}
	if opts.Document == nil {
		opts.Document = EmptyDocument()
	}

	values := make(map[string]any)
	for _, d := range opts.Registry.All(command) {
		if v, ok := explicit[d.Name]; ok {
			values[d.Name] = v
			continue
		}

		raw, found := lookupRaw(command, d, opts)
		if !found && opts.Fallback != nil {
			raw, found = opts.Fallback(d.Name)
		}
		if !found {
			if d.Required {
				return nil, &MissingRequiredOptionError{Option: d.Name}
			}
			continue
		}

		v, err := Coerce(d, raw)
		if err != nil {
			return nil, err
		}
		if d.Multiplicity != registry.Single {
			if s, ok := v.(string); ok {
				v = []string{s}
			}
		}
		values[d.Name] = v
	}

	for name, def := range opts.Defaults {
		if _, ok := values[name]; !ok {
			values[name] = def
		}
	}

	if err := checkScope(ctx, values, opts); err != nil {
		return nil, err
	}

	return &Arguments{command: command, values: values}, nil
}

// lookupRaw walks the string-valued sources in precedence order.
func lookupRaw(command string, d registry.Descriptor, opts Options) (string, bool) {
	external := d.ExternalName()
	if v, ok := opts.Document.CommandValue(command, external); ok {
		return v, true
	}
	if v, ok := opts.Env(envCLIPrefix + d.EnvSuffix()); ok {
		return v, true
	}
	if v, ok := opts.Env(envAPIPrefix + d.EnvSuffix()); ok {
		return v, true
	}
	if v, ok := opts.Document.CommandValue(command, external); ok {
		return v, true
	}
	if v, ok := opts.Document.GlobalValue(external); ok {
		return v, true
	}
	return "", false
}

// Coerce converts one raw string from a config file, the environment, or a
// command-line flag into the descriptor's declared type. The flag layer uses
// it as its inline validation so explicit values enter resolution pre-typed.
func Coerce(d registry.Descriptor, raw string) (any, error) {
	switch d.Kind {
	case registry.Integer:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &TypeCoercionError{Option: d.Name, Raw: raw, Reason: "not an integer"}
		}
		return n, nil

	case registry.ExistingPath:
		if _, err := os.Stat(raw); err != nil {
			return nil, &TypeCoercionError{Option: d.Name, Raw: raw, Reason: "path does not exist"}
		}
		return raw, nil

	case registry.ExistingFile:
		fi, err := os.Stat(raw)
		if err != nil {
			return nil, &TypeCoercionError{Option: d.Name, Raw: raw, Reason: "file does not exist"}
		}
		if !fi.Mode().IsRegular() {
			return nil, &TypeCoercionError{Option: d.Name, Raw: raw, Reason: "not a regular file"}
		}
		return raw, nil

	case registry.JSON:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, &TypeCoercionError{Option: d.Name, Raw: raw, Reason: "not valid JSON"}
		}
		return v, nil

	case registry.Flag:
		switch raw {
		case "true", "yes", "on":
			return true, nil
		case "false", "no", "off":
			return false, nil
		}
		return nil, &TypeCoercionError{Option: d.Name, Raw: raw, Reason: "not a boolean (use true/yes/on or false/no/off)"}

	case registry.Choice:
		for _, allowed := range d.Choices {
			if raw == allowed {
				return raw, nil
			}
		}
		return nil, &InvalidChoiceError{Option: d.Name, Raw: raw, Allowed: d.Choices}

	case registry.String:
		return raw, nil

	default:
		return nil, fmt.Errorf("unknown option kind %d for --%s", d.Kind, d.ExternalName())
	}
}

// checkScope enforces the one-of user_id/group_id invariant and resolves
// the sentinel user id 0 through the key-info endpoint.
func checkScope(ctx context.Context, values map[string]any, opts Options) error {
	_, userSet := values["user_id"]
	_, groupSet := values["group_id"]
	if userSet == groupSet {
		return &ScopeConflictError{Both: userSet}
	}

	if userSet && values["user_id"] == 0 {
		if opts.LookupSelfID == nil {
			return fmt.Errorf("user id 0 requires a key-info lookup but none is configured")
		}
		apiKey, _ := values["api_key"].(string)
		baseURL, _ := values["base_url"].(string)
		id, err := opts.LookupSelfID(ctx, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("failed to resolve own user id: %w", err)
		}
		values["user_id"] = id
	}
	return nil
}
