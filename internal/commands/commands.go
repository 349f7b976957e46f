// Package commands wires the option registry, configuration resolver, and
// API client into the bibkit command surface. Each command is one row of a
// static table built at startup; handlers are thin glue over one endpoint.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zalando/go-keyring"

	"github.com/bibkit/bibkit/pkg/api"
	"github.com/bibkit/bibkit/pkg/config"
	"github.com/bibkit/bibkit/pkg/output"
	"github.com/bibkit/bibkit/pkg/registry"
	"github.com/bibkit/bibkit/pkg/secrets"
)

const (
	keyringService = "bibkit"
	keyringUser    = "api-key"
)

// ErrReported marks a failure that was already written to the output file;
// main only needs to set the exit code.
var ErrReported = errors.New("error already reported")

// Handler runs one command against the resolved arguments and client. A nil
// result means the command produces no output body.
type Handler func(ctx context.Context, args *config.Arguments, client *api.Client) (any, error)

// Command is one row of the dispatch table.
type Command struct {
	Name       string
	Use        string
	Help       string
	Positional string // option name the single positional argument binds to
	Options    []registry.Descriptor
	Run        Handler
}

// buildRegistry declares the global options plus every command's own set.
func buildRegistry(table []Command) *registry.Registry {
	reg := registry.New()
	reg.RegisterGlobal(registry.Descriptor{Name: "api_key", Kind: registry.String, Required: true, Help: "Biblib API key"})
	reg.RegisterGlobal(registry.Descriptor{Name: "config", Kind: registry.ExistingFile, Help: "path to config file"})
	reg.RegisterGlobal(registry.Descriptor{Name: "user_id", Kind: registry.Integer, Help: "personal library id (0 = look up own id)"})
	reg.RegisterGlobal(registry.Descriptor{Name: "group_id", Kind: registry.Integer, Help: "group library id"})
	reg.RegisterGlobal(registry.Descriptor{Name: "base_url", Kind: registry.String, Help: "API base URL"})
	reg.RegisterGlobal(registry.Descriptor{Name: "indent", Kind: registry.Integer, Help: "pretty-print indent width"})
	reg.RegisterGlobal(registry.Descriptor{Name: "format", Kind: registry.Choice, Choices: []string{"json", "yaml"}, Help: "output format"})
	reg.RegisterGlobal(registry.Descriptor{Name: "out", Kind: registry.String, Help: "write output to file instead of stdout"})
	reg.RegisterGlobal(registry.Descriptor{Name: "verbose", Kind: registry.Flag, Help: "report progress on stderr"})

	for _, c := range table {
		for _, d := range c.Options {
			reg.Register(c.Name, d)
		}
	}
	return reg
}

// NewRootCmd builds the full cobra command tree.
func NewRootCmd(version string) *cobra.Command {
	table := dispatchTable()
	reg := buildRegistry(table)

	root := &cobra.Command{
		Use:           "bibkit",
		Short:         "bibkit is a command-line client for the Biblib library API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addFlags(root.PersistentFlags(), reg.Globals())

	for _, c := range table {
		use := c.Use
		if use == "" {
			use = c.Name
		}
		cmd := &cobra.Command{
			Use:   use,
			Short: c.Help,
			RunE:  newRunner(reg, c, version),
		}
		if c.Positional != "" {
			cmd.Args = cobra.ExactArgs(1)
		} else {
			cmd.Args = cobra.NoArgs
		}
		addFlags(cmd.Flags(), c.Options)
		root.AddCommand(cmd)
	}

	root.AddCommand(newAuthCmd())
	return root
}

// addFlags maps descriptors onto pflag types. String-shaped kinds stay
// strings at the flag level; their validation happens in collectExplicit.
func addFlags(fs *pflag.FlagSet, descriptors []registry.Descriptor) {
	for _, d := range descriptors {
		name := d.ExternalName()
		switch {
		case d.Multiplicity != registry.Single:
			fs.StringArray(name, nil, d.Help)
		case d.Kind == registry.Integer:
			fs.Int(name, 0, d.Help)
		case d.Kind == registry.Flag:
			fs.Bool(name, false, d.Help)
		default:
			fs.String(name, "", d.Help)
		}
	}
}

// collectExplicit gathers the values the user actually typed, running each
// string-shaped value through the same coercion config-file values get.
// Resolution treats these as final: an explicit flag is never overridden.
func collectExplicit(cmd *cobra.Command, descriptors []registry.Descriptor) (map[string]any, error) {
	flags := cmd.Flags()
	explicit := make(map[string]any)

	for _, d := range descriptors {
		name := d.ExternalName()
		if !flags.Changed(name) {
			continue
		}
		switch {
		case d.Multiplicity != registry.Single:
			values, err := flags.GetStringArray(name)
			if err != nil {
				return nil, err
			}
			explicit[d.Name] = values
		case d.Kind == registry.Integer:
			n, err := flags.GetInt(name)
			if err != nil {
				return nil, err
			}
			explicit[d.Name] = n
		case d.Kind == registry.Flag:
			b, err := flags.GetBool(name)
			if err != nil {
				return nil, err
			}
			explicit[d.Name] = b
		default:
			raw, err := flags.GetString(name)
			if err != nil {
				return nil, err
			}
			v, err := config.Coerce(d, raw)
			if err != nil {
				return nil, err
			}
			explicit[d.Name] = v
		}
	}
	return explicit, nil
}

// newRunner produces the cobra RunE that resolves configuration, builds the
// client, runs the handler, and renders its result.
func newRunner(reg *registry.Registry, c Command, version string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, argv []string) error {
		ctx := cmd.Context()

		explicit, err := collectExplicit(cmd, reg.All(c.Name))
		if err != nil {
			return err
		}
		if c.Positional != "" && len(argv) > 0 {
			explicit[c.Positional] = argv[0]
		}

		explicitConfig, _ := explicit["config"].(string)
		doc := config.EmptyDocument()
		if path, found := config.DiscoverPath(explicitConfig); found {
			doc, err = config.LoadDocument(path)
			if err != nil {
				return err
			}
		}

		args, err := config.Resolve(ctx, c.Name, explicit, config.Options{
			Registry: reg,
			Document: doc,
			Fallback: keyringFallback,
			LookupSelfID: func(ctx context.Context, baseURL, apiKey string) (int, error) {
				return api.CurrentKeyUserID(ctx, baseURL, apiKey, nil)
			},
			Defaults: map[string]any{"indent": 2},
		})
		if err != nil {
			return err
		}

		redactor := secrets.NewRedactor(args.String("api_key"))
		sink := output.NewSink(args.String("out"))

		var spin *spinner.Spinner
		var onPage func(int)
		if args.Bool("verbose") {
			spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			onPage = func(page int) {
				spin.Suffix = fmt.Sprintf(" fetched page %d", page)
			}
			spin.Start()
			defer spin.Stop()
		}

		client := api.New(api.Config{
			BaseURL:   args.String("base_url"),
			APIKey:    args.String("api_key"),
			UserAgent: "bibkit/" + version,
			Scope:     resolvedScope(args),
			Redactor:  redactor,
			OnPage:    onPage,
		})

		result, err := c.Run(ctx, args, client)
		if spin != nil {
			spin.Stop()
		}

		// A batch command may produce both a partial result and an error;
		// render what we have before reporting the failure.
		if result != nil {
			writer := output.NewWriter(sink.Writer(), output.Format(args.String("format")), args.Int("indent"), redactor)
			if werr := writer.Write(result); werr != nil && err == nil {
				err = werr
			}
		}

		if err != nil {
			if sink.ToFile() {
				sink.AppendError(redactor.Redact(err.Error()))
				if closeErr := sink.Close(); closeErr != nil {
					return closeErr
				}
				return ErrReported
			}
			return err
		}
		return sink.Close()
	}
}

func resolvedScope(args *config.Arguments) api.Scope {
	if args.Has("group_id") {
		return api.GroupScope(args.Int("group_id"))
	}
	return api.UserScope(args.Int("user_id"))
}

// keyringFallback supplies the API key from the OS keyring when no
// configuration source carried one.
func keyringFallback(option string) (string, bool) {
	if option != "api_key" {
		return "", false
	}
	v, err := keyring.Get(keyringService, keyringUser)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}
