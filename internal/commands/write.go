package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/bibkit/bibkit/pkg/api"
	"github.com/bibkit/bibkit/pkg/config"
)

func runCreateItem(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	var doc any
	switch {
	case args.Has("template") && args.Has("from_file"):
		return nil, fmt.Errorf("--template and --from-file are mutually exclusive")
	case args.Has("template"):
		doc = args.Value("template")
	case args.Has("from_file"):
		data, err := os.ReadFile(args.String("from_file"))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", args.String("from_file"), err)
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s is not valid JSON: %w", args.String("from_file"), err)
		}
	default:
		return nil, fmt.Errorf("one of --template or --from-file is required")
	}

	// The create endpoint always takes an array of item documents.
	if _, ok := doc.([]any); !ok {
		doc = []any{doc}
	}

	resp, err := client.Post(ctx, "/items", doc, nil)
	if err != nil {
		return nil, err
	}
	var result any
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return result, nil
}

func runUpdateItem(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	path := "/items/" + url.PathEscape(args.String("key"))
	resp, err := client.Patch(ctx, path, args.Value("data"), args.Int("version"))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"key":     args.String("key"),
		"version": resp.Version(),
	}, nil
}

func runDeleteItem(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	path := "/items/" + url.PathEscape(args.String("key"))
	if _, err := client.Delete(ctx, path, args.Int("version")); err != nil {
		return nil, err
	}
	return nil, nil
}

// tagOutcome is the per-item result of an add-tag batch.
type tagOutcome struct {
	Key     string `json:"key"`
	Tagged  bool   `json:"tagged"`
	Version int    `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// addTagConcurrency bounds the number of in-flight per-item writes.
const addTagConcurrency = 4

// runAddTag applies one tag to several items. Each item is an independent
// read-then-conditional-write; a conflict or failure on one item never rolls
// back the others. The writes share only the read-only client.
func runAddTag(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	tag := args.String("tag_name")
	keys := args.Strings("item")

	outcomes := make([]tagOutcome, len(keys))
	sem := make(chan struct{}, addTagConcurrency)
	var wg sync.WaitGroup

	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = tagItem(ctx, client, key, tag)
		}(i, key)
	}
	wg.Wait()

	failed := 0
	for _, o := range outcomes {
		if !o.Tagged {
			failed++
		}
	}
	if failed > 0 {
		return outcomes, fmt.Errorf("failed to tag %d of %d items", failed, len(keys))
	}
	return outcomes, nil
}

// tagItem reads an item's current tags and version, then writes the tag
// back under that version's precondition.
func tagItem(ctx context.Context, client *api.Client, key, tag string) tagOutcome {
	path := "/items/" + url.PathEscape(key)

	resp, err := client.Get(ctx, path, api.GetOptions{Scoped: true})
	if err != nil {
		return tagOutcome{Key: key, Error: err.Error()}
	}

	var item struct {
		Version int `json:"version"`
		Data    struct {
			Tags []map[string]any `json:"tags"`
		} `json:"data"`
	}
	if err := resp.Decode(&item); err != nil {
		return tagOutcome{Key: key, Error: err.Error()}
	}

	for _, existing := range item.Data.Tags {
		if existing["tag"] == tag {
			return tagOutcome{Key: key, Tagged: true, Version: item.Version}
		}
	}

	tags := append(item.Data.Tags, map[string]any{"tag": tag})
	patched, err := client.Patch(ctx, path, map[string]any{"tags": tags}, item.Version)
	if err != nil {
		return tagOutcome{Key: key, Error: err.Error()}
	}
	return tagOutcome{Key: key, Tagged: true, Version: patched.Version()}
}
