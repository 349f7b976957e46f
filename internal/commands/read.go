package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/bibkit/bibkit/pkg/api"
	"github.com/bibkit/bibkit/pkg/config"
)

// listingParams serializes the shared listing options into query parameters.
func listingParams(args *config.Arguments) url.Values {
	params := url.Values{}
	if args.Has("limit") {
		params.Set("limit", strconv.Itoa(args.Int("limit")))
	}
	if args.Has("start") {
		params.Set("start", strconv.Itoa(args.Int("start")))
	}
	if args.Has("sort") {
		params.Set("sort", args.String("sort"))
	}
	if args.Has("direction") {
		params.Set("direction", args.String("direction"))
	}
	return params
}

// itemFilterParams adds the item-search filters. A repeated tag option
// becomes repeated tag=... pairs in the order given.
func itemFilterParams(params url.Values, args *config.Arguments) url.Values {
	if args.Has("item_type") {
		params.Set("itemType", args.String("item_type"))
	}
	if args.Has("q") {
		params.Set("q", args.String("q"))
	}
	for _, tag := range args.Strings("tag") {
		params.Add("tag", tag)
	}
	return params
}

// fetchList issues one scoped GET, or walks the whole collection when the
// all flag is set.
func fetchList(ctx context.Context, client *api.Client, args *config.Arguments, path string, params url.Values) (any, error) {
	if args.Bool("all") {
		records, err := client.FetchAll(ctx, path, params)
		if err != nil {
			return nil, err
		}
		return decodeRecords(records)
	}

	resp, err := client.Get(ctx, path, api.GetOptions{Scoped: true, Params: params})
	if err != nil {
		return nil, err
	}
	var page any
	if err := resp.Decode(&page); err != nil {
		return nil, err
	}
	return page, nil
}

func decodeRecords(records []json.RawMessage) ([]any, error) {
	out := make([]any, len(records))
	for i, raw := range records {
		if err := json.Unmarshal(raw, &out[i]); err != nil {
			return nil, fmt.Errorf("failed to decode record %d: %w", i, err)
		}
	}
	return out, nil
}

func fetchOne(ctx context.Context, client *api.Client, path string, params url.Values) (any, error) {
	resp, err := client.Get(ctx, path, api.GetOptions{Scoped: true, Params: params})
	if err != nil {
		return nil, err
	}
	var record any
	if err := resp.Decode(&record); err != nil {
		return nil, err
	}
	return record, nil
}

func runItems(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	return fetchList(ctx, client, args, "/items", itemFilterParams(listingParams(args), args))
}

func runItem(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	params := url.Values{}
	if args.Has("include") {
		params.Set("include", args.String("include"))
	}
	return fetchOne(ctx, client, "/items/"+url.PathEscape(args.String("key")), params)
}

func runCollections(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	return fetchList(ctx, client, args, "/collections", listingParams(args))
}

func runCollection(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	return fetchOne(ctx, client, "/collections/"+url.PathEscape(args.String("key")), nil)
}

func runCollectionItems(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	path := "/collections/" + url.PathEscape(args.String("key")) + "/items"
	return fetchList(ctx, client, args, path, listingParams(args))
}

func runTags(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	return fetchList(ctx, client, args, "/tags", listingParams(args))
}

func runTagItems(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	params := listingParams(args)
	params.Set("tag", args.String("tag_name"))
	return fetchList(ctx, client, args, "/items", params)
}

func runGroups(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	return fetchList(ctx, client, args, "/groups", listingParams(args))
}

func runCountItems(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	total, err := client.Count(ctx, "/items", itemFilterParams(url.Values{}, args))
	if err != nil {
		return nil, err
	}
	return map[string]int{"totalResults": total}, nil
}

func runKeyInfo(ctx context.Context, args *config.Arguments, client *api.Client) (any, error) {
	return client.CurrentKey(ctx)
}
