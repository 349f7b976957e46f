package commands

import "github.com/bibkit/bibkit/pkg/registry"

// dispatchTable is the static command table: one entry per API operation,
// built once at startup. Help text lives here rather than on the handlers.
func dispatchTable() []Command {
	listingOptions := []registry.Descriptor{
		{Name: "limit", Kind: registry.Integer, Help: "page size requested from the server"},
		{Name: "start", Kind: registry.Integer, Help: "offset of the first record"},
		{Name: "sort", Kind: registry.String, Help: "field to sort by"},
		{Name: "direction", Kind: registry.Choice, Choices: []string{"asc", "desc"}, Help: "sort direction"},
		{Name: "all", Kind: registry.Flag, Help: "follow pagination and fetch every page"},
	}

	itemFilters := []registry.Descriptor{
		{Name: "item_type", Kind: registry.String, Help: "filter by item type"},
		{Name: "tag", Kind: registry.String, Multiplicity: registry.ZeroOrMore, Help: "filter by tag (repeatable)"},
		{Name: "q", Kind: registry.String, Help: "quick-search phrase"},
	}

	return []Command{
		{
			Name: "items",
			Help: "List items in the library",
			Options: append(append([]registry.Descriptor{}, listingOptions...), itemFilters...),
			Run:  runItems,
		},
		{
			Name:       "item",
			Use:        "item <key>",
			Help:       "Read a single item",
			Positional: "key",
			Options: []registry.Descriptor{
				{Name: "key", Kind: registry.String, Required: true, Help: "item key"},
				{Name: "include", Kind: registry.String, Help: "extra content to include"},
			},
			Run: runItem,
		},
		{
			Name:    "collections",
			Help:    "List collections in the library",
			Options: append([]registry.Descriptor{}, listingOptions...),
			Run:     runCollections,
		},
		{
			Name:       "collection",
			Use:        "collection <key>",
			Help:       "Read a single collection",
			Positional: "key",
			Options: []registry.Descriptor{
				{Name: "key", Kind: registry.String, Required: true, Help: "collection key"},
			},
			Run: runCollection,
		},
		{
			Name:       "collection-items",
			Use:        "collection-items <key>",
			Help:       "List the items of a collection",
			Positional: "key",
			Options: append([]registry.Descriptor{
				{Name: "key", Kind: registry.String, Required: true, Help: "collection key"},
			}, listingOptions...),
			Run: runCollectionItems,
		},
		{
			Name:    "tags",
			Help:    "List tags in the library",
			Options: append([]registry.Descriptor{}, listingOptions...),
			Run:     runTags,
		},
		{
			Name:       "tag-items",
			Use:        "tag-items <tag>",
			Help:       "List the items carrying a tag",
			Positional: "tag_name",
			Options: append([]registry.Descriptor{
				{Name: "tag_name", Kind: registry.String, Required: true, Help: "tag to filter by"},
			}, listingOptions...),
			Run: runTagItems,
		},
		{
			Name: "groups",
			Help: "List the groups the key owner belongs to",
			Run:  runGroups,
		},
		{
			Name: "count-items",
			Help: "Report the total number of matching items without fetching them",
			Options: append([]registry.Descriptor{}, itemFilters...),
			Run:  runCountItems,
		},
		{
			Name: "key-info",
			Help: "Show the permissions of the configured API key",
			Run:  runKeyInfo,
		},
		{
			Name: "create-item",
			Help: "Create one or more items from a JSON document",
			Options: []registry.Descriptor{
				{Name: "template", Kind: registry.JSON, Help: "inline JSON item document"},
				{Name: "from_file", Kind: registry.ExistingFile, Help: "file holding the JSON item document"},
			},
			Run: runCreateItem,
		},
		{
			Name:       "update-item",
			Use:        "update-item <key>",
			Help:       "Partially update an item, guarded by its expected version",
			Positional: "key",
			Options: []registry.Descriptor{
				{Name: "key", Kind: registry.String, Required: true, Help: "item key"},
				{Name: "data", Kind: registry.JSON, Required: true, Help: "JSON fragment to apply"},
				{Name: "version", Kind: registry.Integer, Help: "expected item version"},
			},
			Run: runUpdateItem,
		},
		{
			Name:       "delete-item",
			Use:        "delete-item <key>",
			Help:       "Delete an item, guarded by its expected version",
			Positional: "key",
			Options: []registry.Descriptor{
				{Name: "key", Kind: registry.String, Required: true, Help: "item key"},
				{Name: "version", Kind: registry.Integer, Help: "expected item version"},
			},
			Run: runDeleteItem,
		},
		{
			Name:       "add-tag",
			Use:        "add-tag <tag>",
			Help:       "Add a tag to several items, one independent write per item",
			Positional: "tag_name",
			Options: []registry.Descriptor{
				{Name: "tag_name", Kind: registry.String, Required: true, Help: "tag to add"},
				{Name: "item", Kind: registry.String, Multiplicity: registry.OneOrMore, Required: true, Help: "item key (repeatable)"},
			},
			Run: runAddTag,
		},
	}
}
