package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `datapad browses a public dataset of Star Wars characters, one record at a time.

Core concepts:
- Identifiers run from 1 to max_id. Some identifiers have no record; navigation skips them.
- Cursor: each MCP session has its own current identifier, starting at 1.
- Moves wrap: next from max_id continues at 1, previous from 1 continues at max_id.

Tools:
1) current_character: read the record under the cursor without moving.
2) next_character / previous_character: step to the nearest present record.
3) jump_to_character(id): out-of-range ids wrap first; an absent id resolves forward and sets fallback=true.
4) search_character(name): whole-name match ignoring case; a miss leaves the cursor unchanged.
5) recent_activity(limit, type): this session's history, newest first.

Docs:
- datapad://docs/navigation
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "datapad://docs/navigation",
		Name:        "docs_navigation",
		Title:       "Navigating the character dataset",
		Description: "How cursors, sparse identifiers and fallbacks behave.",
		Content: `# Navigating the character dataset

## Sparse identifiers

The dataset numbers records from 1 to max_id but leaves gaps. Every move keeps
stepping in its direction until a record is found, probing at most max_id
identifiers. If none answers, the call fails with NO_VALID_RECORD.

## Jumping

jump_to_character wraps the identifier into range before fetching, so 0 means
max_id and max_id+1 means 1. When the target has no record the cursor moves to
the next present identifier and the result carries fallback=true together with
requested_id.

## Searching

search_character compares whole names after trimming spaces and folding case.
"luke skywalker" finds "Luke Skywalker"; "Luke" does not.

## Failures

- UPSTREAM_UNAVAILABLE: the dataset could not be reached; the cursor is unchanged.
- NO_MATCH: no name matched; the cursor is unchanged.
- CONFLICT: another call moved the same cursor at the same time; retry.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
