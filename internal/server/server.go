// Package server exposes the dependency graph over MCP: resources for the
// generated artifacts and tools to build and query the graph.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"depmap/internal/config"
	"depmap/internal/engine"
	"depmap/internal/graph"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and connects it to the graph engine.
type Server struct {
	mcp *mcp.Server
	eng *engine.Engine
	cfg *config.Config
}

// New creates a new MCP server wired to the given engine.
func New(eng *engine.Engine, cfg *config.Config) (*Server, error) {
	s := &Server{
		eng: eng,
		cfg: cfg,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "depmap",
		Version: "0.1.0",
	}, nil)

	s.mcp = mcpServer
	s.registerResources()
	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	log.Println("[server] starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// registerResources adds MCP resources for the generated artifacts.
func (s *Server) registerResources() {
	resources := []struct {
		uri, name, desc, mime, artifact string
	}{
		{
			uri:      "depmap://graph/full",
			name:     "Dependency Graph",
			desc:     "Full dependency graph with files and units as JSON nodes and links",
			mime:     "application/json",
			artifact: engine.ArtifactFull,
		},
		{
			uri:      "depmap://graph/modules",
			name:     "Module Dependency Graph",
			desc:     "Dependency graph reduced to files only",
			mime:     "application/json",
			artifact: engine.ArtifactModules,
		},
		{
			uri:      "depmap://graph/nodes",
			name:     "Graph Nodes",
			desc:     "All graph nodes with their dependency sets in JSONL format",
			mime:     "application/jsonl",
			artifact: engine.ArtifactNodes,
		},
		{
			uri:      "depmap://graph/meta",
			name:     "Graph Metadata",
			desc:     "Metadata and warnings from the last graph generation",
			mime:     "application/json",
			artifact: engine.ArtifactMeta,
		},
	}

	for _, r := range resources {
		artifact := r.artifact
		mime := r.mime
		s.mcp.AddResource(&mcp.Resource{
			URI:         r.uri,
			Name:        r.name,
			Description: r.desc,
			MIMEType:    mime,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			content, err := s.eng.GetArtifact(artifact)
			if err != nil {
				return nil, fmt.Errorf("no graph available: %w (run generate_graph first)", err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: req.Params.URI, Text: string(content), MIMEType: mime},
				},
			}, nil
		})
	}
}

// generateGraphArgs are the arguments for the generate_graph tool.
type generateGraphArgs struct {
	RootPath string `json:"root_path" jsonschema:"Path to the package directory to analyze. Defaults to the configured root."`
	GitOnly  bool   `json:"git_only,omitempty" jsonschema:"Build the graph from git co-change history only, without parsing source files"`
}

// queryNodesArgs are the arguments for the query_nodes tool.
type queryNodesArgs struct {
	Kind string `json:"kind,omitempty" jsonschema:"Filter by node kind: directory, file, class, function, or global"`
	Name string `json:"name,omitempty" jsonschema:"Filter by fully-qualified name using substring match"`
}

// showDependenciesArgs are the arguments for the show_dependencies tool.
type showDependenciesArgs struct {
	Name string `json:"name" jsonschema:"Fully-qualified node name, e.g. pkg.module.MyClass"`
}

// registerTools adds MCP tools for graph generation and querying.
func (s *Server) registerTools() {
	// Tool: generate_graph
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Build the multi-level dependency graph of a Python package: directories, files, classes, functions, import edges and git co-change coupling.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args generateGraphArgs) (*mcp.CallToolResult, any, error) {
		var result *engine.Result
		var err error
		if args.GitOnly {
			result, err = s.eng.GenerateGitOnly(ctx, args.RootPath)
		} else {
			result, err = s.eng.Generate(ctx, args.RootPath)
		}
		if err != nil {
			return errorResult(fmt.Sprintf("graph generation failed: %v", err)), nil, nil
		}

		if err := s.eng.WriteArtifacts(); err != nil {
			log.Printf("[server] warning: failed to write artifacts: %v", err)
		}

		summary := fmt.Sprintf(
			"Graph generated successfully.\n\n"+
				"- Root: %s\n"+
				"- Nodes: %d\n"+
				"- Git history: %v\n"+
				"- Warnings: %d\n"+
				"- Duration: %s\n\n"+
				"Use the depmap://graph/full resource to read the graph.",
			result.Meta.Root,
			result.Meta.NodeCount,
			result.Meta.GitAnalyzed,
			len(result.Meta.Warnings),
			result.Meta.Duration,
		)

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: summary},
			},
		}, nil, nil
	})

	// Tool: query_nodes
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "query_nodes",
		Description: "Query graph nodes by kind or name substring. Returns matching nodes as JSON.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args queryNodesArgs) (*mcp.CallToolResult, any, error) {
		store := s.eng.Store()
		if store == nil || store.Len() == 0 {
			return errorResult("No graph available. Run generate_graph first."), nil, nil
		}

		var matched []*graph.Node
		for _, n := range store.All() {
			if args.Kind != "" && n.Kind != args.Kind {
				continue
			}
			if args.Name != "" && !strings.Contains(n.Name, args.Name) {
				continue
			}
			matched = append(matched, n)
		}

		data, err := json.MarshalIndent(matched, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal results: %v", err)), nil, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("%d nodes:\n%s", len(matched), data)},
			},
		}, nil, nil
	})

	// Tool: show_dependencies
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "show_dependencies",
		Description: "Show the outgoing and incoming dependencies of one node, including co-change coupling for files.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args showDependenciesArgs) (*mcp.CallToolResult, any, error) {
		store := s.eng.Store()
		if store == nil || store.Len() == 0 {
			return errorResult("No graph available. Run generate_graph first."), nil, nil
		}
		if args.Name == "" {
			return errorResult("name is required"), nil, nil
		}
		node := store.Get(args.Name)
		if node == nil {
			return errorResult(fmt.Sprintf("No node named %q", args.Name)), nil, nil
		}

		var incoming []string
		for _, n := range store.All() {
			if n.DepsSame.Has(args.Name) || n.DepsOther.Has(args.Name) {
				incoming = append(incoming, n.Name)
			}
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s (%s)\n", node.Name, node.Kind)
		fmt.Fprintf(&sb, "\nOutgoing (same module):\n")
		writeNameList(&sb, node.DepsSame.Sorted())
		fmt.Fprintf(&sb, "\nOutgoing (other modules):\n")
		writeNameList(&sb, node.DepsOther.Sorted())
		fmt.Fprintf(&sb, "\nIncoming:\n")
		writeNameList(&sb, incoming)
		if len(node.CoChange) > 0 {
			fmt.Fprintf(&sb, "\nCo-change coupling:\n")
			for _, dep := range graph.NewStringSet(keys(node.CoChange)...).Sorted() {
				fmt.Fprintf(&sb, "  %s (%.2f)\n", dep, node.CoChange[dep])
			}
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: sb.String()},
			},
		}, nil, nil
	})
}

func writeNameList(sb *strings.Builder, names []string) {
	if len(names) == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	for _, n := range names {
		fmt.Fprintf(sb, "  %s\n", n)
	}
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
