package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"depmap/internal/config"
	"depmap/internal/engine"
	"depmap/internal/server"
)

func main() {
	// Ensure log output goes to stderr, never stdout (MCP uses stdout for JSON-RPC)
	log.SetOutput(os.Stderr)

	ctx := context.Background()

	// Parse flags: --generate for one-shot mode, --git-only for history-only
	// graphs, anything else is the config path or the root to analyze
	generateMode := false
	gitOnly := false
	cfgPath := "depmap.yaml"
	rootArg := ""
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--generate":
			generateMode = true
		case "--git-only":
			generateMode = true
			gitOnly = true
		default:
			if fi, err := os.Stat(arg); err == nil && fi.IsDir() {
				rootArg = arg
			} else {
				cfgPath = arg
			}
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		// If config file doesn't exist, use defaults
		fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
		cfg = config.Default()
	}
	if rootArg != "" {
		cfg.Root = rootArg
	}

	eng := engine.New(cfg)

	// One-shot generation mode
	if generateMode {
		var result *engine.Result
		if gitOnly {
			result, err = eng.GenerateGitOnly(ctx, cfg.Root)
		} else {
			result, err = eng.Generate(ctx, cfg.Root)
		}
		if err != nil {
			log.Fatalf("graph generation failed: %v", err)
		}

		if err := eng.WriteArtifacts(); err != nil {
			log.Fatalf("failed to write artifacts: %v", err)
		}

		fmt.Fprintf(os.Stderr, "\nGraph complete:\n")
		fmt.Fprintf(os.Stderr, "  Root:        %s\n", result.Meta.Root)
		fmt.Fprintf(os.Stderr, "  Nodes:       %d\n", result.Meta.NodeCount)
		fmt.Fprintf(os.Stderr, "  Git history: %v\n", result.Meta.GitAnalyzed)
		fmt.Fprintf(os.Stderr, "  Warnings:    %d\n", len(result.Meta.Warnings))
		fmt.Fprintf(os.Stderr, "  Duration:    %s\n", result.Meta.Duration)
		fmt.Fprintf(os.Stderr, "  Output:      %s\n", cfg.Output.Dir)
		os.Exit(0)
	}

	// Auto-load nodes from a previous run if available (so queries work
	// immediately without requiring a generate_graph call first).
	nodesPath := filepath.Join(cfg.Output.Dir, engine.ArtifactNodes)
	if _, err := os.Stat(nodesPath); err == nil {
		log.Printf("[main] loading existing graph from %s", nodesPath)
		if err := eng.LoadNodes(nodesPath); err != nil {
			log.Printf("[main] warning: failed to load existing graph: %v", err)
		}
	}

	// MCP server mode (default)
	srv, err := server.New(eng, cfg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
