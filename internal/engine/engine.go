// Package engine orchestrates the analysis pipeline: discover the tree,
// extract units, mine git history, aggregate and order the graph, and render
// the export documents.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"depmap/internal/config"
	"depmap/internal/discover"
	"depmap/internal/export"
	"depmap/internal/gitlog"
	"depmap/internal/graph"
	"depmap/internal/pyextract"
)

// Artifact names served by GetArtifact and written by WriteArtifacts.
const (
	ArtifactFull    = "graph_data.json"
	ArtifactModules = "graph_data_modules.json"
	ArtifactNodes   = "nodes.jsonl"
	ArtifactMeta    = "graph.meta.json"
)

// Result holds the outcome of one pipeline run.
type Result struct {
	Meta        Meta
	SortedNames []string
	Full        export.Document
	Modules     export.Document
}

// Meta describes how a result was produced.
type Meta struct {
	Root        string          `json:"root"`
	RootPath    string          `json:"root_path"`
	GeneratedAt string          `json:"generated_at"`
	Duration    string          `json:"duration"`
	NodeCount   int             `json:"node_count"`
	GitAnalyzed bool            `json:"git_analyzed"`
	Warnings    []graph.Warning `json:"warnings,omitempty"`
}

// Engine runs the pipeline and keeps the latest result for serving.
type Engine struct {
	cfg    *config.Config
	store  *graph.Store
	result *Result
}

// New creates an Engine with the given config.
func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Store returns the node store of the last run, or nil.
func (e *Engine) Store() *graph.Store {
	return e.store
}

// Result returns the last generated result, or nil.
func (e *Engine) Result() *Result {
	return e.result
}

// Config returns the engine config.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Generate runs the full pipeline on rootPath (falling back to the
// configured root).
func (e *Engine) Generate(ctx context.Context, rootPath string) (*Result, error) {
	start := time.Now()
	if rootPath == "" {
		rootPath = e.cfg.Root
	}

	// 1. Discover directories and files
	s, err := discover.Discover(rootPath, e.cfg.Ext)
	if err != nil {
		return nil, fmt.Errorf("discovering %s: %w", rootPath, err)
	}
	e.store = s
	log.Printf("[engine] discovered %d modules under %s", s.Len(), rootPath)

	// 2. Extract units and import edges
	extractor := pyextract.New(e.cfg.IncludeGlobals)
	if err := extractor.ExtractAll(s); err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}
	log.Printf("[engine] extracted %d units", len(s.Units()))

	// 3. Repair unit dependencies against the known unit set
	graph.RepairUnits(s)

	// 4. File metrics and git history
	gitAnalyzed := e.addFileMetrics(ctx, s)

	// 5. Aggregate incoming counts and directory roll-ups
	graph.CountIncoming(s)
	graph.PropagateDirectories(s)

	// 6. Order and render
	sortedNames := graph.SortedNames(s)
	full := export.Build(s, sortedNames)
	modules := export.Build(s, export.FilesOnly(s, sortedNames))

	result := &Result{
		Meta: Meta{
			Root:        s.Root(),
			RootPath:    rootPath,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Duration:    time.Since(start).String(),
			NodeCount:   s.Len(),
			GitAnalyzed: gitAnalyzed,
			Warnings:    s.Diagnostics().All(),
		},
		SortedNames: sortedNames,
		Full:        full,
		Modules:     modules,
	}
	e.result = result
	log.Printf("[engine] graph generated in %s (%d nodes, %d warnings)",
		result.Meta.Duration, result.Meta.NodeCount, len(result.Meta.Warnings))
	return result, nil
}

// addFileMetrics computes complexity for every file and, when enabled and
// the tree is under git, volatility and co-change weights. It reports
// whether git history was analyzed.
func (e *Engine) addFileMetrics(ctx context.Context, s *graph.Store) bool {
	files := s.Files()
	if len(files) == 0 {
		return false
	}

	gitDir, logPath := "", ""
	if e.cfg.Git.Enabled {
		logPath = filepath.Join(e.cfg.Output.Dir, "git_log.txt")
		dir, err := gitlog.Generate(ctx, files[0].Path, logPath, e.cfg.Git.Since)
		if err != nil {
			if errors.Is(err, gitlog.ErrNotGitRepo) {
				log.Printf("[engine] %v, skipping git analysis", err)
			} else {
				log.Printf("[engine] git log error: %v", err)
			}
			logPath = ""
		} else {
			gitDir = dir
		}
	}

	for _, f := range files {
		loc, _, indents, err := gitlog.FileStats(f.Path)
		if err != nil {
			log.Printf("[engine] stats error for %s: %v", f.Path, err)
			continue
		}
		f.Complexity = float64(indents) / float64(max(1, loc))

		if logPath == "" {
			continue
		}
		rel, err := relToGit(gitDir, f.Path)
		if err != nil {
			continue
		}
		_, lineChanges, err := gitlog.Revisions(logPath, rel)
		if err != nil {
			log.Printf("[engine] revisions error for %s: %v", rel, err)
			continue
		}
		f.Volatility = float64(lineChanges) / float64(max(1, loc))
		f.HasVolatility = true
	}

	if logPath == "" {
		return false
	}

	// map git-relative paths to module names so log entries can be matched
	pathMap := make(map[string]string, len(files))
	for _, f := range files {
		if rel, err := relToGit(gitDir, f.Path); err == nil {
			pathMap[rel] = f.Name
		}
	}
	counts, err := gitlog.CoChangeCounts(logPath, pathMap)
	if err != nil {
		log.Printf("[engine] co-change error: %v", err)
		return false
	}
	normed := gitlog.NormCounts(counts, e.cfg.Git.NormGlobal, e.cfg.Git.Scale)
	for _, f := range files {
		if deps, ok := normed[f.Name]; ok && len(deps) > 0 {
			f.CoChange = deps
		}
	}
	return true
}

// GenerateGitOnly skips source analysis entirely and builds a file graph
// from git history alone. Node names are repository-relative paths.
func (e *Engine) GenerateGitOnly(ctx context.Context, rootPath string) (*Result, error) {
	start := time.Now()
	if rootPath == "" {
		rootPath = e.cfg.Root
	}

	logPath := filepath.Join(e.cfg.Output.Dir, "git_log.txt")
	gitDir, err := gitlog.Generate(ctx, rootPath, logPath, e.cfg.Git.Since)
	if err != nil {
		return nil, err
	}

	counts, err := gitlog.CoChangeCounts(logPath, nil)
	if err != nil {
		return nil, err
	}
	normed := gitlog.NormCounts(counts, e.cfg.Git.NormGlobal, e.cfg.Git.Scale)

	s := graph.NewStore(gitDir)
	var names []string
	for rel, deps := range normed {
		fullPath := filepath.Join(gitDir, rel)
		// renamed or deleted files still show up in the log
		if fi, err := os.Stat(fullPath); err != nil || fi.IsDir() {
			continue
		}
		n := &graph.Node{
			Name:      rel,
			Kind:      graph.KindFile,
			Path:      fullPath,
			Level:     1,
			DepsSame:  graph.NewStringSet(),
			DepsOther: graph.NewStringSet(),
			CoChange:  deps,
		}
		loc, _, indents, err := gitlog.FileStats(fullPath)
		if err == nil {
			n.Complexity = float64(indents) / float64(max(1, loc))
		}
		_, lineChanges, err := gitlog.Revisions(logPath, rel)
		if err == nil {
			n.Volatility = float64(lineChanges) / float64(max(1, loc))
			n.HasVolatility = true
		}
		s.Add(n)
		names = append(names, rel)
	}
	sort.Strings(names)
	e.store = s

	doc := export.Build(s, names)
	result := &Result{
		Meta: Meta{
			Root:        gitDir,
			RootPath:    rootPath,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Duration:    time.Since(start).String(),
			NodeCount:   s.Len(),
			GitAnalyzed: true,
		},
		SortedNames: names,
		Full:        doc,
		Modules:     doc,
	}
	e.result = result
	log.Printf("[engine] git-only graph generated in %s (%d files)",
		result.Meta.Duration, len(names))
	return result, nil
}

// LoadNodes restores the store from a previous node dump, so the server can
// answer queries before the first generation. The export documents are not
// reconstructed; query tools work, artifact resources require a fresh run.
func (e *Engine) LoadNodes(path string) error {
	s := graph.NewStore("")
	if err := s.ReadJSONLFile(path); err != nil {
		return err
	}
	e.store = s
	log.Printf("[engine] loaded %d nodes from %s", s.Len(), path)
	return nil
}

// WriteArtifacts writes the export documents, the node dump and the run
// metadata to the output directory.
func (e *Engine) WriteArtifacts() error {
	if e.result == nil {
		return fmt.Errorf("no graph generated")
	}

	outDir := e.cfg.Output.Dir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	for _, name := range []string{ArtifactFull, ArtifactModules, ArtifactMeta} {
		data, err := e.GetArtifact(name)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		log.Printf("[engine] wrote %s (%d bytes)", path, len(data))
	}

	nodesPath := filepath.Join(outDir, ArtifactNodes)
	if err := e.store.WriteJSONLFile(nodesPath); err != nil {
		return fmt.Errorf("writing %s: %w", ArtifactNodes, err)
	}
	log.Printf("[engine] wrote %s", nodesPath)
	return nil
}

// GetArtifact returns the content of a named artifact.
func (e *Engine) GetArtifact(name string) ([]byte, error) {
	if e.result == nil {
		return nil, fmt.Errorf("no graph generated")
	}

	switch name {
	case ArtifactFull:
		return json.MarshalIndent(e.result.Full, "", "  ")
	case ArtifactModules:
		return json.MarshalIndent(e.result.Modules, "", "  ")
	case ArtifactMeta:
		return json.MarshalIndent(e.result.Meta, "", "  ")
	case ArtifactNodes:
		var buf bytes.Buffer
		if err := e.store.WriteJSONL(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("artifact %q not found", name)
	}
}

func relToGit(gitDir, path string) (string, error) {
	rel, err := filepath.Rel(gitDir, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
