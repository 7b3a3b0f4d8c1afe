package gitlog

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ExtractCommits reads a generated log and returns, per commit, the files it
// touched. When fileMap is non-nil, paths are translated through it and
// unmapped paths are dropped.
func ExtractCommits(logPath string, fileMap map[string]string) ([][]string, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", logPath, err)
	}
	defer f.Close()

	var commits [][]string
	var current []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, commitSeparator):
			if len(current) > 0 {
				commits = append(commits, current)
				current = nil
			}
		case line != "":
			parts := strings.Fields(line)
			if len(parts) != 3 {
				continue
			}
			filename := parts[2]
			if fileMap == nil {
				current = append(current, filename)
			} else if mapped, ok := fileMap[filename]; ok {
				current = append(current, mapped)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", logPath, err)
	}
	if len(current) > 0 {
		commits = append(commits, current)
	}
	return commits, nil
}

// CoChangeCounts tallies how often each pair of files appeared in the same
// commit. The result includes every file's count with itself, which equals
// its total commit count and serves as the normalization ceiling.
func CoChangeCounts(logPath string, fileMap map[string]string) (map[string]map[string]int, error) {
	commits, err := ExtractCommits(logPath, fileMap)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]map[string]int)
	for _, files := range commits {
		for _, f := range files {
			if counts[f] == nil {
				counts[f] = make(map[string]int)
			}
			for _, dep := range files {
				counts[f][dep]++
			}
		}
	}
	return counts, nil
}

// NormCounts converts raw co-change counts into weights in [0, scale] and
// removes each file's self entry. With normGlobal the divisor is the second
// highest commit count across all files, which keeps one extreme outlier
// from flattening every other weight; otherwise each file is normalized by
// its own commit count.
func NormCounts(counts map[string]map[string]int, normGlobal bool, scale float64) map[string]map[string]float64 {
	maxes := []int{1, 1}
	for _, deps := range counts {
		maxes = append(maxes, maxValue(deps))
	}
	sort.Sort(sort.Reverse(sort.IntSlice(maxes)))
	globalMax := maxes[1]

	normed := make(map[string]map[string]float64, len(counts))
	for f, deps := range counts {
		max := globalMax
		if !normGlobal {
			max = maxValue(deps)
		}
		out := make(map[string]float64, len(deps))
		for dep, count := range deps {
			if dep == f {
				continue
			}
			v := float64(count) / float64(max)
			if v > 1 {
				v = 1
			}
			out[dep] = scale * v
		}
		normed[f] = out
	}
	return normed
}

func maxValue(m map[string]int) int {
	max := 0
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	return max
}
