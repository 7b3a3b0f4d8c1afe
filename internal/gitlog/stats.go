package gitlog

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FileStats returns line statistics for a source file: total lines, lines
// that are not blank, and the total amount of leading whitespace with tabs
// counted as four spaces. Indentation per line is a cheap proxy for nesting
// depth and therefore complexity.
func FileStats(path string) (loc, nonEmpty, indents int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		loc++
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
		for _, ch := range line {
			if ch == '\t' {
				indents += 4
			} else if ch == ' ' {
				indents++
			} else {
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return loc, nonEmpty, indents, nil
}

// Revisions scans a generated log for one file and returns how many commits
// touched it and the total number of added plus removed lines. Binary file
// markers in numstat output count as zero changed lines.
func Revisions(logPath, filename string) (commits, lineChanges int, err error) {
	f, err := os.Open(logPath)
	if err != nil {
		return 0, 0, fmt.Errorf("opening %s: %w", logPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commitSeparator) {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 3 || parts[2] != filename {
			continue
		}
		commits++
		lineChanges += atoiOrZero(parts[0]) + atoiOrZero(parts[1])
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, fmt.Errorf("reading %s: %w", logPath, err)
	}
	return commits, lineChanges, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
