package search

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/altin/treeherder-cli/internal/model"
)

// Engine scans log text line by line for a regular expression.
type Engine struct {
	re *regexp.Regexp
}

// New returns an engine for re. A nil engine, or one built from a nil
// regexp, matches nothing.
func New(re *regexp.Regexp) *Engine {
	return &Engine{re: re}
}

func (e *Engine) Active() bool {
	return e != nil && e.re != nil
}

// Scan returns every line of content matching the pattern, numbered from 1.
// Lines are captured whole.
func (e *Engine) Scan(logName, content string) []model.LogMatch {
	if !e.Active() || content == "" {
		return nil
	}

	var matches []model.LogMatch
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if e.re.MatchString(line) {
			matches = append(matches, model.LogMatch{
				LogName:     logName,
				LineNumber:  i + 1,
				LineContent: line,
			})
		}
	}
	return matches
}

func (e *Engine) ScanFile(logName, path string) ([]model.LogMatch, error) {
	if !e.Active() {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log %s: %w", path, err)
	}
	return e.Scan(logName, string(data)), nil
}
