// Package output renders reports as text, JSON or YAML.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/altin/treeherder-cli/internal/model"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: invalid --format %q (want text, json or yaml)", model.ErrInvalidInput, s)
	}
}

// Renderer writes one report per call.
type Renderer interface {
	Jobs(w io.Writer, r model.JobsReport) error
	// NoJobs reports a live fetch whose filters left nothing.
	NoJobs(w io.Writer, revision string, pushID int64) error
	Grouped(w io.Writer, r model.GroupedReport) error
	Comparison(w io.Writer, r model.ComparisonResult) error
	Perf(w io.Writer, r model.PerfReport) error
	Artifacts(w io.Writer, r model.ArtifactReport) error
	SimilarHistory(w io.Writer, h model.SimilarJobHistory) error
}

// Options describe the destination of text output.
type Options struct {
	TTY             bool
	Color           bool
	Width           int
	ShowStackTraces bool
}

func New(f Format, opts Options) Renderer {
	switch f {
	case FormatJSON:
		return &JSONRenderer{Color: opts.Color}
	case FormatYAML:
		return &YAMLRenderer{}
	default:
		return NewTextRenderer(opts)
	}
}
