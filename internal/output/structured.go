package output

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cli/go-gh/v2/pkg/jsonpretty"
	"gopkg.in/yaml.v3"

	"github.com/altin/treeherder-cli/internal/model"
)

// JSONRenderer writes indented JSON, colourised when Color is set.
type JSONRenderer struct {
	Color bool
}

func (r *JSONRenderer) write(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if r.Color {
		return jsonpretty.Format(w, &buf, "  ", true)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (r *JSONRenderer) Jobs(w io.Writer, rep model.JobsReport) error {
	return r.write(w, jobsEnvelope(rep))
}

func (r *JSONRenderer) NoJobs(w io.Writer, revision string, pushID int64) error {
	return r.write(w, jobsEnvelope(model.JobsReport{Revision: revision, PushID: pushID}))
}

func (r *JSONRenderer) Grouped(w io.Writer, rep model.GroupedReport) error {
	return r.write(w, groupedEnvelope(rep))
}

func (r *JSONRenderer) Comparison(w io.Writer, c model.ComparisonResult) error {
	return r.write(w, c)
}

func (r *JSONRenderer) Perf(w io.Writer, rep model.PerfReport) error {
	if rep.Jobs == nil {
		rep.Jobs = []model.JobPerfData{}
	}
	return r.write(w, rep)
}

func (r *JSONRenderer) Artifacts(w io.Writer, rep model.ArtifactReport) error {
	return r.write(w, rep)
}

func (r *JSONRenderer) SimilarHistory(w io.Writer, h model.SimilarJobHistory) error {
	return r.write(w, h)
}

// YAMLRenderer writes the same envelopes as JSONRenderer in YAML.
type YAMLRenderer struct{}

func (r *YAMLRenderer) write(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (r *YAMLRenderer) Jobs(w io.Writer, rep model.JobsReport) error {
	return r.write(w, jobsEnvelope(rep))
}

func (r *YAMLRenderer) NoJobs(w io.Writer, revision string, pushID int64) error {
	return r.write(w, jobsEnvelope(model.JobsReport{Revision: revision, PushID: pushID}))
}

func (r *YAMLRenderer) Grouped(w io.Writer, rep model.GroupedReport) error {
	return r.write(w, groupedEnvelope(rep))
}

func (r *YAMLRenderer) Comparison(w io.Writer, c model.ComparisonResult) error {
	return r.write(w, c)
}

func (r *YAMLRenderer) Perf(w io.Writer, rep model.PerfReport) error {
	if rep.Jobs == nil {
		rep.Jobs = []model.JobPerfData{}
	}
	return r.write(w, rep)
}

func (r *YAMLRenderer) Artifacts(w io.Writer, rep model.ArtifactReport) error {
	return r.write(w, rep)
}

func (r *YAMLRenderer) SimilarHistory(w io.Writer, h model.SimilarJobHistory) error {
	return r.write(w, h)
}

// jobsEnvelope makes every slice non-nil so empty lists encode as [].
func jobsEnvelope(rep model.JobsReport) model.JobsReport {
	jobs := make([]model.JobWithLogs, len(rep.Jobs))
	for i, j := range rep.Jobs {
		if j.Errors == nil {
			j.Errors = []model.ErrorLine{}
		}
		if j.LogMatches == nil {
			j.LogMatches = []model.LogMatch{}
		}
		jobs[i] = j
	}
	rep.Jobs = jobs
	return rep
}

func groupedEnvelope(rep model.GroupedReport) model.GroupedReport {
	if rep.GroupedFailures == nil {
		rep.GroupedFailures = []model.GroupedTestFailure{}
	}
	return rep
}
