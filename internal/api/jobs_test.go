package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/altin/treeherder-cli/internal/model"
)

func decodeJobs(t *testing.T, raw string) model.JobsResponse {
	t.Helper()
	var resp model.JobsResponse
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func int64p(v int64) *int64 { return &v }

func TestNormalizeJobsColumnOrderIndependent(t *testing.T) {
	a := decodeJobs(t, `{
		"job_property_names": ["id","job_type_name","job_type_symbol","platform","platform_option","result","state","failure_classification_id","duration"],
		"results": [[11,"test-linux64/opt-mochitest-1","M1","linux64","opt","testfailed","completed",4,1200]]
	}`)
	b := decodeJobs(t, `{
		"job_property_names": ["duration","state","platform","failure_classification_id","result","platform_option","job_type_symbol","job_type_name","id"],
		"results": [[1200,"completed","linux64",4,"testfailed","opt","M1","test-linux64/opt-mochitest-1",11]]
	}`)

	want := []model.Job{{
		ID:                      11,
		JobTypeName:             "test-linux64/opt-mochitest-1",
		JobTypeSymbol:           "M1",
		Platform:                "linux64",
		PlatformOption:          "opt",
		Result:                  model.ResultTestFailed,
		State:                   model.StateCompleted,
		FailureClassificationID: int64p(4),
		Duration:                int64p(1200),
	}}
	if diff := cmp.Diff(want, NormalizeJobs(a)); diff != "" {
		t.Errorf("NormalizeJobs(a) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(NormalizeJobs(a), NormalizeJobs(b)); diff != "" {
		t.Errorf("permuted columns changed the result (-a +b):\n%s", diff)
	}
}

func TestNormalizeJobsSkipsMalformedRows(t *testing.T) {
	resp := decodeJobs(t, `{
		"job_property_names": ["id","job_type_name","job_type_symbol","platform","result","state"],
		"results": [
			[1,"build","B","linux","success","completed"],
			[2,"build","B","linux","success"],
			["3","build","B","linux","success","completed"],
			[4,null,"B","linux","success","completed"],
			[5,"test","T","win","busted","completed"],
			[-6,"test","T","win","busted","completed"]
		]
	}`)

	jobs := NormalizeJobs(resp)
	var ids []int64
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	if diff := cmp.Diff([]int64{1, 5}, ids); diff != "" {
		t.Errorf("kept ids mismatch (-want +got):\n%s", diff)
	}
	for _, j := range jobs {
		if j.PlatformOption != "" || j.Duration != nil || j.FailureClassificationID != nil {
			t.Errorf("optional fields of job %d should default to empty, got %+v", j.ID, j)
		}
	}
}

func TestNormalizeJobsMissingRequiredColumn(t *testing.T) {
	resp := decodeJobs(t, `{
		"job_property_names": ["id","job_type_name","platform","result","state"],
		"results": [[1,"build","linux","success","completed"]]
	}`)
	if got := NormalizeJobs(resp); len(got) != 0 {
		t.Errorf("NormalizeJobs() returned %d jobs, want 0", len(got))
	}
}

func TestListJobs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("push_id"); got != "77" {
			t.Errorf("push_id = %q, want 77", got)
		}
		fmt.Fprint(w, `{"job_property_names":["id","job_type_name","job_type_symbol","platform","result","state"],
			"results":[[1,"build","B","linux","success","completed"]]}`)
	})
	c := newTestClient(t, mux)

	jobs, err := c.ListJobs(context.Background(), 77)
	if err != nil {
		t.Fatalf("ListJobs() error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].JobTypeName != "build" {
		t.Errorf("ListJobs() = %+v, want one build job", jobs)
	}
}

func TestPushID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/project/try/push/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("full") != "true" || q.Get("count") != "10" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		switch q.Get("revision") {
		case "abc":
			fmt.Fprint(w, `{"results":[{"id":123,"revision":"abc"},{"id":5,"revision":"abc"}]}`)
		default:
			fmt.Fprint(w, `{"results":[]}`)
		}
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	id, err := c.PushID(ctx, "try", "abc")
	if err != nil || id != 123 {
		t.Errorf("PushID(abc) = %d, %v, want 123, nil", id, err)
	}
	if _, err := c.PushID(ctx, "try", "zzz"); err == nil {
		t.Error("PushID(zzz) should fail when no push matches")
	}
}

func TestPushFilterQueryString(t *testing.T) {
	tests := []struct {
		name   string
		filter PushFilter
		want   string
	}{
		{name: "defaults", filter: PushFilter{}, want: "?count=10&full=true"},
		{name: "revision", filter: PushFilter{Revision: "abc"}, want: "?count=10&full=true&revision=abc"},
		{name: "count", filter: PushFilter{Count: 3}, want: "?count=3&full=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.QueryString(); got != tt.want {
				t.Errorf("QueryString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetJobDetailTask(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/project/try/jobs/9/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":9,"job_type_name":"t","platform":"p","result":"busted",
			"logs":[{"name":"errorsummary_json","url":"https://x/errorsummary.log"}],
			"task_id":"TASK","retry_id":0}`)
	})
	mux.HandleFunc("/api/project/try/jobs/10/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":10,"job_type_name":"t","platform":"p","result":"busted","logs":[]}`)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	d, err := c.GetJobDetail(ctx, "try", 9)
	if err != nil {
		t.Fatal(err)
	}
	task, retry, ok := d.Task()
	if !ok || task != "TASK" || retry != 0 {
		t.Errorf("Task() = %q, %d, %v, want TASK, 0, true", task, retry, ok)
	}
	if len(d.Logs) != 1 || d.Logs[0].Name != "errorsummary_json" {
		t.Errorf("Logs = %+v", d.Logs)
	}

	d, err = c.GetJobDetail(ctx, "try", 10)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := d.Task(); ok {
		t.Error("Task() ok = true for a job without task metadata")
	}
}

func TestSimilarJobs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/project/autoland/jobs/5/similar_jobs/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("count"); got != "20" {
			t.Errorf("count = %q, want 20", got)
		}
		fmt.Fprint(w, `{"results":[{"id":1,"job_type_name":"t","platform":"p","result":"success","state":"completed","push_id":3}],
			"meta":{"count":1,"repository":"autoland"}}`)
	})
	c := newTestClient(t, mux)

	resp, err := c.SimilarJobs(context.Background(), "autoland", 5, 20)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Meta.Repository != "autoland" || len(resp.Results) != 1 || resp.Results[0].PushID != 3 {
		t.Errorf("SimilarJobs() = %+v", resp)
	}
}
