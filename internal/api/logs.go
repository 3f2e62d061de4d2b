package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/altin/treeherder-cli/internal/model"
)

// IsErrorSummaryLog reports whether a log reference is worth fetching as a
// structured error summary.
func IsErrorSummaryLog(ref model.LogReference) bool {
	return strings.Contains(ref.Name, "error") || strings.Contains(ref.Name, "summary")
}

// ErrorSummary fetches an errorsummary log and returns its failed
// test_result records. URLs that do not name an errorsummary resource yield
// no records without a request.
func (c *Client) ErrorSummary(ctx context.Context, logURL string) ([]model.ErrorLine, error) {
	if !strings.Contains(logURL, "errorsummary") {
		return nil, nil
	}
	data, err := c.getBytes(ctx, "fetch error summary", logURL)
	if err != nil {
		return nil, err
	}
	return ParseErrorSummary(bytes.NewReader(data)), nil
}

// ParseErrorSummary decodes NDJSON records one line at a time. Lines that
// are not valid records are dropped. Lines have no length limit.
func ParseErrorSummary(r io.Reader) []model.ErrorLine {
	var errs []model.ErrorLine
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadBytes('\n')
		if rec, ok := decodeErrorLine(raw); ok {
			errs = append(errs, rec)
		}
		if err != nil {
			return errs
		}
	}
}

func decodeErrorLine(raw []byte) (model.ErrorLine, bool) {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 || line[0] != '{' {
		return model.ErrorLine{}, false
	}
	var rec model.ErrorLine
	if err := json.Unmarshal(line, &rec); err != nil {
		return model.ErrorLine{}, false
	}
	return rec, rec.IsFailure()
}

// DownloadLog streams a raw log into w.
func (c *Client) DownloadLog(ctx context.Context, logURL string, w io.Writer) (int64, error) {
	return c.download(ctx, "download log", logURL, w)
}
