package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/altin/treeherder-cli/internal/model"
)

// ExtractRevision turns a CLI token into a revision hash. Tokens starting
// with "http" are parsed as Treeherder URLs and must carry a revision query
// parameter; anything else is taken as the revision itself.
func ExtractRevision(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty revision", model.ErrInvalidInput)
	}
	if !strings.HasPrefix(input, "http") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("%w: parse url %q: %v", model.ErrInvalidInput, input, err)
	}
	if rev := revisionParam(u.Query()); rev != "" {
		return rev, nil
	}
	// Treeherder's SPA keeps its query string in the fragment:
	// https://treeherder.mozilla.org/jobs?repo=try&revision=abc
	// is also shared as .../#/jobs?repo=try&revision=abc
	if i := strings.Index(u.Fragment, "?"); i >= 0 {
		if q, err := url.ParseQuery(u.Fragment[i+1:]); err == nil {
			if rev := revisionParam(q); rev != "" {
				return rev, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no revision found in URL %q", model.ErrInvalidInput, input)
}

func revisionParam(q url.Values) string {
	return strings.TrimSpace(q.Get("revision"))
}
