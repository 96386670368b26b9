package assertions

import (
	"context"
	"fmt"
	"net/url"

	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
	"github.com/abdul-hamid-achik/apythia/packages/expected"
	"github.com/abdul-hamid-achik/apythia/packages/http"
)

// matchAllParts requires a one-to-one assignment between expected and actual
// parts. Declaration order does not matter.
func (e *Evaluator) matchAllParts(ctx context.Context, c *failure.Collector, exp []*expected.FormDataPart, actual []*http.ActualPart, method string, u *url.URL) error {
	if len(exp) != len(actual) {
		c.Fail(len(exp), len(actual), "expected %d part(s), got %d", len(exp), len(actual))
	}

	assigned, err := e.assignParts(ctx, exp, actual, method, u)
	if err != nil {
		return err
	}
	used := usedParts(assigned, len(actual))

	for j, i := range assigned {
		if i < 0 {
			if err := e.explainUnmatched(ctx, c, exp[j], actual, used, method, u); err != nil {
				return err
			}
		}
	}
	for i, a := range actual {
		if !used[i] {
			c.Fail(nil, describePart(a), "unexpected %s", describePart(a))
		}
	}
	return nil
}

// matchSomeParts requires each expected part to have its own actual part and
// no actual part to carry a missing name. Extra actual parts are ignored.
func (e *Evaluator) matchSomeParts(ctx context.Context, c *failure.Collector, exp expected.PartialMultipartFormDataBody, actual []*http.ActualPart, method string, u *url.URL) error {
	assigned, err := e.assignParts(ctx, exp.Parts, actual, method, u)
	if err != nil {
		return err
	}
	used := usedParts(assigned, len(actual))

	for j, i := range assigned {
		if i < 0 {
			if err := e.explainUnmatched(ctx, c, exp.Parts[j], actual, used, method, u); err != nil {
				return err
			}
		}
	}

	if len(exp.MissingParts) > 0 {
		c.WithClue("missing parts", func() {
			for _, name := range exp.MissingParts {
				for _, a := range actual {
					if a.Name == name {
						c.Fail(nil, describePart(a), "expected no part named %q, but found %s", name, describePart(a))
						break
					}
				}
			}
		})
	}
	return nil
}

// assignParts computes a maximum bipartite matching between expected and
// actual parts. The result holds, per expected part, the index of its actual
// part or -1.
func (e *Evaluator) assignParts(ctx context.Context, exp []*expected.FormDataPart, actual []*http.ActualPart, method string, u *url.URL) ([]int, error) {
	fits := make([][]bool, len(exp))
	for j, p := range exp {
		fits[j] = make([]bool, len(actual))
		for i, a := range actual {
			ok, err := e.partMatches(ctx, p, a, method, u)
			if err != nil {
				return nil, err
			}
			fits[j][i] = ok
		}
	}

	owner := make([]int, len(actual))
	for i := range owner {
		owner[i] = -1
	}
	var augment func(j int, seen []bool) bool
	augment = func(j int, seen []bool) bool {
		for i := range actual {
			if !fits[j][i] || seen[i] {
				continue
			}
			seen[i] = true
			if owner[i] < 0 || augment(owner[i], seen) {
				owner[i] = j
				return true
			}
		}
		return false
	}
	for j := range exp {
		augment(j, make([]bool, len(actual)))
	}

	assigned := make([]int, len(exp))
	for j := range assigned {
		assigned[j] = -1
	}
	for i, j := range owner {
		if j >= 0 {
			assigned[j] = i
		}
	}
	return assigned, nil
}

func usedParts(assigned []int, n int) []bool {
	used := make([]bool, n)
	for _, i := range assigned {
		if i >= 0 {
			used[i] = true
		}
	}
	return used
}

// partMatches reports whether a satisfies p without recording anything.
func (e *Evaluator) partMatches(ctx context.Context, p *expected.FormDataPart, a *http.ActualPart, method string, u *url.URL) (bool, error) {
	if p.Name != a.Name || !filenameMatches(p.Filename, a.Filename) {
		return false, nil
	}
	sub := &failure.Collector{}
	if err := e.matchPartContent(ctx, sub, p, a, method, u); err != nil {
		return false, err
	}
	return len(sub.Failures()) == 0, nil
}

// explainUnmatched records why p found no actual part, comparing it with the
// closest candidate of the same name.
func (e *Evaluator) explainUnmatched(ctx context.Context, c *failure.Collector, p *expected.FormDataPart, actual []*http.ActualPart, used []bool, method string, u *url.URL) error {
	var candidate *http.ActualPart
	for i, a := range actual {
		if a.Name != p.Name {
			continue
		}
		if candidate == nil || !used[i] {
			candidate = a
		}
		if !used[i] {
			break
		}
	}

	var err error
	c.WithClue(p.String(), func() {
		if candidate == nil {
			c.Fail(p.Name, partNames(actual), "no actual part named %q, got %q", p.Name, partNames(actual))
			return
		}
		sub := &failure.Collector{}
		if p.Filename != nil && !filenameMatches(p.Filename, candidate.Filename) {
			sub.WithClue("filename", func() {
				sub.Fail(*p.Filename, candidate.Filename, "expected %q, got %s", *p.Filename, formatFilename(candidate.Filename))
			})
		}
		if err = e.matchPartContent(ctx, sub, p, candidate, method, u); err != nil {
			return
		}
		if len(sub.Failures()) == 0 {
			c.Fail(p.Name, describePart(candidate), "%s is already matched by another expected part", describePart(candidate))
			return
		}
		c.Merge(sub.Failures())
	})
	return err
}

func (e *Evaluator) matchPartContent(ctx context.Context, c *failure.Collector, p *expected.FormDataPart, a *http.ActualPart, method string, u *url.URL) error {
	if p.Headers != nil {
		c.WithClue("headers", func() {
			matchHeaders(c, p.Headers, a.Headers)
		})
	}
	if p.Body == nil {
		return nil
	}
	var err error
	c.WithClue("body", func() {
		err = e.matchBody(ctx, c, p.Body, method, u, a.Message)
	})
	return err
}

func filenameMatches(want, got *string) bool {
	if want == nil {
		return true
	}
	return got != nil && *got == *want
}

func formatFilename(f *string) string {
	if f == nil {
		return "no filename"
	}
	return fmt.Sprintf("%q", *f)
}

func describePart(a *http.ActualPart) string {
	if a.Filename != nil {
		return fmt.Sprintf("part %q (filename %q)", a.Name, *a.Filename)
	}
	return fmt.Sprintf("part %q", a.Name)
}

func partNames(actual []*http.ActualPart) []string {
	names := make([]string, len(actual))
	for i, a := range actual {
		names[i] = a.Name
	}
	return names
}
