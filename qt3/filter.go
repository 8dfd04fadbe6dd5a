package qt3

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// rule is one filter-file line: a glob pattern over "test-set" or
// "test-set/test-case", plus whether it includes or excludes matches.
type rule struct {
	include bool
	pattern string
}

// Filter selects which test-sets and test-cases RunCatalog runs, built
// from a filter file of "+like:glob" / "-like:glob" lines (SPEC_FULL.md
// §C.5), evaluated top-to-bottom with the last matching rule winning --
// an empty Filter (no rules at all) allows everything, so a filter file
// that only excludes a few patterns need not also re-include the rest.
type Filter struct {
	rules []rule
}

// ParseFilter reads a filter file: each non-blank, non-'#'-comment line
// is "+like:pattern" (include) or "-like:pattern" (exclude), where
// pattern is a path.Match glob matched against "test-set-name" (for a
// test-set-level rule) or "test-set-name/test-case-name" (for a
// test-case-level rule).
func ParseFilter(r io.Reader) (*Filter, error) {
	f := &Filter{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var include bool
		switch {
		case strings.HasPrefix(line, "+like:"):
			include = true
			line = strings.TrimPrefix(line, "+like:")
		case strings.HasPrefix(line, "-like:"):
			include = false
			line = strings.TrimPrefix(line, "-like:")
		default:
			return nil, fmt.Errorf("qt3: filter line %q: must start with +like: or -like:", sc.Text())
		}
		f.rules = append(f.rules, rule{include: include, pattern: line})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// LoadFilter reads a filter file from path.
func LoadFilter(path string) (*Filter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseFilter(f)
}

// AllowsTestSet reports whether any test-case in testSet could still be
// selected, used by RunCatalog to skip loading a test-set file entirely
// when a pattern would exclude all of it outright (a pattern with no
// "/" only ever matches at the test-set level).
func (f *Filter) AllowsTestSet(testSet string) bool {
	if f == nil || len(f.rules) == 0 {
		return true
	}
	allowed := true
	for _, r := range f.rules {
		if !strings.Contains(r.pattern, "/") {
			if ok, _ := path.Match(r.pattern, testSet); ok {
				allowed = r.include
			}
		}
	}
	return allowed
}

// Allows reports whether the test-case testSet/testCase should run.
func (f *Filter) Allows(testSet, testCase string) bool {
	if f == nil || len(f.rules) == 0 {
		return true
	}
	full := testSet + "/" + testCase
	allowed := true
	for _, r := range f.rules {
		pat := r.pattern
		var ok bool
		if strings.Contains(pat, "/") {
			ok, _ = path.Match(pat, full)
		} else {
			ok, _ = path.Match(pat, testSet)
		}
		if ok {
			allowed = r.include
		}
	}
	return allowed
}
