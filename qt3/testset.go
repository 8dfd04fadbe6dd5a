package qt3

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TestSet is one loaded test-set file: a named group of test-cases
// sharing a base directory, plus any set-level dependencies and
// environments its test-cases can reference by name.
type TestSet struct {
	Name         string
	Dir          string
	Dependencies []Dependency
	Environments map[string]*Environment
	TestCases    []*TestCase
}

// TestCase is a single <test-case>: an XPath expression (`test`) to
// run against a named or inline environment, plus the assertion tree
// (`result`) that decides whether its actual outcome is a pass.
type TestCase struct {
	Name         string
	Dependencies []Dependency
	Environment  *Environment
	Test         string
	Result       *Assertion
}

// Dependency is one <dependency type="..." value="..." satisfied="...">
// declaration (§ dependency, spec.md's "Environment/Dependency" node in
// the GLOSSARY): a precondition a test-case or its enclosing test-set
// requires the engine to satisfy before the test is meaningful.
type Dependency struct {
	Type      string
	Value     string
	Satisfied bool
}

type testSetXML struct {
	XMLName      xml.Name         `xml:"test-set"`
	Name         string           `xml:"name,attr"`
	Dependencies []dependencyXML  `xml:"dependency"`
	Environments []environmentXML `xml:"environment"`
	TestCases    []testCaseXML    `xml:"test-case"`
}

type dependencyXML struct {
	Type      string `xml:"type,attr"`
	Value     string `xml:"value,attr"`
	Satisfied string `xml:"satisfied,attr"`
}

type testCaseXML struct {
	Name         string           `xml:"name,attr"`
	Dependencies []dependencyXML  `xml:"dependency"`
	Environments []environmentXML `xml:"environment"`
	Test         string           `xml:"test"`
	Result       resultXML        `xml:"result"`
}

// LoadTestSet parses the test-set file at path.
func LoadTestSet(path string) (*TestSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("qt3: open test-set %q: %w", path, err)
	}
	defer f.Close()
	return parseTestSet(f, filepath.Dir(path))
}

func parseTestSet(r io.Reader, dir string) (*TestSet, error) {
	var raw testSetXML
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("qt3: parse test-set: %w", err)
	}
	ts := &TestSet{
		Name:         raw.Name,
		Dir:          dir,
		Environments: map[string]*Environment{},
	}
	for _, d := range raw.Dependencies {
		ts.Dependencies = append(ts.Dependencies, toDependency(d))
	}
	for _, e := range raw.Environments {
		env, err := toEnvironment(e, dir)
		if err != nil {
			return nil, err
		}
		ts.Environments[env.Name] = env
	}
	for _, tc := range raw.TestCases {
		case_, err := toTestCase(tc, ts, dir)
		if err != nil {
			return nil, fmt.Errorf("qt3: test-case %q: %w", tc.Name, err)
		}
		ts.TestCases = append(ts.TestCases, case_)
	}
	return ts, nil
}

func toDependency(d dependencyXML) Dependency {
	return Dependency{Type: d.Type, Value: d.Value, Satisfied: d.Satisfied != "false"}
}

func toTestCase(tc testCaseXML, ts *TestSet, dir string) (*TestCase, error) {
	case_ := &TestCase{Name: tc.Name, Test: tc.Test}
	for _, d := range tc.Dependencies {
		case_.Dependencies = append(case_.Dependencies, toDependency(d))
	}
	switch len(tc.Environments) {
	case 0:
		// no declared environment: run with an empty context, no
		// sources or params bound.
	case 1:
		e := tc.Environments[0]
		if e.Ref != "" {
			env, ok := ts.Environments[e.Ref]
			if !ok {
				return nil, fmt.Errorf("undefined environment ref %q", e.Ref)
			}
			case_.Environment = env
		} else {
			env, err := toEnvironment(e, dir)
			if err != nil {
				return nil, err
			}
			case_.Environment = env
		}
	default:
		return nil, fmt.Errorf("test-case declares %d environments, expected 0 or 1", len(tc.Environments))
	}
	result, err := parseResult(tc.Result)
	if err != nil {
		return nil, err
	}
	case_.Result = result
	return case_, nil
}
