package qt3

import (
	"fmt"
	"strings"

	"github.com/arborxml/xpath"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree/memtree"
)

// Status is a test-case's final outcome.
type Status int

const (
	Passed Status = iota
	Failed
	RunError
	Unsupported
	NotApplicable
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "pass"
	case Failed:
		return "fail"
	case RunError:
		return "error"
	case Unsupported:
		return "unsupported"
	case NotApplicable:
		return "n/a"
	default:
		return "unknown"
	}
}

// Outcome is one test-case's result: its status plus a short reason
// for anything other than Passed.
type Outcome struct {
	TestSet  string
	TestCase string
	Status   Status
	Reason   string
}

// knownDependency reports whether this engine satisfies the named
// dependency declaration (§ dependency handling, GLOSSARY
// "Environment/Dependency"): a spec-version or feature precondition a
// test-set or test-case requires before its expression is even
// meaningful to run. Unrecognized dependency types are treated as
// satisfied optimistically, matching xee-testrunner's default of
// running everything it doesn't explicitly know how to gate
// (original_source/xee-testrunner/src/cli.rs's known-dependencies
// table), since an engine that over-runs produces a visible failure
// while one that over-skips hides coverage silently.
func knownDependency(d Dependency) bool {
	switch d.Type {
	case "spec":
		return strings.Contains(d.Value, "XP30") || strings.Contains(d.Value, "XP31") ||
			strings.Contains(d.Value, "XQ30") || strings.Contains(d.Value, "XQ31")
	case "feature":
		switch d.Value {
		case "higherOrderFunctions", "moduleImport":
			return d.Value == "higherOrderFunctions"
		}
		return true
	default:
		return true
	}
}

func unmetDependency(deps ...[]Dependency) (Dependency, bool) {
	for _, group := range deps {
		for _, d := range group {
			if d.Satisfied && !knownDependency(d) {
				return d, true
			}
		}
	}
	return Dependency{}, false
}

// RunTestCase evaluates tc (declared in test-set ts, whose directory
// resolves its environment's source files) and returns its outcome.
func RunTestCase(ts *TestSet, tc *TestCase) Outcome {
	out := Outcome{TestSet: ts.Name, TestCase: tc.Name}
	if d, unmet := unmetDependency(ts.Dependencies, tc.Dependencies); unmet {
		out.Status = NotApplicable
		out.Reason = fmt.Sprintf("unmet dependency %s=%s", d.Type, d.Value)
		return out
	}

	store := memtree.NewStore()
	bound, err := tc.Environment.Bind(store, ts.Dir)
	if err != nil {
		out.Status = RunError
		out.Reason = err.Error()
		return out
	}

	opts := xpath.CompileOptions{Namespaces: bound.Namespaces}
	prog, err := xpath.CompileWithParams(tc.Test, bound.ParamNames, opts)
	if err != nil {
		return finishWithError(out, tc, err)
	}
	it := xpath.NewInterpreter(xpath.WithStore(store))
	var runArgs []sequence.Sequence
	for _, v := range bound.ParamValues {
		runArgs = append(runArgs, v)
	}
	actual, err := runWithContext(it, prog, bound, runArgs)
	if err != nil {
		return finishWithError(out, tc, err)
	}

	if code, isErr := tc.Result.ExpectedErrorCode(); isErr {
		out.Status = Failed
		out.Reason = fmt.Sprintf("expected error %s, evaluation succeeded", code)
		return out
	}

	eval := func(expr string) (sequence.Sequence, error) {
		names := append([]string{"result"}, bound.ParamNames...)
		p, err := xpath.CompileWithParams(expr, names, opts)
		if err != nil {
			return sequence.Sequence{}, err
		}
		args := append([]sequence.Sequence{actual}, bound.ParamValues...)
		return xpath.CallWithParams(it, p, args)
	}
	ok, reason, err := tc.Result.Evaluate(actual, eval)
	if err != nil {
		out.Status = RunError
		out.Reason = err.Error()
		return out
	}
	if ok {
		out.Status = Passed
		return out
	}
	if tc.Result.Kind == KindUnsupported {
		out.Status = Unsupported
		out.Reason = reason
		return out
	}
	out.Status = Failed
	out.Reason = reason
	return out
}

func finishWithError(out Outcome, tc *TestCase, err error) Outcome {
	if code, isErr := tc.Result.ExpectedErrorCode(); isErr {
		if code == "*" || strings.Contains(err.Error(), code) {
			out.Status = Passed
			return out
		}
		out.Status = Failed
		out.Reason = fmt.Sprintf("expected error %s, got %v", code, err)
		return out
	}
	out.Status = RunError
	out.Reason = err.Error()
	return out
}

func runWithContext(it *xpath.Interpreter, prog *xpath.Program, bound Bound, params []sequence.Sequence) (sequence.Sequence, error) {
	if len(params) == 0 {
		return xpath.Run(it, prog, xpath.RunOptions{ContextNode: bound.ContextNode, HasContext: bound.HasContext})
	}
	return xpath.CallWithParamsAndContext(it, prog, bound.ContextNode, bound.HasContext, params)
}

// RunTestSet runs every test-case in ts and returns their outcomes in
// declaration order.
func RunTestSet(ts *TestSet) []Outcome {
	out := make([]Outcome, 0, len(ts.TestCases))
	for _, tc := range ts.TestCases {
		out = append(out, RunTestCase(ts, tc))
	}
	return out
}

// RunCatalog loads and runs every test-set cat references, skipping
// (as a RunError outcome) any test-set file that fails to load, and
// applying f (if non-nil) to select which test-sets and test-cases to
// run.
func RunCatalog(cat *Catalog, f *Filter) []Outcome {
	var out []Outcome
	for _, ref := range cat.TestSets {
		if f != nil && !f.AllowsTestSet(ref.Name) {
			continue
		}
		ts, err := LoadTestSet(cat.Path(ref))
		if err != nil {
			out = append(out, Outcome{TestSet: ref.Name, Status: RunError, Reason: err.Error()})
			continue
		}
		for _, tc := range ts.TestCases {
			if f != nil && !f.Allows(ts.Name, tc.Name) {
				continue
			}
			out = append(out, RunTestCase(ts, tc))
		}
	}
	return out
}

