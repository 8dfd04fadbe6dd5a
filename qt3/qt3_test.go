package qt3

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, dir string, testSetXML string) *Catalog {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "basic.xml"), []byte(testSetXML), 0o644))
	catalogXML := `<catalog name="demo"><test-set name="basic" file="basic.xml"/></catalog>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.xml"), []byte(catalogXML), 0o644))
	cat, err := LoadCatalog(filepath.Join(dir, "catalog.xml"))
	require.NoError(t, err)
	return cat
}

func TestRunCatalogBasicAssertions(t *testing.T) {
	dir := t.TempDir()
	cat := writeCatalog(t, dir, `<test-set name="basic">
  <test-case name="simple-add">
    <test>1 + 1</test>
    <result><assert-eq>2</assert-eq></result>
  </test-case>
  <test-case name="string-value">
    <test>'hello'</test>
    <result><assert-string-value>hello</assert-string-value></result>
  </test-case>
  <test-case name="count-and-deep-eq">
    <test>(1, 2, 3)</test>
    <result><all-of>
      <assert-count>3</assert-count>
      <assert-deep-eq>(1, 2, 3)</assert-deep-eq>
    </all-of></result>
  </test-case>
  <test-case name="failing">
    <test>1 + 1</test>
    <result><assert-eq>3</assert-eq></result>
  </test-case>
</test-set>`)

	outcomes := RunCatalog(cat, nil)
	byName := map[string]Outcome{}
	for _, o := range outcomes {
		byName[o.TestCase] = o
	}
	require.Equal(t, Passed, byName["simple-add"].Status)
	require.Equal(t, Passed, byName["string-value"].Status)
	require.Equal(t, Passed, byName["count-and-deep-eq"].Status, byName["count-and-deep-eq"].Reason)
	require.Equal(t, Failed, byName["failing"].Status, byName["failing"].Reason)
}

func TestRunCatalogExpectedError(t *testing.T) {
	dir := t.TempDir()
	cat := writeCatalog(t, dir, `<test-set name="basic">
  <test-case name="div-zero">
    <test>1 div 0</test>
    <result><error code="FOAR0001"/></result>
  </test-case>
  <test-case name="no-error-expected-one">
    <test>1 + 1</test>
    <result><error code="FOAR0001"/></result>
  </test-case>
</test-set>`)

	outcomes := RunCatalog(cat, nil)
	byName := map[string]Outcome{}
	for _, o := range outcomes {
		byName[o.TestCase] = o
	}
	require.Equal(t, Passed, byName["div-zero"].Status)
	require.Equal(t, Failed, byName["no-error-expected-one"].Status)
}

func TestRunCatalogUnsupportedSerialization(t *testing.T) {
	dir := t.TempDir()
	cat := writeCatalog(t, dir, `<test-set name="basic">
  <test-case name="needs-serializer">
    <test>1 + 1</test>
    <result><assert-xml>2</assert-xml></result>
  </test-case>
</test-set>`)

	outcomes := RunCatalog(cat, nil)
	require.Len(t, outcomes, 1)
	require.Equal(t, Unsupported, outcomes[0].Status)
}

func TestRunCatalogEnvironmentSourceAndParam(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.xml"), []byte(`<root><a>1</a><a>2</a></root>`), 0o644))
	cat := writeCatalog(t, dir, `<test-set name="basic">
  <environment name="env1">
    <source role="." file="doc.xml"/>
    <param name="extra" select="10"/>
  </environment>
  <test-case name="count-children">
    <environment ref="env1"/>
    <test>count(/root/a) + $extra</test>
    <result><assert-eq>12</assert-eq></result>
  </test-case>
</test-set>`)

	outcomes := RunCatalog(cat, nil)
	require.Len(t, outcomes, 1)
	require.Equal(t, Passed, outcomes[0].Status, outcomes[0].Reason)
}

func TestFilterSelectsSubset(t *testing.T) {
	f, err := ParseFilter(strings.NewReader("-like:basic/*\n+like:basic/keep-me\n"))
	require.NoError(t, err)
	require.True(t, f.Allows("basic", "keep-me"))
	require.False(t, f.Allows("basic", "drop-me"))
}

func TestTabulateAndRegressions(t *testing.T) {
	outcomes := []Outcome{
		{TestSet: "ts", TestCase: "a", Status: Passed},
		{TestSet: "ts", TestCase: "b", Status: Failed},
	}
	tally := Tabulate(outcomes)
	require.Equal(t, 1, tally.Passed)
	require.Equal(t, 1, tally.Failed)

	baseline := Baseline{"ts/b": Passed}
	regressions := Regressions(outcomes, baseline)
	require.Len(t, regressions, 1)
	require.Equal(t, "ts/b", regressions[0].Name)
}
