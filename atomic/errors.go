package atomic

import (
	"github.com/arborxml/xpath/xerr"
)

func lexicalErr(typeName, lexical string) error {
	return xerr.New(xerr.FORG0001, nil, "invalid lexical value %q for xs:%s", lexical, typeName)
}

func rangeErr(v Value) error {
	return xerr.New(xerr.FOCA0003, nil, "value %s out of range for %s", v.StringValue(), v.Type().LocalName())
}
