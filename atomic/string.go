package atomic

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/arborxml/xpath/schema"
)

// String represents xs:string and every one of its lexical-restriction
// subtypes (normalizedString, token, language, NMTOKEN, Name, NCName,
// ID, IDREF, ENTITY) plus xs:anyURI and xs:untypedAtomic, all of which
// share a plain immutable text payload (§3: "all carry a shared-immutable
// text").
type String struct {
	base
	Text string
}

// NewString constructs a String atomic of the given precise type (use
// schema.String for a plain xs:string, schema.UntypedAtomic for an
// untyped node value, etc).
func NewString(typ *schema.Type, text string) String {
	return String{base: base{typ: typ}, Text: text}
}

func (s String) StringValue() string { return s.Text }

// Boolean represents xs:boolean.
type Boolean struct {
	base
	Val bool
}

func NewBoolean(v bool) Boolean {
	return Boolean{base: base{typ: schema.Boolean}, Val: v}
}

func (b Boolean) StringValue() string {
	if b.Val {
		return "true"
	}
	return "false"
}

// QName represents xs:QName: an expanded name plus an optional prefix
// retained only for display (§3 "QName: expanded name ... plus optional
// prefix").
type QName struct {
	base
	NamespaceURI string
	LocalName    string
	Prefix       string
}

func NewQName(uri, local, prefix string) QName {
	return QName{base: base{typ: schema.QNameType}, NamespaceURI: uri, LocalName: local, Prefix: prefix}
}

func (q QName) StringValue() string {
	if q.Prefix != "" {
		return q.Prefix + ":" + q.LocalName
	}
	return q.LocalName
}

// Equal reports QName equality: same expanded name, prefix irrelevant.
func (q QName) Equal(other QName) bool {
	return q.NamespaceURI == other.NamespaceURI && q.LocalName == other.LocalName
}

// BinaryKind distinguishes the two XML Schema binary encodings.
type BinaryKind int

const (
	Base64 BinaryKind = iota
	Hex
)

// Binary represents xs:base64Binary and xs:hexBinary: raw bytes plus a
// tag recording which lexical form produced them (§3 "carrying raw bytes
// and a tag distinguishing which").
type Binary struct {
	base
	Bytes []byte
	Kind  BinaryKind
}

func NewBinary(kind BinaryKind, data []byte) Binary {
	typ := schema.Base64Binary
	if kind == Hex {
		typ = schema.HexBinary
	}
	return Binary{base: base{typ: typ}, Bytes: data, Kind: kind}
}

func (b Binary) StringValue() string {
	if b.Kind == Hex {
		return strings.ToUpper(hex.EncodeToString(b.Bytes))
	}
	return base64.StdEncoding.EncodeToString(b.Bytes)
}
