// Package schema implements the fixed XML Schema atomic-type lattice
// (§4.A of the spec): names, parenthood, derivation and base-numeric
// classification for the ~50 xs:* types the engine understands. The
// hierarchy never changes at runtime, so it is built once as a
// compile-time tree of Type values linked by parent pointers.
package schema

// BaseNumeric classifies a type's numeric promotion family, used by the
// atomic arithmetic binary-cast step (§4.B).
type BaseNumeric int

const (
	NotNumeric BaseNumeric = iota
	IntegerNumeric
	Decimal
	Float
	Double
)

// Kind is a coarse representational family, used by the atomic package
// to pick a Go representation for a given named type.
type Kind int

const (
	KindString Kind = iota
	KindBoolean
	KindInteger
	KindDecimal
	KindFloat
	KindDouble
	KindDuration
	KindYearMonthDuration
	KindDayTimeDuration
	KindDateTime
	KindDate
	KindTime
	KindGYear
	KindGYearMonth
	KindGMonthDay
	KindGMonth
	KindGDay
	KindBase64Binary
	KindHexBinary
	KindQName
	KindAnyURI
	KindNOTATION
	KindUntypedAtomic
)

// Type is one node in the schema type lattice.
type Type struct {
	Name        string
	parent      *Type
	kind        Kind
	baseNumeric BaseNumeric
	// stringCarrier is true for types whose value space is lexically a
	// restricted string (xs:string and its derived subtypes).
	stringCarrier bool
}

// LocalName is the unqualified type name, e.g. "integer" for xs:integer.
func (t *Type) LocalName() string { return t.Name }

// Parent returns the direct base type, or nil for xs:anyAtomicType.
func (t *Type) Parent() *Type { return t.parent }

// Kind reports the representational family used by package atomic.
func (t *Type) Kind() Kind { return t.kind }

// IsStringCarrier reports whether the type's value space shares a plain
// text representation with xs:string (string, and its NCName/token/...
// restrictions).
func (t *Type) IsStringCarrier() bool { return t.stringCarrier }

// BaseNumericType reports the numeric promotion family of t, or
// NotNumeric if t is not a numeric type.
func (t *Type) BaseNumericType() BaseNumeric { return t.baseNumeric }

// DerivesFrom reports whether t is other or a (possibly transitive)
// restriction of other. It is a simple recursive parent-walk; the
// lattice is a tree so no visited-set is needed.
func (t *Type) DerivesFrom(other *Type) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

var registry = map[string]*Type{}

func define(name string, parent *Type, kind Kind, num BaseNumeric, stringCarrier bool) *Type {
	t := &Type{Name: name, parent: parent, kind: kind, baseNumeric: num, stringCarrier: stringCarrier}
	registry[name] = t
	return t
}

// The lattice. Built once at package init in the order the XML Schema
// spec itself presents it: anyAtomicType, then string/numeric/date
// families branching off it.
var (
	AnyAtomicType = define("anyAtomicType", nil, KindUntypedAtomic, NotNumeric, false)

	UntypedAtomic = define("untypedAtomic", AnyAtomicType, KindUntypedAtomic, NotNumeric, false)
	AnyURI        = define("anyURI", AnyAtomicType, KindAnyURI, NotNumeric, false)
	Base64Binary  = define("base64Binary", AnyAtomicType, KindBase64Binary, NotNumeric, false)
	HexBinary     = define("hexBinary", AnyAtomicType, KindHexBinary, NotNumeric, false)
	Boolean       = define("boolean", AnyAtomicType, KindBoolean, NotNumeric, false)
	QNameType     = define("QName", AnyAtomicType, KindQName, NotNumeric, false)
	NOTATION      = define("NOTATION", AnyAtomicType, KindNOTATION, NotNumeric, false)

	String           = define("string", AnyAtomicType, KindString, NotNumeric, true)
	NormalizedString = define("normalizedString", String, KindString, NotNumeric, true)
	Token            = define("token", NormalizedString, KindString, NotNumeric, true)
	Language         = define("language", Token, KindString, NotNumeric, true)
	NMTOKEN          = define("NMTOKEN", Token, KindString, NotNumeric, true)
	Name             = define("Name", Token, KindString, NotNumeric, true)
	NCName           = define("NCName", Name, KindString, NotNumeric, true)
	ID               = define("ID", NCName, KindString, NotNumeric, true)
	IDREF            = define("IDREF", NCName, KindString, NotNumeric, true)
	ENTITY           = define("ENTITY", NCName, KindString, NotNumeric, true)

	Decimal_     = define("decimal", AnyAtomicType, KindDecimal, Decimal, false)
	Integer      = define("integer", Decimal_, KindInteger, IntegerNumeric, false)
	NonPositiveInteger = define("nonPositiveInteger", Integer, KindInteger, IntegerNumeric, false)
	NegativeInteger    = define("negativeInteger", NonPositiveInteger, KindInteger, IntegerNumeric, false)
	Long               = define("long", Integer, KindInteger, IntegerNumeric, false)
	Int_               = define("int", Long, KindInteger, IntegerNumeric, false)
	Short              = define("short", Int_, KindInteger, IntegerNumeric, false)
	Byte_              = define("byte", Short, KindInteger, IntegerNumeric, false)
	NonNegativeInteger = define("nonNegativeInteger", Integer, KindInteger, IntegerNumeric, false)
	UnsignedLong       = define("unsignedLong", NonNegativeInteger, KindInteger, IntegerNumeric, false)
	UnsignedInt        = define("unsignedInt", UnsignedLong, KindInteger, IntegerNumeric, false)
	UnsignedShort      = define("unsignedShort", UnsignedInt, KindInteger, IntegerNumeric, false)
	UnsignedByte       = define("unsignedByte", UnsignedShort, KindInteger, IntegerNumeric, false)
	PositiveInteger    = define("positiveInteger", NonNegativeInteger, KindInteger, IntegerNumeric, false)

	Float_  = define("float", AnyAtomicType, KindFloat, Float, false)
	Double_ = define("double", AnyAtomicType, KindDouble, Double, false)

	Duration          = define("duration", AnyAtomicType, KindDuration, NotNumeric, false)
	YearMonthDuration = define("yearMonthDuration", Duration, KindYearMonthDuration, NotNumeric, false)
	DayTimeDuration   = define("dayTimeDuration", Duration, KindDayTimeDuration, NotNumeric, false)

	DateTime       = define("dateTime", AnyAtomicType, KindDateTime, NotNumeric, false)
	DateTimeStamp  = define("dateTimeStamp", DateTime, KindDateTime, NotNumeric, false)
	Date           = define("date", AnyAtomicType, KindDate, NotNumeric, false)
	Time           = define("time", AnyAtomicType, KindTime, NotNumeric, false)
	GYearMonth     = define("gYearMonth", AnyAtomicType, KindGYearMonth, NotNumeric, false)
	GYear          = define("gYear", AnyAtomicType, KindGYear, NotNumeric, false)
	GMonthDay      = define("gMonthDay", AnyAtomicType, KindGMonthDay, NotNumeric, false)
	GDay           = define("gDay", AnyAtomicType, KindGDay, NotNumeric, false)
	GMonth         = define("gMonth", AnyAtomicType, KindGMonth, NotNumeric, false)
)

// ByLocalName looks up a schema type by its unqualified name (e.g.
// "integer", "dateTime"). It returns (nil, false) for unknown names --
// the only failure mode this package has (§4.A: "Fails only on unknown
// names").
func ByLocalName(name string) (*Type, bool) {
	t, ok := registry[name]
	return t, ok
}
