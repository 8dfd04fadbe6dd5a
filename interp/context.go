package interp

import (
	"time"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/builtins"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/tree"
	"github.com/arborxml/xpath/xerr"
)

// noStore is the zero-value tree.Store used when an Interpreter is
// built without WithStore: fn:doc/fn:collection fail closed rather than
// panicking on a nil interface.
type noStore struct{}

func (noStore) Doc(uri string) (tree.Node, error) {
	return nil, xerr.New(xerr.FOER0000, nil, "no document store configured: cannot resolve %q", uri)
}

func (noStore) Collection(uri string) ([]tree.Node, error) {
	return nil, xerr.New(xerr.FOER0000, nil, "no document store configured: cannot resolve collection %q", uri)
}

// Interpreter holds the static and dynamic-context configuration
// shared by every evaluation it runs: the builtin registry, the
// document pool, the implicit timezone and collations, and the clock
// fn:current-dateTime reads from (§6 "dynamic context").
type Interpreter struct {
	registry          *builtins.Registry
	store             tree.Store
	implicitTZMinutes int
	staticBaseURI     string
	defaultCollation  atomic.Collation
	collations        map[string]atomic.Collation
	clock             func() time.Time
}

// Option configures an Interpreter at construction time.
type Option func(*Interpreter)

// WithStore supplies the document pool fn:doc/fn:collection resolve
// against.
func WithStore(store tree.Store) Option {
	return func(it *Interpreter) { it.store = store }
}

// WithStaticBaseURI sets the static base URI that builtins can read
// through Context.StaticBaseURI. No registered function reads it:
// there is no fn:static-base-uri, and fn:doc hands its argument to the
// store without resolving it against this base.
func WithStaticBaseURI(uri string) Option {
	return func(it *Interpreter) { it.staticBaseURI = uri }
}

// WithImplicitTimezone sets the dynamic context's implicit timezone,
// in minutes east of UTC, used to canonicalise naive date/time values.
func WithImplicitTimezone(minutes int) Option {
	return func(it *Interpreter) { it.implicitTZMinutes = minutes }
}

// WithCollation registers a named collation (e.g. a Unicode Collation
// Algorithm locale built with golang.org/x/text/collate) under uri.
func WithCollation(uri string, c atomic.Collation) Option {
	return func(it *Interpreter) {
		if it.collations == nil {
			it.collations = map[string]atomic.Collation{}
		}
		it.collations[uri] = c
	}
}

// WithDefaultCollation overrides the collation used when no explicit
// collation URI is given (the codepoint collation otherwise).
func WithDefaultCollation(c atomic.Collation) Option {
	return func(it *Interpreter) { it.defaultCollation = c }
}

// WithClock overrides the source of fn:current-dateTime/date/time,
// letting tests and qt3 replay pin the dynamic context's notion of
// "now" instead of reading the system clock.
func WithClock(clock func() time.Time) Option {
	return func(it *Interpreter) { it.clock = clock }
}

// New builds an Interpreter. Its registry is always builtins.Default();
// opts configure the rest of the dynamic context.
func New(opts ...Option) *Interpreter {
	it := &Interpreter{
		registry:         builtins.Default(),
		store:            noStore{},
		defaultCollation: atomic.CodepointCollation,
		clock:            time.Now,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

func (it *Interpreter) currentDateTime() atomic.DateTime {
	now := it.clock().In(time.FixedZone("", it.implicitTZMinutes*60))
	tz := atomic.FixedTZ(it.implicitTZMinutes)
	return atomic.NewDateTime(schema.DateTime, int64(now.Year()), int(now.Month()), now.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), tz)
}

// execContext adapts one (Interpreter, frame) pair to builtins.Context,
// the interface every builtin handler runs with. f is nil when a
// builtin is invoked with no enclosing frame (a named function
// reference called through callFunction from outside any running
// chunk), in which case the focus-reporting methods behave as if no
// context item were ever established.
type execContext struct {
	it *Interpreter
	f  *frame
}

func (c *execContext) ContextItem() (sequence.Item, bool) {
	if c.f == nil || !c.f.focus.hasItem {
		return nil, false
	}
	return c.f.focus.item, true
}

func (c *execContext) Position() (int, bool) {
	if c.f == nil || !c.f.focus.hasSize {
		return 0, false
	}
	return c.f.focus.pos, true
}

func (c *execContext) Last() (int, bool) {
	if c.f == nil || !c.f.focus.hasSize {
		return 0, false
	}
	return c.f.focus.last, true
}

func (c *execContext) ImplicitTimezoneMinutes() int { return c.it.implicitTZMinutes }

func (c *execContext) DefaultCollation() atomic.Collation { return c.it.defaultCollation }

func (c *execContext) Collation(uri string) (atomic.Collation, bool) {
	coll, ok := c.it.collations[uri]
	return coll, ok
}

func (c *execContext) Store() tree.Store { return c.it.store }

func (c *execContext) StaticBaseURI() string { return c.it.staticBaseURI }

func (c *execContext) CurrentDateTime() atomic.DateTime { return c.it.currentDateTime() }

func (c *execContext) Call(fn sequence.Function, args []sequence.Sequence) (sequence.Sequence, error) {
	return c.it.callFunction(fn, args, nil)
}
