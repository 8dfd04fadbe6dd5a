package builtins

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/sequence"
	"github.com/arborxml/xpath/xerr"
)

// registerString wires the fn: string functions (§4.H), including the
// regex family (matches/replace/tokenize, backed by dlclark/regexp2 for
// its .NET-flavoured XPath-compatible regex engine) and fn:normalize-unicode
// (backed by golang.org/x/text/unicode/norm).
func registerString(r *Registry) {
	// fn:concat is variadic (2 or more arguments, §4.H); the registry is
	// keyed by fixed arity, so each accepted arity gets its own entry,
	// same as XQuery/XPath implementations that compile call sites by
	// argument count.
	for n := 2; n <= 10; n++ {
		r.Register(Entry{FnNamespace, "concat", n, concatHandler})
	}

	r.Register(Entry{FnNamespace, "string-length", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		it, ok := ctx.ContextItem()
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPDY0002, nil, "fn:string-length() requires a context item")
		}
		return stringLengthOf(it)
	}})
	r.Register(Entry{FnNamespace, "string-length", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		s, err := optionalStringArg(args[0], "")
		if err != nil {
			return sequence.Empty, err
		}
		return integer(int64(utf8.RuneCountInString(s))), nil
	}})

	r.Register(Entry{FnNamespace, "upper-case", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		s, err := stringArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return str(strings.ToUpper(s)), nil
	}})
	r.Register(Entry{FnNamespace, "lower-case", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		s, err := stringArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return str(strings.ToLower(s)), nil
	}})

	r.Register(Entry{FnNamespace, "normalize-space", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		it, ok := ctx.ContextItem()
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPDY0002, nil, "fn:normalize-space() requires a context item")
		}
		s, err := stringValueOf(it)
		if err != nil {
			return sequence.Empty, err
		}
		return str(normalizeSpace(s)), nil
	}})
	r.Register(Entry{FnNamespace, "normalize-space", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		s, err := optionalStringArg(args[0], "")
		if err != nil {
			return sequence.Empty, err
		}
		return str(normalizeSpace(s)), nil
	}})

	r.Register(Entry{FnNamespace, "normalize-unicode", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		s, err := stringArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return str(norm.NFC.String(s)), nil
	}})
	r.Register(Entry{FnNamespace, "normalize-unicode", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		s, err := stringArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		form, err := optionalStringArg(args[1], "NFC")
		if err != nil {
			return sequence.Empty, err
		}
		f, err := normForm(form)
		if err != nil {
			return sequence.Empty, err
		}
		return str(f.String(s)), nil
	}})

	r.Register(Entry{FnNamespace, "contains", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, b, err := twoStringArgs(args)
		if err != nil {
			return sequence.Empty, err
		}
		return boolean(strings.Contains(a, b)), nil
	}})
	r.Register(Entry{FnNamespace, "starts-with", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, b, err := twoStringArgs(args)
		if err != nil {
			return sequence.Empty, err
		}
		return boolean(strings.HasPrefix(a, b)), nil
	}})
	r.Register(Entry{FnNamespace, "ends-with", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, b, err := twoStringArgs(args)
		if err != nil {
			return sequence.Empty, err
		}
		return boolean(strings.HasSuffix(a, b)), nil
	}})
	r.Register(Entry{FnNamespace, "substring-before", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, b, err := twoStringArgs(args)
		if err != nil {
			return sequence.Empty, err
		}
		if b == "" {
			return str(""), nil
		}
		idx := strings.Index(a, b)
		if idx < 0 {
			return str(""), nil
		}
		return str(a[:idx]), nil
	}})
	r.Register(Entry{FnNamespace, "substring-after", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, b, err := twoStringArgs(args)
		if err != nil {
			return sequence.Empty, err
		}
		if b == "" {
			return str(a), nil
		}
		idx := strings.Index(a, b)
		if idx < 0 {
			return str(""), nil
		}
		return str(a[idx+len(b):]), nil
	}})

	r.Register(Entry{FnNamespace, "substring", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return substring(args[0], args[1], nil)
	}})
	r.Register(Entry{FnNamespace, "substring", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return substring(args[0], args[1], &args[2])
	}})

	r.Register(Entry{FnNamespace, "translate", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		s, err := stringArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		from, err := stringArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		to, err := stringArg(args[2])
		if err != nil {
			return sequence.Empty, err
		}
		return str(translate(s, from, to)), nil
	}})

	r.Register(Entry{FnNamespace, "string-join", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return stringJoin(args[0], "")
	}})
	r.Register(Entry{FnNamespace, "string-join", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		sep, err := stringArg(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		return stringJoin(args[0], sep)
	}})

	r.Register(Entry{FnNamespace, "string", 0, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		it, ok := ctx.ContextItem()
		if !ok {
			return sequence.Empty, xerr.New(xerr.XPDY0002, nil, "fn:string() requires a context item")
		}
		s, err := stringValueOf(it)
		if err != nil {
			return sequence.Empty, err
		}
		return str(s), nil
	}})
	r.Register(Entry{FnNamespace, "string", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		if args[0].IsEmpty() {
			return str(""), nil
		}
		it := args[0].Get(0)
		s, err := stringValueOf(it)
		if err != nil {
			return sequence.Empty, err
		}
		return str(s), nil
	}})

	r.Register(Entry{FnNamespace, "codepoints-to-string", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		var b strings.Builder
		for _, it := range args[0].Items() {
			ai, ok := it.(sequence.AtomicItem)
			if !ok {
				return sequence.Empty, xerr.New(xerr.XPTY0004, nil, "fn:codepoints-to-string requires atomic integers")
			}
			n, err := atomic.CastTo(ai.Value, schema.Integer)
			if err != nil {
				return sequence.Empty, err
			}
			b.WriteRune(rune(n.(atomic.Integer).Val.Int64()))
		}
		return str(b.String()), nil
	}})
	r.Register(Entry{FnNamespace, "string-to-codepoints", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		s, err := stringArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		if s == "" {
			return sequence.Empty, nil
		}
		var items []sequence.Item
		for _, r := range s {
			items = append(items, sequence.Wrap(atomic.NewIntegerFromInt64(schema.Integer, int64(r))))
		}
		return sequence.NewMany(items), nil
	}})

	r.Register(Entry{FnNamespace, "matches", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return matches(args[0], args[1], "")
	}})
	r.Register(Entry{FnNamespace, "matches", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		flags, err := stringArg(args[2])
		if err != nil {
			return sequence.Empty, err
		}
		return matches(args[0], args[1], flags)
	}})

	r.Register(Entry{FnNamespace, "replace", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return replace(args[0], args[1], args[2], "")
	}})
	r.Register(Entry{FnNamespace, "replace", 4, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		flags, err := stringArg(args[3])
		if err != nil {
			return sequence.Empty, err
		}
		return replace(args[0], args[1], args[2], flags)
	}})

	r.Register(Entry{FnNamespace, "tokenize", 1, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		s, err := stringArg(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		return tokenizeOnWhitespace(s)
	}})
	r.Register(Entry{FnNamespace, "tokenize", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		return tokenize(args[0], args[1], "")
	}})
	r.Register(Entry{FnNamespace, "tokenize", 3, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		flags, err := stringArg(args[2])
		if err != nil {
			return sequence.Empty, err
		}
		return tokenize(args[0], args[1], flags)
	}})

	r.Register(Entry{FnNamespace, "compare", 2, func(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
		a, ok1, err := atomizeOptional(args[0])
		if err != nil {
			return sequence.Empty, err
		}
		b, ok2, err := atomizeOptional(args[1])
		if err != nil {
			return sequence.Empty, err
		}
		if !ok1 || !ok2 {
			return sequence.Empty, nil
		}
		c := ctx.DefaultCollation()
		return integer(int64(c(a.StringValue(), b.StringValue()))), nil
	}})
}

func concatHandler(ctx Context, args []sequence.Sequence) (sequence.Sequence, error) {
	var b strings.Builder
	for _, a := range args {
		s, err := optionalStringArg(a, "")
		if err != nil {
			return sequence.Empty, err
		}
		b.WriteString(s)
	}
	return str(b.String()), nil
}

func stringLengthOf(it sequence.Item) (sequence.Sequence, error) {
	s, err := stringValueOf(it)
	if err != nil {
		return sequence.Empty, err
	}
	return integer(int64(utf8.RuneCountInString(s))), nil
}

func stringValueOf(it sequence.Item) (string, error) {
	switch v := it.(type) {
	case sequence.AtomicItem:
		return v.Value.StringValue(), nil
	case sequence.NodeItem:
		return v.Node.StringValue(), nil
	}
	return "", xerr.New(xerr.XPTY0004, nil, "cannot take the string value of a function item")
}

func twoStringArgs(args []sequence.Sequence) (string, string, error) {
	a, err := optionalStringArg(args[0], "")
	if err != nil {
		return "", "", err
	}
	b, err := stringArg(args[1])
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

func normalizeSpace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func normForm(name string) (norm.Form, error) {
	switch strings.ToUpper(name) {
	case "NFC":
		return norm.NFC, nil
	case "NFD":
		return norm.NFD, nil
	case "NFKC":
		return norm.NFKC, nil
	case "NFKD":
		return norm.NFKD, nil
	case "":
		return norm.NFC, nil
	}
	return norm.NFC, xerr.New(xerr.FOCH0003, nil, "unsupported normalization form %q", name)
}

func substring(src, startSeq sequence.Sequence, lenSeq *sequence.Sequence) (sequence.Sequence, error) {
	s, err := optionalStringArg(src, "")
	if err != nil {
		return sequence.Empty, err
	}
	startV, err := atomizeOne(startSeq)
	if err != nil {
		return sequence.Empty, err
	}
	startD, err := atomic.CastTo(startV, schema.Double_)
	if err != nil {
		return sequence.Empty, err
	}
	start := roundHalfToEven(startD.(atomic.Double).Val)

	runes := []rune(s)
	n := len(runes)
	var end float64 = float64(n) + 1
	if lenSeq != nil {
		lenV, err := atomizeOne(*lenSeq)
		if err != nil {
			return sequence.Empty, err
		}
		lenD, err := atomic.CastTo(lenV, schema.Double_)
		if err != nil {
			return sequence.Empty, err
		}
		end = start + roundHalfToEven(lenD.(atomic.Double).Val)
	}

	from := int(start)
	if start < 1 {
		from = 1
	}
	to := int(end)
	if to > n+1 {
		to = n + 1
	}
	if from >= to || from > n {
		return str(""), nil
	}
	return str(string(runes[from-1 : to-1])), nil
}

func roundHalfToEven(f float64) float64 {
	floor := math.Floor(f)
	diff := f - floor
	switch {
	case diff < 0.5:
		return floor
	case diff > 0.5:
		return floor + 1
	default:
		if int64(floor)%2 == 0 {
			return floor
		}
		return floor + 1
	}
}

func translate(s, from, to string) string {
	toRunes := []rune(to)
	var b strings.Builder
	for _, c := range s {
		idx := strings.IndexRune(from, c)
		switch {
		case idx < 0:
			b.WriteRune(c)
		case idx < len(toRunes):
			b.WriteRune(toRunes[idx])
		}
	}
	return b.String()
}

func stringJoin(seq sequence.Sequence, sep string) (sequence.Sequence, error) {
	items := seq.Items()
	parts := make([]string, len(items))
	for i, it := range items {
		s, err := stringValueOf(it)
		if err != nil {
			return sequence.Empty, err
		}
		parts[i] = s
	}
	return str(strings.Join(parts, sep)), nil
}

// compileRegex builds a dlclark/regexp2 pattern honouring the XPath flag
// letters s/m/i/x (§4.H "the regex dialect is XML Schema/.NET-flavoured,
// not RE2" -- the reason this package depends on dlclark/regexp2 rather
// than the standard library's RE2-based regexp).
func compileRegex(pattern, flags string) (*regexp2.Regexp, error) {
	opts := regexp2.None
	for _, f := range flags {
		switch f {
		case 's':
			opts |= regexp2.Singleline
		case 'm':
			opts |= regexp2.Multiline
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		default:
			return nil, xerr.New(xerr.FORX0001, nil, "invalid regex flag %q", string(f))
		}
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, xerr.New(xerr.FORX0002, nil, "invalid regular expression %q: %v", pattern, err)
	}
	return re, nil
}

func matches(src, patSeq sequence.Sequence, flags string) (sequence.Sequence, error) {
	s, err := optionalStringArg(src, "")
	if err != nil {
		return sequence.Empty, err
	}
	pattern, err := stringArg(patSeq)
	if err != nil {
		return sequence.Empty, err
	}
	re, err := compileRegex(pattern, flags)
	if err != nil {
		return sequence.Empty, err
	}
	m, err := re.MatchString(s)
	if err != nil {
		return sequence.Empty, xerr.Wrap(err)
	}
	return boolean(m), nil
}

func replace(src, patSeq, replSeq sequence.Sequence, flags string) (sequence.Sequence, error) {
	s, err := optionalStringArg(src, "")
	if err != nil {
		return sequence.Empty, err
	}
	pattern, err := stringArg(patSeq)
	if err != nil {
		return sequence.Empty, err
	}
	repl, err := stringArg(replSeq)
	if err != nil {
		return sequence.Empty, err
	}
	re, err := compileRegex(pattern, flags)
	if err != nil {
		return sequence.Empty, err
	}
	out, err := re.Replace(s, dollarToRegexp2(repl), -1, -1)
	if err != nil {
		return sequence.Empty, xerr.Wrap(err)
	}
	return str(out), nil
}

// dollarToRegexp2 rewrites XPath's $N backreference syntax to regexp2's
// ${N} replacement syntax, passing through \$ as a literal dollar sign.
func dollarToRegexp2(repl string) string {
	var b strings.Builder
	runes := []rune(repl)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			if i+1 < len(runes) && runes[i+1] == '$' {
				b.WriteString("$$")
				i++
			} else if i+1 < len(runes) {
				b.WriteRune(runes[i+1])
				i++
			}
		case '$':
			j := i + 1
			for j < len(runes) && runes[j] >= '0' && runes[j] <= '9' {
				j++
			}
			if j > i+1 {
				b.WriteString("${" + string(runes[i+1:j]) + "}")
				i = j - 1
			} else {
				b.WriteRune('$')
			}
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

func tokenize(src, patSeq sequence.Sequence, flags string) (sequence.Sequence, error) {
	s, err := optionalStringArg(src, "")
	if err != nil {
		return sequence.Empty, err
	}
	if s == "" {
		return sequence.Empty, nil
	}
	pattern, err := stringArg(patSeq)
	if err != nil {
		return sequence.Empty, err
	}
	re, err := compileRegex(pattern, flags)
	if err != nil {
		return sequence.Empty, err
	}
	var items []sequence.Item
	pos := 0
	m, err := re.FindStringMatch(s)
	for m != nil {
		if err != nil {
			return sequence.Empty, xerr.Wrap(err)
		}
		start := m.Index
		items = append(items, sequence.Wrap(atomic.NewString(schema.String, s[pos:start])))
		pos = start + m.Length
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return sequence.Empty, xerr.Wrap(err)
	}
	items = append(items, sequence.Wrap(atomic.NewString(schema.String, s[pos:])))
	return sequence.NewMany(items), nil
}

func tokenizeOnWhitespace(s string) (sequence.Sequence, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return sequence.Empty, nil
	}
	items := make([]sequence.Item, len(fields))
	for i, f := range fields {
		items[i] = sequence.Wrap(atomic.NewString(schema.String, f))
	}
	return sequence.NewMany(items), nil
}
