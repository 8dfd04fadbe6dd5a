package atomic

import (
	"regexp"
	"strconv"

	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/xerr"
)

var tzPattern = regexp.MustCompile(`(Z|[+-]\d{2}:\d{2})$`)

func parseTZ(s string) (rest string, tz TZ) {
	m := tzPattern.FindString(s)
	if m == "" {
		return s, NoTZ()
	}
	rest = s[:len(s)-len(m)]
	if m == "Z" {
		return rest, FixedTZ(0)
	}
	sign := 1
	if m[0] == '-' {
		sign = -1
	}
	h, _ := strconv.Atoi(m[1:3])
	mi, _ := strconv.Atoi(m[4:6])
	return rest, FixedTZ(sign * (h*60 + mi))
}

var dateTimePattern = regexp.MustCompile(`^(-?\d{4,})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})(?:\.(\d+))?$`)
var datePattern = regexp.MustCompile(`^(-?\d{4,})-(\d{2})-(\d{2})$`)
var timePattern = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})(?:\.(\d+))?$`)

func parseNanos(frac string) int {
	if frac == "" {
		return 0
	}
	for len(frac) < 9 {
		frac += "0"
	}
	n, _ := strconv.Atoi(frac[:9])
	return n
}

// ParseDateTime parses the xs:dateTime lexical form.
func ParseDateTime(typ *schema.Type, s string) (DateTime, error) {
	body, tz := parseTZ(s)
	m := dateTimePattern.FindStringSubmatch(body)
	if m == nil {
		return DateTime{}, lexicalErr(typ.LocalName(), s)
	}
	y, _ := strconv.ParseInt(m[1], 10, 64)
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	h, _ := strconv.Atoi(m[4])
	mi, _ := strconv.Atoi(m[5])
	sec, _ := strconv.Atoi(m[6])
	return NewDateTime(typ, y, mo, d, h, mi, sec, parseNanos(m[7]), tz), nil
}

// ParseDate parses the xs:date lexical form.
func ParseDate(s string) (Date, error) {
	body, tz := parseTZ(s)
	m := datePattern.FindStringSubmatch(body)
	if m == nil {
		return Date{}, lexicalErr("date", s)
	}
	y, _ := strconv.ParseInt(m[1], 10, 64)
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return NewDate(y, mo, d, tz), nil
}

// ParseTime parses the xs:time lexical form.
func ParseTime(s string) (Time, error) {
	body, tz := parseTZ(s)
	m := timePattern.FindStringSubmatch(body)
	if m == nil {
		return Time{}, lexicalErr("time", s)
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	return NewTime(h, mi, sec, parseNanos(m[4]), tz), nil
}

func castToDateTimeLike(v Value, target *schema.Type) (Value, error) {
	s, ok := v.(String)
	if !ok {
		return nil, xerr.New(xerr.FORG0001, nil, "cannot cast %s to %s", v.Type().LocalName(), target.LocalName())
	}
	switch target.Kind() {
	case schema.KindDateTime:
		return ParseDateTime(target, s.Text)
	case schema.KindDate:
		return ParseDate(s.Text)
	case schema.KindTime:
		return ParseTime(s.Text)
	}
	return nil, xerr.New(xerr.XPST0080, nil, "unsupported date/time cast target %s", target.LocalName())
}
