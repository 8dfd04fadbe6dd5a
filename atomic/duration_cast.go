package atomic

import (
	"regexp"
	"strconv"

	"github.com/arborxml/xpath/xerr"
)

var durationPattern = regexp.MustCompile(
	`^(-)?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.(\d+))?S)?)?$`)

func parseDurationParts(s string) (neg bool, years, months, days, hours, minutes int64, secs int64, nanos int, err error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "-P" {
		err = xerr.New(xerr.FORG0001, nil, "invalid duration lexical form %q", s)
		return
	}
	neg = m[1] == "-"
	parse := func(s string) int64 {
		if s == "" {
			return 0
		}
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	}
	years = parse(m[2])
	months = parse(m[3])
	days = parse(m[4])
	hours = parse(m[5])
	minutes = parse(m[6])
	secs = parse(m[7])
	if m[8] != "" {
		frac := m[8]
		for len(frac) < 9 {
			frac += "0"
		}
		n, _ := strconv.ParseInt(frac[:9], 10, 64)
		nanos = int(n)
	}
	return
}

func castToYearMonthDuration(v Value) (Value, error) {
	switch t := v.(type) {
	case YearMonthDuration:
		return t, nil
	case Duration:
		return t.YearMonth, nil
	case String:
		neg, y, mo, _, h, mi, s, _, err := parseDurationParts(t.Text)
		if err != nil {
			return nil, err
		}
		if h != 0 || mi != 0 || s != 0 {
			return nil, xerr.New(xerr.FORG0001, nil, "yearMonthDuration lexical form may not carry time components: %q", t.Text)
		}
		months := y*12 + mo
		if neg {
			months = -months
		}
		return NewYearMonthDuration(months), nil
	}
	return nil, xerr.New(xerr.FORG0001, nil, "cannot cast %s to xs:yearMonthDuration", v.Type().LocalName())
}

func castToDayTimeDuration(v Value) (Value, error) {
	switch t := v.(type) {
	case DayTimeDuration:
		return t, nil
	case Duration:
		return t.DayTime, nil
	case String:
		neg, y, mo, d, h, mi, s, ns, err := parseDurationParts(t.Text)
		if err != nil {
			return nil, err
		}
		if y != 0 || mo != 0 {
			return nil, xerr.New(xerr.FORG0001, nil, "dayTimeDuration lexical form may not carry year/month components: %q", t.Text)
		}
		millis := ((d*24+h)*3600+mi*60+s)*1000 + int64(ns)/1_000_000
		if neg {
			millis = -millis
		}
		return NewDayTimeDuration(millis), nil
	}
	return nil, xerr.New(xerr.FORG0001, nil, "cannot cast %s to xs:dayTimeDuration", v.Type().LocalName())
}

// ParseDuration parses the general xs:duration lexical form.
func ParseDuration(s string) (Duration, error) {
	neg, y, mo, d, h, mi, sec, ns, err := parseDurationParts(s)
	if err != nil {
		return Duration{}, err
	}
	months := y*12 + mo
	millis := ((d*24+h)*3600+mi*60+sec)*1000 + int64(ns)/1_000_000
	if neg {
		months, millis = -months, -millis
	}
	return NewDuration(months, millis), nil
}
