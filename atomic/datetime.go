package atomic

import (
	"fmt"

	"github.com/arborxml/xpath/schema"
)

// TZ represents an optional fixed UTC offset in minutes, exactly as
// XML Schema date/time values carry it (no IANA timezone, just an
// offset, §3 "an instant plus an optional timezone offset").
type TZ struct {
	OffsetMinutes int
	Present       bool
}

func NoTZ() TZ                  { return TZ{} }
func FixedTZ(minutes int) TZ    { return TZ{OffsetMinutes: minutes, Present: true} }
func (t TZ) String() string {
	if !t.Present {
		return ""
	}
	if t.OffsetMinutes == 0 {
		return "Z"
	}
	sign := "+"
	m := t.OffsetMinutes
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%02d:%02d", sign, m/60, m%60)
}

// civil is a proleptic-Gregorian calendar instant: year may be zero or
// negative (XML Schema years have no year 0 restriction in the way the
// proleptic Gregorian calendar does, but the engine treats year 0 as
//1 BCE per common practice).
type civil struct {
	Year                      int64
	Month, Day                int
	Hour, Minute, Second      int
	Nanosecond                int
}

// DateTime represents xs:dateTime and xs:dateTimeStamp (§3): an instant
// plus an optional timezone.
type DateTime struct {
	base
	civil
	TZ TZ
}

func NewDateTime(typ *schema.Type, y int64, mo, d, h, mi, s, ns int, tz TZ) DateTime {
	return DateTime{base: base{typ: typ}, civil: civil{y, mo, d, h, mi, s, ns}, TZ: tz}
}

func (d DateTime) StringValue() string {
	return fmt.Sprintf("%s%sT%02d:%02d:%s%s",
		formatYear(d.Year), formatMonthDay(d.Month, d.Day),
		d.Hour, d.Minute, formatSeconds(d.Second, d.Nanosecond), d.TZ.String())
}

// Date represents xs:date.
type Date struct {
	base
	civil
	TZ TZ
}

func NewDate(y int64, mo, d int, tz TZ) Date {
	return Date{base: base{typ: schema.Date}, civil: civil{Year: y, Month: mo, Day: d}, TZ: tz}
}

func (d Date) StringValue() string {
	return formatYear(d.Year) + formatMonthDay(d.Month, d.Day) + d.TZ.String()
}

// Time represents xs:time.
type Time struct {
	base
	Hour, Minute, Second, Nanosecond int
	TZ                               TZ
}

func NewTime(h, mi, s, ns int, tz TZ) Time {
	return Time{base: base{typ: schema.Time}, Hour: h, Minute: mi, Second: s, Nanosecond: ns, TZ: tz}
}

func (t Time) StringValue() string {
	return fmt.Sprintf("%02d:%02d:%s%s", t.Hour, t.Minute, formatSeconds(t.Second, t.Nanosecond), t.TZ.String())
}

// Gregorian partials (§3): each optionally carries a timezone.
type GYearMonth struct {
	base
	Year  int64
	Month int
	TZ    TZ
}

func NewGYearMonth(y int64, m int, tz TZ) GYearMonth {
	return GYearMonth{base: base{typ: schema.GYearMonth}, Year: y, Month: m, TZ: tz}
}
func (g GYearMonth) StringValue() string {
	return fmt.Sprintf("%s-%02d%s", formatYear(g.Year), g.Month, g.TZ.String())
}

type GYear struct {
	base
	Year int64
	TZ   TZ
}

func NewGYear(y int64, tz TZ) GYear { return GYear{base: base{typ: schema.GYear}, Year: y, TZ: tz} }
func (g GYear) StringValue() string { return formatYear(g.Year) + g.TZ.String() }

type GMonthDay struct {
	base
	Month, Day int
	TZ         TZ
}

func NewGMonthDay(m, d int, tz TZ) GMonthDay {
	return GMonthDay{base: base{typ: schema.GMonthDay}, Month: m, Day: d, TZ: tz}
}
func (g GMonthDay) StringValue() string {
	return fmt.Sprintf("--%02d-%02d%s", g.Month, g.Day, g.TZ.String())
}

type GMonth struct {
	base
	Month int
	TZ    TZ
}

func NewGMonth(m int, tz TZ) GMonth { return GMonth{base: base{typ: schema.GMonth}, Month: m, TZ: tz} }
func (g GMonth) StringValue() string { return fmt.Sprintf("--%02d%s", g.Month, g.TZ.String()) }

type GDay struct {
	base
	Day int
	TZ  TZ
}

func NewGDay(d int, tz TZ) GDay      { return GDay{base: base{typ: schema.GDay}, Day: d, TZ: tz} }
func (g GDay) StringValue() string { return fmt.Sprintf("---%02d%s", g.Day, g.TZ.String()) }

func formatYear(y int64) string {
	if y < 0 {
		return fmt.Sprintf("-%04d", -y)
	}
	return fmt.Sprintf("%04d", y)
}

func formatMonthDay(m, d int) string {
	return fmt.Sprintf("-%02d-%02d", m, d)
}

func formatSeconds(s, ns int) string {
	if ns == 0 {
		return fmt.Sprintf("%02d", s)
	}
	frac := fmt.Sprintf("%09d", ns)
	for len(frac) > 0 && frac[len(frac)-1] == '0' {
		frac = frac[:len(frac)-1]
	}
	return fmt.Sprintf("%02d.%s", s, frac)
}

// toEpochMillis converts a DateTime in a known-or-implicit timezone to
// milliseconds since the Unix epoch, for subtraction and ordering. The
// implicit timezone is supplied by the dynamic context when the value is
// naive (§4.B "if one side is naive, the implicit timezone ... is used").
func (d DateTime) toEpochMillis(implicitTZMinutes int) int64 {
	offsetMin := d.TZ.OffsetMinutes
	if !d.TZ.Present {
		offsetMin = implicitTZMinutes
	}
	days := daysFromCivil(d.Year, d.Month, d.Day)
	secs := days*86400 + int64(d.Hour)*3600 + int64(d.Minute)*60 + int64(d.Second)
	secs -= int64(offsetMin) * 60
	return secs*1000 + int64(d.Nanosecond)/1_000_000
}

// daysFromCivil implements Howard Hinnant's days-from-civil algorithm,
// the standard proleptic-Gregorian day-number computation (year may be
// any int64; no library in the retrieved pack offers a proleptic
// Gregorian calendar with unbounded/negative years, so this is hand
// rolled per the well-known public-domain algorithm rather than layered
// on time.Time, whose year range and leap-second handling do not match
// XML Schema's calendar).
func daysFromCivil(y int64, m, d int) int64 {
	y -= boolToInt64(m <= 2)
	var era int64
	if y >= 0 {
		era = y / 400
	} else {
		era = (y - 399) / 400
	}
	yoe := y - era*400
	mp := (int64(m) + 9) % 12
	doy := (153*mp+2)/5 + int64(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// addMonths adds n calendar months to a civil date, clamping the day to
// the target month's length (§8: "adding one month to Jan 31 yields Feb
// 28/29 per calendar-month semantics").
func addMonths(y int64, m, d int, n int64) (int64, int, int) {
	total := y*12 + int64(m-1) + n
	ny := total / 12
	nm := int(total%12) + 1
	if nm <= 0 {
		nm += 12
		ny--
	}
	maxDay := daysInMonth(ny, nm)
	if d > maxDay {
		d = maxDay
	}
	return ny, nm, d
}

func daysInMonth(y int64, m int) int {
	switch m {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(y) {
			return 29
		}
		return 28
	}
	return 30
}

func isLeapYear(y int64) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
