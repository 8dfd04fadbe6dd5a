package atomic

import (
	"fmt"
	"strings"

	"github.com/arborxml/xpath/schema"
)

// YearMonthDuration stores a signed count of months (§3).
type YearMonthDuration struct {
	base
	Months int64
}

func NewYearMonthDuration(months int64) YearMonthDuration {
	return YearMonthDuration{base: base{typ: schema.YearMonthDuration}, Months: months}
}

func (d YearMonthDuration) StringValue() string {
	months := d.Months
	sign := ""
	if months < 0 {
		sign = "-"
		months = -months
	}
	y, m := months/12, months%12
	var b strings.Builder
	b.WriteString(sign)
	b.WriteByte('P')
	if y == 0 && m == 0 {
		return sign + "P0M"
	}
	if y != 0 {
		fmt.Fprintf(&b, "%dY", y)
	}
	if m != 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	return b.String()
}

// DayTimeDuration stores a signed millisecond duration (§3).
type DayTimeDuration struct {
	base
	Millis int64
}

func NewDayTimeDuration(millis int64) DayTimeDuration {
	return DayTimeDuration{base: base{typ: schema.DayTimeDuration}, Millis: millis}
}

func (d DayTimeDuration) StringValue() string {
	ms := d.Millis
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	totalSeconds := ms / 1000
	fracMillis := ms % 1000
	days := totalSeconds / 86400
	rem := totalSeconds % 86400
	hours := rem / 3600
	rem = rem % 3600
	minutes := rem / 60
	seconds := rem % 60

	var b strings.Builder
	b.WriteString(sign)
	b.WriteByte('P')
	if days != 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if hours != 0 || minutes != 0 || seconds != 0 || fracMillis != 0 {
		b.WriteByte('T')
		if hours != 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		if minutes != 0 {
			fmt.Fprintf(&b, "%dM", minutes)
		}
		if seconds != 0 || fracMillis != 0 || (days == 0 && hours == 0 && minutes == 0) {
			if fracMillis != 0 {
				fmt.Fprintf(&b, "%d.%03dS", seconds, fracMillis)
			} else {
				fmt.Fprintf(&b, "%dS", seconds)
			}
		}
	} else if days == 0 {
		b.WriteString("T0S")
	}
	return b.String()
}

// Duration represents the general xs:duration: a pair of a
// year-month component and a day-time component (§3).
type Duration struct {
	base
	YearMonth YearMonthDuration
	DayTime   DayTimeDuration
}

func NewDuration(months int64, millis int64) Duration {
	return Duration{
		base:      base{typ: schema.Duration},
		YearMonth: NewYearMonthDuration(months),
		DayTime:   NewDayTimeDuration(millis),
	}
}

func (d Duration) StringValue() string {
	if d.YearMonth.Months == 0 {
		return d.DayTime.StringValue()
	}
	if d.DayTime.Millis == 0 {
		return d.YearMonth.StringValue()
	}
	// Mixed duration: combine, taking the sign from whichever component
	// is non-zero and assuming a consistent sign (XML Schema requires
	// duration components to share a sign).
	ym := strings.TrimPrefix(d.YearMonth.StringValue(), "-")
	dt := strings.TrimPrefix(strings.TrimPrefix(d.DayTime.StringValue(), "-"), "P")
	sign := ""
	if d.YearMonth.Months < 0 || d.DayTime.Millis < 0 {
		sign = "-"
	}
	return sign + ym + dt
}
