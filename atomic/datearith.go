package atomic

import (
	"github.com/arborxml/xpath/schema"
	"github.com/arborxml/xpath/xerr"
)

// AddYearMonthDuration implements dateTime/date + yearMonthDuration per
// the calendar-month arithmetic matrix (§4.B), clamping the day when the
// target month is shorter (§8 "adding one month to Jan 31 yields Feb
// 28/29").
func AddYearMonthDuration(d DateTime, dur YearMonthDuration) DateTime {
	y, m, day := addMonths(d.Year, d.Month, d.Day, dur.Months)
	return NewDateTime(d.Type(), y, m, day, d.Hour, d.Minute, d.Second, d.Nanosecond, d.TZ)
}

// AddDayTimeDurationToDateTime implements dateTime + dayTimeDuration: a
// signed millisecond shift applied to the instant, re-expressed in the
// original civil calendar (no timezone change).
func AddDayTimeDurationToDateTime(d DateTime, dur DayTimeDuration) DateTime {
	totalMillis := int64(d.Nanosecond)/1_000_000 + dur.Millis
	secs := d.Hour*3600 + d.Minute*60 + d.Second
	totalSecs := int64(secs) + totalMillis/1000
	extraMillis := totalMillis % 1000
	if extraMillis < 0 {
		extraMillis += 1000
		totalSecs--
	}
	days := daysFromCivil(d.Year, d.Month, d.Day)
	daySecs := totalSecs
	dayShift := daySecs / 86400
	rem := daySecs % 86400
	if rem < 0 {
		rem += 86400
		dayShift--
	}
	days += dayShift
	ny, nm, nd := civilFromDays(days)
	h, mi, s := int(rem/3600), int((rem%3600)/60), int(rem%60)
	return NewDateTime(d.Type(), ny, nm, nd, h, mi, s, int(extraMillis)*1_000_000, d.TZ)
}

// civilFromDays is the inverse of daysFromCivil (Hinnant's
// civil_from_days algorithm).
func civilFromDays(z int64) (int64, int, int) {
	z += 719468
	var era int64
	if z >= 0 {
		era = z / 146097
	} else {
		era = (z - 146096) / 146097
	}
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := int(doy-(153*mp+2)/5) + 1
	m := int(mp+2)%12 + 1
	if m <= 0 {
		m += 12
	}
	if m <= 2 {
		y++
	}
	return y, m, d
}

// AddYearMonthDurationToDate implements date + yearMonthDuration (§4.B),
// grounded on original_source/xee-xpath/src/atomic/op_add.rs's
// op_add_year_month_duration_to_date, reusing the same calendar-month
// clamping addMonths applies for dateTime (§8 "adding one month to Jan
// 31 yields Feb 28/29").
func AddYearMonthDurationToDate(d Date, dur YearMonthDuration) Date {
	y, m, day := addMonths(d.Year, d.Month, d.Day, dur.Months)
	return NewDate(y, m, day, d.TZ)
}

// AddDayTimeDurationToDate implements date + dayTimeDuration: d is
// widened to midnight, the duration applied as the signed instant
// shift AddDayTimeDurationToDateTime applies, and only the resulting
// date kept -- the conversion op_add_day_time_duration_to_date uses.
func AddDayTimeDurationToDate(d Date, dur DayTimeDuration) Date {
	result := AddDayTimeDurationToDateTime(dateAsDateTime(d), dur)
	return NewDate(result.Year, result.Month, result.Day, result.TZ)
}

// AddDayTimeDurationToTime implements time + dayTimeDuration: a
// millisecond shift wrapped modulo 24 hours, grounded on
// original_source/xee-xpath/src/atomic/op_add.rs's
// op_add_day_time_duration_to_time ("this never fails, but wraps
// around"). The day the wraparound would otherwise carry is discarded,
// since xs:time has no date component to carry it in.
func AddDayTimeDurationToTime(t Time, dur DayTimeDuration) Time {
	totalMillis := int64(t.Nanosecond)/1_000_000 + dur.Millis
	secs := int64(t.Hour*3600 + t.Minute*60 + t.Second)
	totalSecs := secs + totalMillis/1000
	extraMillis := totalMillis % 1000
	if extraMillis < 0 {
		extraMillis += 1000
		totalSecs--
	}
	totalSecs = ((totalSecs % 86400) + 86400) % 86400
	h, mi, s := int(totalSecs/3600), int((totalSecs%3600)/60), int(totalSecs%60)
	return NewTime(h, mi, s, int(extraMillis)*1_000_000, t.TZ)
}

// dateAsDateTime widens d to midnight on the same calendar day, the
// standard conversion the add/subtract-date operations use before
// delegating to the dateTime arithmetic.
func dateAsDateTime(d Date) DateTime {
	return NewDateTime(schema.DateTime, d.Year, d.Month, d.Day, 0, 0, 0, 0, d.TZ)
}

// timeAsDateTime widens t onto a fixed reference date (1972-12-31, the
// date the XPath-functions examples for op:subtract-times use), so
// SubtractTime can reuse the dateTime epoch-millis machinery for a
// duration between two times without inventing its own day-wraparound
// policy.
func timeAsDateTime(t Time) DateTime {
	return NewDateTime(schema.DateTime, 1972, 12, 31, t.Hour, t.Minute, t.Second, t.Nanosecond, t.TZ)
}

// SubtractDate implements date - date -> dayTimeDuration.
func SubtractDate(a, b Date, implicitTZMinutes int) DayTimeDuration {
	return SubtractDateTime(dateAsDateTime(a), dateAsDateTime(b), implicitTZMinutes)
}

// SubtractTime implements time - time -> dayTimeDuration.
func SubtractTime(a, b Time, implicitTZMinutes int) DayTimeDuration {
	return SubtractDateTime(timeAsDateTime(a), timeAsDateTime(b), implicitTZMinutes)
}

// SubtractDateTime implements dateTime - dateTime -> dayTimeDuration
// (§8 scenario 4): both operands are normalised to an instant, using the
// dynamic context's implicit timezone for any naive operand.
func SubtractDateTime(a, b DateTime, implicitTZMinutes int) DayTimeDuration {
	return NewDayTimeDuration(a.toEpochMillis(implicitTZMinutes) - b.toEpochMillis(implicitTZMinutes))
}

// AddYearMonthDurations adds two year-month durations.
func AddYearMonthDurations(a, b YearMonthDuration) YearMonthDuration {
	return NewYearMonthDuration(a.Months + b.Months)
}

// AddDayTimeDurations adds two day-time durations.
func AddDayTimeDurations(a, b DayTimeDuration) DayTimeDuration {
	return NewDayTimeDuration(a.Millis + b.Millis)
}

// MultiplyYearMonthDuration and MultiplyDayTimeDuration implement
// duration * number for the two duration kinds (§4.B "arithmetic matrix").
func MultiplyYearMonthDuration(d YearMonthDuration, factor float64) YearMonthDuration {
	return NewYearMonthDuration(int64(float64(d.Months) * factor))
}

func MultiplyDayTimeDuration(d DayTimeDuration, factor float64) DayTimeDuration {
	return NewDayTimeDuration(int64(float64(d.Millis) * factor))
}

// DivideDayTimeDurationByDuration returns the ratio of two day-time
// durations as a double (dayTimeDuration / dayTimeDuration).
func DivideDayTimeDurationByDuration(a, b DayTimeDuration) (Double, error) {
	if b.Millis == 0 {
		return Double{}, xerr.New(xerr.FOAR0001, nil, "duration division by zero")
	}
	return NewDouble(float64(a.Millis) / float64(b.Millis)), nil
}
