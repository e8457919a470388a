package dateutil

import "time"

// Layout es el formato de fecha usado en requests/responses (YYYY-MM-DD).
const Layout = "2006-01-02"

// Clock devuelve la hora actual. Los services lo reciben para poder fijarlo en tests.
type Clock func() time.Time

// SystemClock usa el reloj del proceso.
var SystemClock Clock = time.Now

// DateOf trunca t a la medianoche de su día calendario (en su propia location).
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Today devuelve la fecha (sin hora) de now.
func Today(now time.Time) time.Time {
	return DateOf(now)
}

// AddDays suma n días calendario a la fecha de t.
func AddDays(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, n)
}

// AtTime combina la fecha de day con hour:minute.
func AtTime(day time.Time, hour, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, day.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CivilDate lleva el día calendario de t (en su propia location) a
// medianoche UTC, para comparar fechas guardadas en UTC con un now local.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Within indica si el día calendario de t cae en [start, end], ambos
// inclusive. Cada valor se lee en su propia location.
func Within(t, start, end time.Time) bool {
	day := CivilDate(t)
	return !day.Before(CivilDate(start)) && !day.After(CivilDate(end))
}

// ParseDate parsea YYYY-MM-DD en la location dada (UTC si loc es nil).
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(Layout, s, loc)
}
