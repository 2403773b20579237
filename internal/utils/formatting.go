package utils

import (
	"regexp"
	"time"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func StripANSI(input string) string {
	return ansiRe.ReplaceAllString(input, "")
}

// HumanAge renders a cache age the way status tables show it ("4m12s", "3h2m").
func HumanAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d >= time.Hour {
		d = d.Truncate(time.Minute)
	} else {
		d = d.Truncate(time.Second)
	}
	return d.String()
}
