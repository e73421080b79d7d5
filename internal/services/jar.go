package services

import (
	"maps"
	"net/http"
	"slices"

	"github.com/desertthunder/roastx/internal/models"
)

// forwardingJar reads through to browser cookies the remote API set directly,
// for deployments where both hosts share a cookie domain. Writes go to the
// underlying jar only.
type forwardingJar struct {
	models.CookieJar
	forwarded map[string]string
}

// WithForwarded wraps jar so that cookies named in names, present on the
// incoming browser request but missing from jar, are sent too.
func WithForwarded(jar models.CookieJar, browser []*http.Cookie, names []string) models.CookieJar {
	forwarded := map[string]string{}
	for _, c := range browser {
		if slices.Contains(names, c.Name) && c.Value != "" {
			forwarded[c.Name] = c.Value
		}
	}
	if len(forwarded) == 0 {
		return jar
	}
	return &forwardingJar{CookieJar: jar, forwarded: forwarded}
}

func (j *forwardingJar) Cookie(name string) string {
	if v := j.CookieJar.Cookie(name); v != "" {
		return v
	}
	return j.forwarded[name]
}

func (j *forwardingJar) Cookies() map[string]string {
	out := maps.Clone(j.forwarded)
	maps.Copy(out, j.CookieJar.Cookies())
	return out
}
