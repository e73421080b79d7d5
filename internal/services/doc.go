// Package services defines the [RoastService] interface for the remote roast API and implements it over HTTP.
//
// # Transport
//
// [APIService] sends requests with the visitor's remote cookies from a [models.CookieJar],
// adds the X-CSRFToken header on state-changing methods, and merges Set-Cookie headers back
// into the jar. Outbound calls pass an optional token bucket from [golang.org/x/time/rate].
//
// # Roast Client
//
// [RoastClient] maps each wizard, dashboard and account operation onto a configured path.
// Response shapes are assumed, not validated: payloads are read leniently with gjson paths
// and missing fields become empty values.
//
// The external login URL comes from auth.login_url, or an [oauth2.Config] authorize URL when
// a Spotify client id is configured, or the remote auth path.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [StatusError] : Non-2xx/3xx response, errors.Is(err, [shared.ErrAPIRequest]) holds
//   - [IsBadRequest] : 400, the user-correctable form error
//   - [shared.ErrServiceUnavailable] : The remote could not be reached ([IsTransport])
//   - [shared.ErrMalformedResponse] : Body was not JSON
//   - [shared.ErrRecordNotFound] : A display call without an active record
package services
