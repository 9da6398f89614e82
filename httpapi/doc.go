// Package httpapi serves the credauth Engine over JSON HTTP.
//
// Routes:
//
//	POST /register      {"username","password"}
//	POST /login         {"username","password","token"}
//	POST /logout        (also GET)
//	POST /2fa/setup     session required; returns qrCodeDataUrl
//	POST /2fa/verify    {"token"}, session required
//	GET  /session       current principal
//	GET  /healthz       engine and store readiness
//	GET  /metrics       Prometheus text format
//
// Every route runs behind middleware.Guard, so the idle and absolute timers
// are applied before any handler. Responses use the {"success","message"}
// envelope with statuses from credauth.HTTPStatus.
package httpapi
