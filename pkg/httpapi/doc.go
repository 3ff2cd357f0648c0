// Package httpapi mounts the three thin HTTP façades described by the
// system: Data (consumed by a running script through DATA_URL), Control
// (the operator's channel/run surface), and Public (where an operator's
// browser posts answers). Each façade is a thin chi.Router projection of
// *machine.Machine — no business logic lives here beyond translating
// query/path/body shapes into Machine calls and translating Machine
// errors into HTTP status codes.
package httpapi
