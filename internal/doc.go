// Package internal holds helpers that are private to credauth, currently the
// random session handle generator.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - config: daemon configuration loading (defaults, TOML, env, flags)
//   - dbx: database/sql transaction helper shared by SQL backends
//   - logging: context-aware structured logger over log/slog
//
// # What this package must NOT do
//
//   - Export types that appear in the public credauth API.
//   - Be imported by any package outside the credauth module.
package internal
