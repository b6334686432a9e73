// Package domain defines the core business types for the Hoy analytics engine.
//
// Types in this package are pure value objects with no behavior beyond
// validation, no database dependencies, and no HTTP concerns. They are the
// shared language between handlers, the analytics engine, services, and
// repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - Every type must be flat and serializable: primitive fields and
//     arrays/maps thereof only
//   - Constants and enums belong here
package domain
