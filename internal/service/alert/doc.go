// Package alert implements persisted, tenant-scoped alert rule management.
//
// The service layer owns validation and the manual active/resolved state
// machine. It depends on the Repository interface defined in this package;
// the Postgres implementation lives in repository/postgres. The tenant scope
// resolved from the principal is applied to reads AND mutations, so a
// non-superadmin can never resolve or reopen another tenant's rule even with
// a guessed id.
package alert
