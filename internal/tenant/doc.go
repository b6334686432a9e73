// Package tenant implements the cross-cutting authorization scope policy.
//
// The original system repeated ad hoc role checks in every controller. Here
// a single Scope policy is resolved once per request from the authenticated
// principal and consumed by every read and write path, so an under-privileged
// principal can never observe or mutate another tenant's rows through any
// component.
package tenant
