// Package identity implements the credential and token lifecycle for a
// user-identity backend: password hashing, one-time verification tokens
// (email links and phone OTPs), signed session tokens, and the account state
// transitions from registration through verification.
//
// Lifecycle:
//   - Accounts are created unverified with a fresh opaque verification token
//     and move to verified exactly once, through an email link or phone code.
//     Passwords are mutable at any state through the forgot/reset flow.
//   - CredentialLifecycle orchestrates the flows on top of narrow AccountStore
//     and NotificationGateway collaborators; bun-backed implementations of the
//     stores ship in this package, and any record store with email/phone
//     uniqueness enforcement can replace them.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing registration,
//     login, OTP, verification, and password reset events. Sinks run
//     best-effort (errors are logged) so you can forward to a database or
//     queue without blocking authentication.
package identity
