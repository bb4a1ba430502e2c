// Package userservice implements the account and credential service for the
// CodeCraftHub learning platform: registration, password login, JWT issuance
// and verification, role-gated access, and per-user learning progress.
//
// Token lifecycle:
//   - TokenService signs claims (subject, email, role, timing bounds) with a
//     process-wide HMAC secret. Tokens are self-contained; verification is
//     stateless and never consults the user store, so a deactivated account
//     keeps its access until the token expires.
//   - The jwtware middleware extracts the bearer token, validates it, and
//     attaches the claims to the request context for downstream handlers.
//
// User lifecycle:
//   - Users carry an IsActive flag persisted via Bun. Deletion is logical:
//     the flag flips false and the record is never physically erased.
//   - Email and username are unique across active and inactive accounts.
//     The uniqueness constraint lives in the database schema so concurrent
//     registrations cannot both succeed.
package userservice
