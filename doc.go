// Package auth provides the authentication and account layer for the
// trailhead API: JWT session issuance, a guard middleware chain, role
// gating, and the password reset lifecycle.
//
// Sessions:
//   - TokenService signs and validates HS256 credentials whose claims
//     carry the user id and role. SessionIssuer wraps a signed token in
//     the response envelope plus an httpOnly cookie.
//   - Guard.Protect verifies the bearer credential before touching the
//     store, re-resolves the user, and rejects tokens minted before the
//     account's last password change. Guard.RequireRoles layers role
//     checks on top.
//
// Password reset:
//   - A reset token is random bytes handed to the user raw; only its
//     sha256 digest is persisted, with a short expiry. Consuming a token
//     is a single claim-and-clear update so a token can never be spent
//     twice, and unknown and expired tokens are indistinguishable to the
//     caller.
//
// Activity sinks:
//   - ActivityRecorder is a light-weight audit emitter the HTTP
//     controller feeds with login, reset, and deactivation events. The
//     default recorder just logs; forward to a queue or table as needed
//     without blocking the request path.
package auth
