/*
Package auth implements account registration, login and bearer token
verification for the history service.

Passwords are hashed with bcrypt and never leave this package or the store.
Tokens are HS256 JWTs carrying the numeric user ID in the "userId" claim.
*/
package auth
