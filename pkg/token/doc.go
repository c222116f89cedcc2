// Package token creates and hashes meterd admin keys.
//
// Generated keys are "mdk_" followed by 32 random bytes in Base64 RawURL
// form. Operators may bring their own key instead; CheckKey rejects short
// ones. Only the hash is stored, as an argon2id PHC string in
// admin.api_key_hash:
//
//	$argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>
//
// Verify reads the cost parameters from the hash, so older hashes keep
// working when the defaults change.
package token
