// Package identity maps identities from the trust source onto local account
// names.
//
// A local name is always Prefix + identity. The prefix keeps managed
// accounts from colliding with system accounts and lets the sweep tell
// managed key files from hand-placed ones.
package identity
