// Package hostfs provides safe access helpers for host files.
//
// The host filesystem may be mounted somewhere other than "/" when the tool
// runs inside a container, e.g.:
//
//	/etc/ssh/authorized_keys -> /host/etc/ssh/authorized_keys
//
// Writes go through a temp file and a rename so sshd never reads a
// half-written key file.
package hostfs
