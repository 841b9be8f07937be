package directory

import (
	"bytes"

	"golang.org/x/crypto/ssh"
)

// CountKeys returns how many authorized_keys entries parse out of material.
// Lines that do not parse are skipped, never rejected.
func CountKeys(material []byte) int {
	n := 0
	for _, line := range bytes.Split(material, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if _, _, _, _, err := ssh.ParseAuthorizedKey(line); err == nil {
			n++
		}
	}
	return n
}
