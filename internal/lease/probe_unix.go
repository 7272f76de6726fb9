//go:build unix

package lease

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// probeWritable checks write access with access(2) first — cheap and
// side-effect free — then confirms with a real probe write, since access(2)
// answers for the real UID and can disagree with mount options.
func probeWritable(folder string) error {
	if err := unix.Access(folder, unix.W_OK); err != nil {
		return fmt.Errorf("cannot write to folder %s: %w", folder, err)
	}

	return probeFile(folder)
}
