//go:build !unix

package terminal

import "time"

// waitReadable cannot poll the console here; GET sees no key.
func waitReadable(int, time.Duration) bool { return false }
