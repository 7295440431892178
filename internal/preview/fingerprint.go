package preview

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies a file set plus active file for memoization. Any
// change to any file's name or content, or to the active pointer, produces a
// different value. Collision resistance only needs to beat accidental reuse,
// not an adversary, so a 64-bit xxhash is enough.
func Fingerprint(files map[string]string, activeFile string) string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	d := xxhash.New()
	for _, name := range names {
		_, _ = d.WriteString(name)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(files[name])
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.WriteString(activeFile)
	return fmt.Sprintf("%016x", d.Sum64())
}
