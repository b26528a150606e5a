package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

const keyHashLength = 16

// BuildKey derives namespace:hash from params. Parameter names are sorted
// and empty values dropped, so logically equal requests share a key.
func BuildKey(namespace string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name, v := range params {
		if v != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return namespace + ":" + hex.EncodeToString(sum[:])[:keyHashLength]
}
