/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of model.
* It is indexed by a primary key only.
* Easy queries for one and iteration.

For inspiration, look at [storm](https://github.com/asdine/storm) built on top of [bolt kvstore](https://github.com/boltdb/bolt#using-buckets).
* Do not use so much reflection magic. Better do stuff compile-time static, even if it is a bit of boilerplate.
*/
package orm

import (
	"fmt"
	"regexp"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// prefixedKey is the full key we store in the db, including prefix.
// We copy into a new array rather than use append, as we don't
// want consequetive calls to overwrite the same byte array.
func prefixedKey(prefix, key []byte) []byte {
	l := len(prefix)
	out := make([]byte, l+len(key))
	copy(out, prefix)
	copy(out[l:], key)
	return out
}

// prefixRange turns a prefix into (start, end) to create
// an iterator over all keys starting with the prefix
func prefixRange(prefix []byte) ([]byte, []byte) {
	start := append([]byte(nil), prefix...)
	end := append([]byte(nil), prefix...)
	l := len(end) - 1
	end[l]++

	// wrap around when we hit the end
	for end[l] == 0 && l > 0 {
		l--
		end[l]++
	}
	// this means we were at the last possible prefix
	if l == 0 && end[0] == 0 {
		end = nil
	}
	return start, end
}

func bucketPrefix(name string) []byte {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return append([]byte(name), ':')
}
