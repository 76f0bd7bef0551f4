package pebblestore

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Keyspace:
//
//	fellowship/<fid>                   -> capacity (empty = unspecified)
//	application/<student>\0<fid>       -> empty
//	spref/<student>\0<rank:010d>        -> fid
//	fpref/<fid>\0<rank:010d>            -> student
//	match/<fid>\0<pos:010d>             -> student
const (
	prefixFellowship  = "fellowship/"
	prefixApplication = "application/"
	prefixStudentPref = "spref/"
	prefixFacultyPref = "fpref/"
	prefixMatch       = "match/"

	sep = "\x00"
)

func fellowshipKey(fid string) []byte {
	return []byte(prefixFellowship + fid)
}

func applicationKey(student, fid string) []byte {
	return []byte(prefixApplication + student + sep + fid)
}

func rankedKey(prefix, owner string, pos int) []byte {
	return []byte(fmt.Sprintf("%s%s%s%010d", prefix, owner, sep, pos))
}

func ownerPrefix(prefix, owner string) []byte {
	return []byte(prefix + owner + sep)
}

// prefixEnd returns the smallest key greater than every key with prefix p.
func prefixEnd(p []byte) []byte {
	end := bytes.Clone(p)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// splitPair splits "<prefix><a>\0<b>" into a and b.
func splitPair(key []byte, prefix string) (string, string, error) {
	rest := bytes.TrimPrefix(key, []byte(prefix))
	a, b, ok := bytes.Cut(rest, []byte(sep))
	if !ok {
		return "", "", errors.Newf("malformed key %q", key)
	}
	return string(a), string(b), nil
}

func parsePos(b string) (int, error) {
	n, err := strconv.Atoi(b)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed position %q", b)
	}
	return n, nil
}
