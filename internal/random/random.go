// Package random draws values from crypto/rand for identifiers and session seeds.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"

	"github.com/myrjola/interrogation/internal/errors"
)

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns n random ASCII letters, e.g., for naming in-memory databases.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	for i := range letters {
		letterIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(allowedLetters))))
		if err != nil {
			return "", errors.Wrap(err, "read random int")
		}
		letters[i] = allowedLetters[letterIndex.Int64()]
	}
	return string(letters), nil
}

// Seed returns a non-zero random seed for the weakness pattern generator.
//
// Zero is reserved for "no seed configured".
func Seed() (int64, error) {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, errors.Wrap(err, "read random bytes")
		}
		seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1) //nolint:gosec // shifted into int64 range
		if seed != 0 {
			return seed, nil
		}
	}
}
