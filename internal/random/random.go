package random

import (
	"crypto/rand"
	"math/big"
	randv2 "math/rand/v2"

	"github.com/myrjola/teddytown/internal/errors"
)

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns a cryptographically random string of n ASCII letters.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	for i := range letters {
		letterIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(allowedLetters))))
		if err != nil {
			return "", errors.Wrap(err, "read random letter index")
		}
		letters[i] = allowedLetters[letterIndex.Int64()]
	}
	return string(letters), nil
}

// Shuffle permutes s in place with the Fisher–Yates algorithm. intn must return a uniformly distributed integer in
// [0, n). A nil intn uses [randv2.IntN].
func Shuffle[T any](s []T, intn func(n int) int) {
	if intn == nil {
		intn = randv2.IntN
	}
	for i := len(s) - 1; i > 0; i-- {
		j := intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
