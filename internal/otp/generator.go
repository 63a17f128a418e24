// Package otp genera códigos numéricos one-time para el flujo de step-up.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// ErrRandomnessUnavailable indica que la fuente segura de aleatoriedad falló.
// No hay fallback a un PRNG débil: el error se propaga siempre.
var ErrRandomnessUnavailable = errors.New("otp: secure randomness unavailable")

// Generator produce códigos numéricos de largo fijo usando crypto/rand.
type Generator struct {
	// Rand permite inyectar una fuente en tests. Nil => crypto/rand.Reader.
	Rand io.Reader
}

func (g *Generator) reader() io.Reader {
	if g.Rand != nil {
		return g.Rand
	}
	return rand.Reader
}

// Generate retorna un código de exactamente length dígitos, extraído uniforme
// de [0, 10^length) y zero-padded a la izquierda.
func (g *Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("otp: invalid code length %d", length)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(g.reader(), max)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomnessUnavailable, err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
