package usecase

import (
	"fmt"
	"strconv"
	"strings"
)

const referenceDigits = 4

// ReferenceGenerator produces PREFIX-NNNN references. It is pure: callers
// must read the current maximum and insert under the same writer lock.
type ReferenceGenerator struct {
	Prefix string
}

func NewReferenceGenerator(prefix string) ReferenceGenerator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "EKSU"
	}
	return ReferenceGenerator{Prefix: prefix}
}

// Next returns the reference following current. An empty current starts the
// sequence at 1. Numbers past 9999 keep growing in width.
func (g ReferenceGenerator) Next(current string) (string, error) {
	n := 0
	if current != "" {
		digits, ok := strings.CutPrefix(current, g.Prefix+"-")
		if !ok {
			return "", fmt.Errorf("reference %q does not carry prefix %q", current, g.Prefix)
		}
		parsed, err := strconv.Atoi(digits)
		if err != nil || parsed < 0 {
			return "", fmt.Errorf("reference %q has a malformed sequence number", current)
		}
		n = parsed
	}
	return g.Format(n + 1), nil
}

func (g ReferenceGenerator) Format(n int) string {
	return fmt.Sprintf("%s-%0*d", g.Prefix, referenceDigits, n)
}
