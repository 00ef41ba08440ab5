package ordering

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const orderNumberPrefix = "ORD-"

// NumberGenerator derives human-readable order numbers of the form
// ORD-YYMMDD-NNNN from the current date and a random suffix.
type NumberGenerator struct {
	loc  *time.Location
	now  func() time.Time
	intn func(n int) int
}

// NewNumberGenerator returns a generator that dates numbers in loc
func NewNumberGenerator(loc *time.Location) *NumberGenerator {
	return NewNumberGeneratorWith(loc, time.Now, rand.IntN)
}

// NewNumberGeneratorWith allows the clock and random source to be replaced.
// intn must be safe for concurrent use.
func NewNumberGeneratorWith(loc *time.Location, now func() time.Time, intn func(n int) int) *NumberGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &NumberGenerator{loc: loc, now: now, intn: intn}
}

// Next returns a new order number. Numbers are not unique on their own.
func (g *NumberGenerator) Next() string {
	t := g.now().In(g.loc)
	return fmt.Sprintf("%s%02d%02d%02d-%04d",
		orderNumberPrefix, t.Year()%100, int(t.Month()), t.Day(), g.intn(10000))
}
