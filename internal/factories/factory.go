// Package factories generates synthetic catalogs, identities and cart lines for seeding
// and simulation.
package factories

import (
	"math/rand"

	"github.com/jaswdr/faker"
	"github.com/shopspring/decimal"
)

// Factory draws from one seeded source so a run can be replayed.
type Factory struct {
	fake faker.Faker
	rng  *rand.Rand
}

func New(seed int64) *Factory {
	return &Factory{
		fake: faker.NewWithSeed(rand.NewSource(seed)),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// price draws an amount between min and max with two decimals.
func (f *Factory) price(min, max int) decimal.Decimal {
	return decimal.NewFromFloat(f.fake.Float64(2, min, max)).Round(2)
}

func (f *Factory) pick(values []string) string {
	return values[f.rng.Intn(len(values))]
}
