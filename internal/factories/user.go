package factories

import (
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/lucsky/cuid"
)

// CreateIdentity returns a signed-in identity; verified controls checkout eligibility.
func (f *Factory) CreateIdentity(verified bool) models.Identity {
	return models.Identity{
		UserID:   cuid.New(),
		Verified: verified,
		Name:     f.fake.Person().Name(),
		Email:    f.fake.Internet().Email(),
	}
}
