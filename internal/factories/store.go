package factories

import "github.com/chrisdamba/menusync/internal/models"

var weekdays = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// CreateStore builds an online store taking pickup orders. alwaysOpen opens it around
// the clock, otherwise it keeps lunch and dinner hours.
func (f *Factory) CreateStore(id string, alwaysOpen bool) *models.Store {
	hours := make(models.HoursMap, len(weekdays))
	for _, day := range weekdays {
		switch {
		case alwaysOpen:
			hours[day] = []string{"00:00-23:59"}
		case day == "sun":
			hours[day] = []string{"12:00-20:00"}
		default:
			hours[day] = []string{"11:00-14:30", "17:00-22:00"}
		}
	}
	return &models.Store{
		ID:       id,
		Name:     f.fake.Company().Name(),
		Timezone: "UTC",
		Online:   true,
		Phone:    f.fake.Phone().Number(),
		Address:  f.fake.Address().City(),
		Hours:    hours,
		Pickup: &models.PickupConfig{
			Enabled:        true,
			MinLeadMinutes: 15,
			MaxLeadMinutes: 120,
			BufferMinutes:  5,
		},
	}
}
