package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		rental Rental
		want   RentalStatus
	}{
		{"stored past end", Rental{Status: RentalStatusStored, EndTime: &past}, RentalStatusOverdue},
		{"stored before end", Rental{Status: RentalStatusStored, EndTime: &future}, RentalStatusStored},
		{"stored at end", Rental{Status: RentalStatusStored, EndTime: &now}, RentalStatusStored},
		{"no end time", Rental{Status: RentalStatusStored}, RentalStatusStored},
		{"completed late", Rental{Status: RentalStatusCompleted, EndTime: &past}, RentalStatusCompleted},
		{"pending late", Rental{Status: RentalStatusPending, EndTime: &past}, RentalStatusPending},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rental.EffectiveStatus(now))
		})
	}
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleAdmin.Can(CapManageUsers))
	assert.False(t, RoleManager.Can(CapManageUsers))
	assert.True(t, RoleManager.Can(CapViewDashboard))
	assert.False(t, RoleStaff.Can(CapViewDashboard))
	assert.True(t, RoleTechnician.Can(CapReportMaintenance))
	assert.True(t, RoleCourier.Can(CapRent))
	assert.False(t, RoleCourier.Can(CapViewLockers))
	assert.False(t, RoleAdmin.Can(CapRent))
	assert.False(t, Role("Guest").Valid())

	assert.False(t, Caller{Role: RoleAdmin}.Can(CapManageUsers))
	assert.True(t, (&User{ID: "u", Role: RoleUser}).Caller().Can(CapRent))
}

func TestLockerSizePricing(t *testing.T) {
	assert.Equal(t, int64(5000), LockerSizeSmall.PricePerHour())
	assert.Equal(t, int64(10000), LockerSizeMedium.PricePerHour())
	assert.Equal(t, int64(20000), LockerSizeLarge.PricePerHour())
	assert.Zero(t, LockerSize("Huge").PricePerHour())
	assert.False(t, LockerSize("Huge").Valid())
}

func TestStatusEnums(t *testing.T) {
	assert.True(t, LockerStatusLowBattery.Valid())
	assert.False(t, LockerStatus("Broken").Valid())
	assert.True(t, MaintenanceStatusInProgress.ActiveRepair())
	assert.False(t, MaintenanceStatusResolved.ActiveRepair())
	assert.True(t, RentalStatusCancelled.Terminal())
	assert.False(t, RentalStatusOverdue.Terminal())

	zone, ok := LookupZone("Z-B")
	assert.True(t, ok)
	assert.Equal(t, "Zone B - 2nd Floor", zone.Name)
	_, ok = LookupZone("Z-Z")
	assert.False(t, ok)
}
