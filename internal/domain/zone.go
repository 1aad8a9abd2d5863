package domain

// Zone is a fixed named area grouping lockers.
type Zone struct {
	ID   string
	Name string
}

// Zones lists every zone lockers may be assigned to.
var Zones = []Zone{
	{ID: "Z-A", Name: "Zone A - Lobby"},
	{ID: "Z-B", Name: "Zone B - 2nd Floor"},
	{ID: "Z-C", Name: "Zone C - Gym Area"},
}

// LookupZone finds a zone by id.
func LookupZone(id string) (Zone, bool) {
	for _, z := range Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}
