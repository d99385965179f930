package booking

// Allowed pass durations in days.
var allowedPassDays = map[int]bool{1: true, 3: true, 7: true}

// platformFeeByPassDays is the fixed platform fee table, in minor currency
// units.
var platformFeeByPassDays = map[int]int64{
	1: 2,
	3: 5,
	7: 7,
}

// ValidPassDays reports whether d is a sellable pass duration.
func ValidPassDays(d int) bool {
	return allowedPassDays[d]
}

// PlatformFeeFor returns the fee charged on top of the base amount.
func PlatformFeeFor(passDays int) int64 {
	return platformFeeByPassDays[passDays]
}
