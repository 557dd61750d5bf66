package domain

// CapitalConfig describes the cash available for cash-secured positions.
type CapitalConfig struct {
	AvailableCash      float64
	ReserveCash        float64
	MaxCashPerPosition float64
	MaxPositions       int  // advisory, reported only
	FilterByCash       bool // drop opportunities that cannot afford one contract
}

// DeployableCash returns available minus reserve, clamped to 0.
// The second result is true when clamping occurred. capital.Validate rejects
// such a config before any scan runs.
func (c CapitalConfig) DeployableCash() (float64, bool) {
	d := c.AvailableCash - c.ReserveCash
	if d < 0 {
		return 0, true
	}
	return d, false
}
