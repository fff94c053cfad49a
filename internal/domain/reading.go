package domain

import "fmt"

// Value domain of generated readings. Upper bounds are exclusive.
const (
	SpeedMin   = 0.0
	SpeedMax   = 100.0
	YawRateMin = -5.0
	YawRateMax = 5.0
)

// Reading is one synthetic vehicle sample.
// It is created fresh on every tick and discarded once encoded.
type Reading struct {
	// Speed in m/s, within [SpeedMin, SpeedMax)
	Speed float64

	// YawRate in degrees/s, within [YawRateMin, YawRateMax)
	YawRate float64
}

// InRange reports whether both fields fall inside the generator's value domain.
// Decoders do not enforce this.
func (r Reading) InRange() bool {
	return r.Speed >= SpeedMin && r.Speed < SpeedMax &&
		r.YawRate >= YawRateMin && r.YawRate < YawRateMax
}

func (r Reading) String() string {
	return fmt.Sprintf("speed=%g yaw_rate=%g", r.Speed, r.YawRate)
}
