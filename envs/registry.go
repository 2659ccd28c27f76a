package envs

import (
	"fmt"

	"github.com/kestrel-rl/kestrel/core"
)

// PlatformClassic is the built-in classic-control platform.
const PlatformClassic = "classic"

// New resolves a platform/environment identifier pair to a seeded
// environment instance. Unknown identifiers are configuration errors.
func New(platform, name string, seed uint64) (core.Environment, error) {
	if platform != PlatformClassic {
		return nil, fmt.Errorf("%w: unsupported platform %q", core.ErrConfiguration, platform)
	}
	switch name {
	case "CartPole":
		return NewCartPole(seed), nil
	case "Pendulum":
		return NewPendulum(seed), nil
	default:
		return nil, fmt.Errorf("%w: unknown environment %q on platform %q", core.ErrConfiguration, name, platform)
	}
}
