package passes

import (
	"github.com/gparmer/Composite/internal/sysspec"
	"github.com/gparmer/Composite/internal/system"
)

// ParseSpec loads and validates the system specification.
func ParseSpec(_ *system.State, bs system.BuildState) (*sysspec.SystemSpec, error) {
	return sysspec.Load(bs.Fs(), bs.SpecPath())
}
