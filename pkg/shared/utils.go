package shared

import (
	"github.com/spf13/pflag"
)

// HasFlags reports whether any flag in the set was explicitly provided.
func HasFlags(flags *pflag.FlagSet) bool {
	has := false
	flags.Visit(func(*pflag.Flag) {
		has = true
	})
	return has
}
