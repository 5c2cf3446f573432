package passes

import "github.com/born-ml/irpass/internal/rewrite"

// All returns every normalization pass in registration order.
func All() []rewrite.Pass {
	var passes []rewrite.Pass
	passes = append(passes, conv3dPasses()...)
	return passes
}

// Default compiles All into a registry. Call it once at start-up and share
// the result; the registry is read-only.
func Default() (*rewrite.Registry, error) {
	return rewrite.NewRegistry(All()...)
}
