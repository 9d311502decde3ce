package agent_buffer

// RegistryBuilderOption is a functional option for configuring a Registry.
type RegistryBuilderOption func(*registry)

// WithGrowthPolicy overrides the default 1024 x 1.5 growth policy.
//
// Parameters:
//   - policy: the growth policy to use
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithGrowthPolicy(policy GrowthPolicy) RegistryBuilderOption {
	return func(r *registry) {
		r.growth = policy
	}
}

// WithFirstTextureUnit sets the first texture unit handed to records. Units below it stay free
// for static geometry. Values below 1 panic when the registry is built.
//
// Parameters:
//   - unit: the first texture unit
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithFirstTextureUnit(unit int) RegistryBuilderOption {
	return func(r *registry) {
		r.firstUnit = unit
	}
}

// WithSyncGate shares an existing gate instead of creating one.
//
// Parameters:
//   - gate: the gate to use
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithSyncGate(gate *SyncGate) RegistryBuilderOption {
	return func(r *registry) {
		r.gate = gate
	}
}
