package bind_group_provider

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithEntries sets the resolved entries of the provider.
//
// Parameters:
//   - entries: the entries, sorted by binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the entries for this provider
func WithEntries(entries ...Entry) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.entries = append(p.entries, entries...)
	}
}
