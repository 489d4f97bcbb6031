package bus

// Resolver maps a named exchange service onto its REQ endpoint. Services
// without an explicit override share the default request/reply address; the
// service name travels inside the payload, which is how the backend routes.
type Resolver struct {
	fallback  string
	overrides map[string]string
}

func NewResolver(fallback string, overrides map[string]string) Resolver {
	return Resolver{fallback: fallback, overrides: overrides}
}

func (r Resolver) Resolve(service string) string {
	if addr, ok := r.overrides[service]; ok {
		return addr
	}
	return r.fallback
}
