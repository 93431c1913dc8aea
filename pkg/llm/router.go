package llm

import (
	"context"
	"fmt"
)

// Router resolves provider names to registered providers. The registration
// order is the preference order for auto mode, so the local runtime should
// be registered before the cloud API.
type Router struct {
	providers map[string]Provider
	order     []string
}

func NewRouter(providers ...Provider) (*Router, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	r := &Router{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if _, dup := r.providers[p.Name()]; dup {
			return nil, fmt.Errorf("provider %q registered twice", p.Name())
		}
		r.providers[p.Name()] = p
		r.order = append(r.order, p.Name())
	}
	return r, nil
}

// Names lists registered providers in preference order.
func (r *Router) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Provider returns the registered provider with the given name.
func (r *Router) Provider(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Chat routes a request to the named provider. An empty name or
// ProviderAuto walks providers in preference order, moving on only when the
// failure looks like an outage (network error or upstream 5xx); client-side
// errors are returned as-is since retrying them elsewhere would not help.
func (r *Router) Chat(ctx context.Context, name string, req ChatRequest) (Reply, error) {
	if name != "" && name != ProviderAuto {
		p, err := r.Provider(name)
		if err != nil {
			return Reply{}, err
		}
		return p.Chat(ctx, req)
	}

	var lastErr error
	for i, n := range r.order {
		attempt := req
		if i > 0 {
			// A pinned model id is meaningless on the fallback provider;
			// let it use its configured default instead.
			attempt.Model = ""
		}
		reply, err := r.providers[n].Chat(ctx, attempt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return Reply{}, lastErr
}

// retryable reports whether a provider error indicates the backend itself is
// unavailable rather than rejecting the request.
func retryable(err error) bool {
	status, ok := UpstreamStatus(err)
	if !ok {
		// Connection refused, timeouts and the like.
		return true
	}
	return status >= 500
}
