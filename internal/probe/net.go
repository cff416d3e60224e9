package probe

import (
	"context"
)

// HTTPReachable is a preflight gate: satisfied when the URL answers,
// unsatisfied when it does not. Catalogs pair it with a no-op action on a
// critical item so an offline host halts the run instead of failing one
// download at a time. The session memoizes the answer so the gate costs one
// request per run.
type HTTPReachable struct {
	URL string
}

func newHTTPReachable(params map[string]any) (Probe, error) {
	url, err := StringParam(params, "url", true)
	if err != nil {
		return nil, err
	}
	return &HTTPReachable{URL: url}, nil
}

// Evaluate implements Probe.
func (p *HTTPReachable) Evaluate(ctx context.Context, session *Session) (Status, error) {
	if session.Reachable(ctx, p.URL) {
		return Satisfied("%s reachable", p.URL), nil
	}
	return Unsatisfied("%s unreachable", p.URL), nil
}
