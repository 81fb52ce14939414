package query

import "context"

// Mutation is a write followed by cache maintenance. It never retries.
type Mutation[In, Out any] struct {
	Fn        func(ctx context.Context, in In) (Out, error)
	OnSuccess func(ctx context.Context, out Out, in In)
	OnError   func(ctx context.Context, err error, in In)
}

func (m Mutation[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	out, err := m.Fn(ctx, in)
	if err != nil {
		if m.OnError != nil {
			m.OnError(ctx, err, in)
		}
		return out, err
	}
	if m.OnSuccess != nil {
		m.OnSuccess(ctx, out, in)
	}
	return out, nil
}
