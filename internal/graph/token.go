package graph

import (
	"context"
	"fmt"
)

// TokenProvider supplies bearer tokens for the given scopes. Implementations
// return ErrAuthRequired (possibly wrapped) when no credential is available.
type TokenProvider interface {
	Token(ctx context.Context, scopes []string) (string, error)
}

// StaticToken is a TokenProvider handing out a fixed token.
type StaticToken string

func (t StaticToken) Token(_ context.Context, _ []string) (string, error) {
	if t == "" {
		return "", ErrAuthRequired
	}
	return string(t), nil
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context, scopes []string) (string, error)

func (f TokenFunc) Token(ctx context.Context, scopes []string) (string, error) {
	return f(ctx, scopes)
}

func acquire(ctx context.Context, p TokenProvider, scopes []string) (string, error) {
	if p == nil {
		return "", ErrAuthRequired
	}
	tok, err := p.Token(ctx, scopes)
	if err != nil {
		return "", fmt.Errorf("acquiring token: %w", err)
	}
	if tok == "" {
		return "", ErrAuthRequired
	}
	return tok, nil
}
