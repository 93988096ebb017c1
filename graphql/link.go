package graphql

import (
	"context"
)

// Link — звено транспортного пайплайна.
// Терминальные звенья (HTTPLink, BatchLink) выполняют сетевой вызов,
// промежуточные — оборачивают следующее звено (см. Middleware).
type Link interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

// LinkFunc — адаптер функции к интерфейсу Link.
type LinkFunc func(ctx context.Context, req *Request) (*Response, error)

// RoundTrip вызывает f(ctx, req).
func (f LinkFunc) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware оборачивает звено пайплайна.
type Middleware func(next Link) Link

// Chain собирает пайплайн из терминального звена и middleware.
// Middleware применяются так, что первый аргумент оказывается внешним:
//
//	Chain(http, detectInvalid, attachToken, retry)
//	→ detectInvalid(attachToken(retry(http)))
func Chain(terminal Link, middlewares ...Middleware) Link {
	link := terminal
	for i := len(middlewares) - 1; i >= 0; i-- {
		link = middlewares[i](link)
	}
	return link
}
