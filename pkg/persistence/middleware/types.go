// Package middleware wraps talk stores to add behavior below the talk layer.
package middleware

import "github.com/aretw0/talks/pkg/ports"

// Middleware allows wrapping a TalkStore to add behavior.
type Middleware func(ports.TalkStore) ports.TalkStore

// Chain applies middlewares so the first one is the outermost.
func Chain(store ports.TalkStore, mws ...Middleware) ports.TalkStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
