// Package probe backs the placeholder test endpoint: a trivial read that
// proves a session can reach the database.
package probe

import "context"

// Greeting is what the probe returns when the database answers.
const Greeting = "Hello, World From Repository!"

type Repository interface {
	Hello(ctx context.Context) (string, error)
}
