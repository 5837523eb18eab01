// Package apps implements the netdemo client and server applications.
package apps

import "context"

// App is a runnable netdemo application.
type App interface {
	Run(ctx context.Context, args []string) error
}
