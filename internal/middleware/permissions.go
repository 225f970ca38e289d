package middleware

import (
	"context"
	"fmt"

	"github.com/keshon/domme-dispatch/pkg/cmd"
)

// RequiresAdmin reports whether n or any of its ancestors is admin-only.
func RequiresAdmin(n *cmd.Node) bool {
	for ; n != nil; n = n.Parent() {
		if n.Permission() == cmd.PermissionAdmin {
			return true
		}
	}
	return false
}

// WithPermissionCheck refuses admin commands to authors that are neither
// administrators nor the developer. Messages without a source (local console)
// are trusted.
func WithPermissionCheck(developerID string) cmd.Middleware {
	return func(next cmd.Handler) cmd.Handler {
		return func(ctx context.Context, inv *cmd.Invocation) (cmd.Result, error) {
			if !RequiresAdmin(inv.Node) {
				return next(ctx, inv)
			}
			src, ok := inv.Message.(cmd.Sourced)
			if !ok {
				return next(ctx, inv)
			}
			s := src.Source()
			if s.Admin || (developerID != "" && s.AuthorID == developerID) {
				return next(ctx, inv)
			}
			return cmd.Ephemeral(fmt.Sprintf("You need the `Administrator` permission to run `%s`.", inv.Node.Name())), nil
		}
	}
}
