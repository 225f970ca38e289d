package cmd

import "context"

// Visibility tells the runner which reply channel a result goes to.
type Visibility int

const (
	// VisibilityNone sends nothing.
	VisibilityNone Visibility = iota
	// VisibilityDefault routes by the node's permission level.
	VisibilityDefault
	// VisibilityPublic always uses Reply.
	VisibilityPublic
	// VisibilityEphemeral always uses ReplyEphemeral.
	VisibilityEphemeral
)

func (v Visibility) String() string {
	switch v {
	case VisibilityNone:
		return "none"
	case VisibilityDefault:
		return "default"
	case VisibilityPublic:
		return "public"
	case VisibilityEphemeral:
		return "ephemeral"
	}
	return "unknown"
}

// Result is what an action decides to send back.
type Result struct {
	Visibility Visibility
	Body       string
}

// None is the result of an action that has nothing to say.
var None = Result{}

// Text routes body by permission: ADMIN nodes reply ephemerally, USER nodes publicly.
func Text(body string) Result { return Result{Visibility: VisibilityDefault, Body: body} }

// Public forces a public reply.
func Public(body string) Result { return Result{Visibility: VisibilityPublic, Body: body} }

// Ephemeral forces a reply visible only to the invoker.
func Ephemeral(body string) Result { return Result{Visibility: VisibilityEphemeral, Body: body} }

// Empty reports whether the result produces no reply.
func (r Result) Empty() bool {
	return r.Visibility == VisibilityNone || r.Body == ""
}

// Action is the work bound to a command node. args are the tokens left after
// the node's own keyword.
type Action func(ctx context.Context, msg Message, args []string) (Result, error)

// Reply adapts an action that returns plain text. A non-empty string is sent
// using the node's permission routing.
func Reply(fn func(ctx context.Context, msg Message, args []string) (string, error)) Action {
	return func(ctx context.Context, msg Message, args []string) (Result, error) {
		body, err := fn(ctx, msg, args)
		if err != nil {
			return None, err
		}
		return Text(body), nil
	}
}

// route sends res through msg. perm decides the channel for VisibilityDefault.
func route(ctx context.Context, msg Message, perm Permission, res Result) error {
	if res.Empty() {
		return nil
	}
	switch res.Visibility {
	case VisibilityPublic:
		return msg.Reply(ctx, res.Body)
	case VisibilityEphemeral:
		return msg.ReplyEphemeral(ctx, res.Body)
	default:
		if perm == PermissionAdmin {
			return msg.ReplyEphemeral(ctx, res.Body)
		}
		return msg.Reply(ctx, res.Body)
	}
}
