package advice

import (
	"able/aspect-go/pkg/aspect"
	"able/aspect-go/pkg/logger"
)

// Log returns a Call and a Return advice that write one debug entry each per
// intercepted invocation. Neither changes the outcome of the call.
func Log(l *logger.Logger) []aspect.Advice {
	if l == nil {
		l = logger.Nop()
	}
	return []aspect.Advice{
		aspect.OnCall(func(ctx *aspect.CallContext, _ any) (any, error) {
			l.Debug("call",
				"function", ctx.Name,
				"invocation", ctx.ID.String(),
				"args", ctx.Args,
				"kwargs", ctx.Kwargs.String(),
			)
			return nil, nil
		}),
		aspect.OnReturn(func(ctx *aspect.CallContext, ret any) (any, error) {
			l.Debug("return",
				"function", ctx.Name,
				"invocation", ctx.ID.String(),
				"result", ret,
			)
			return ret, nil
		}),
	}
}
