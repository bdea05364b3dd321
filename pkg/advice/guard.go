package advice

import (
	"able/aspect-go/pkg/aspect"
	"able/aspect-go/pkg/runtime"
)

// Deny vetoes every matching call.
func Deny() aspect.Advice {
	return aspect.OnCall(func(*aspect.CallContext, any) (any, error) {
		return false, nil
	})
}

// Suffix appends s to string return values. Other results pass through.
func Suffix(s string) aspect.Advice {
	return aspect.OnReturn(func(_ *aspect.CallContext, ret any) (any, error) {
		if str, ok := ret.(string); ok {
			return str + s, nil
		}
		return ret, nil
	})
}

// Require vetoes calls in which the named parameter is absent or bound to
// None, including through its default.
func Require(param string) aspect.Advice {
	return aspect.Advice{
		Event: aspect.EventCall,
		Capability: aspect.Handler(func(ctx *aspect.CallContext, _ any) (aspect.AdviceHandler, error) {
			return &requireHandler{ctx: ctx, param: param}, nil
		}),
	}
}

type requireHandler struct {
	ctx   *aspect.CallContext
	param string
}

func (h *requireHandler) Aspect() (any, error) {
	d, ok := h.ctx.Descriptor(h.param)
	if !ok || runtime.IsNone(d.Value) {
		return false, nil
	}
	return true, nil
}
