// Package advice holds ready-made advice for common cross-cutting concerns:
// call logging, tracing spans, invocation counting and simple guards. Each
// constructor returns aspect.Advice values that can be handed straight to
// aspect.Registry.Register or referenced by name from a manifest.
package advice
