// Package aspect intercepts calls to runtime callables. Aspects pair a point-cut
// pattern, matched at the start of a callable's qualified name
// (module.[Class.]function), with ordered advice run when a matching call is
// made (Call) and when it returns (Return). Wrap turns a callable into a
// JoinPoint; every invocation of a JoinPoint resolves its binding, binds the
// arguments to the callable's signature, runs Call advice (any explicit false
// vetoes the call once all advice has run), invokes the callable and folds the
// result through Return advice in registry order.
//
// Per-call state lives in a CallContext built fresh for each invocation, so a
// single JoinPoint is safe for concurrent and recursive use.
package aspect
