// Package stack implements the Statement Stack (spec.md §4.8): an
// append-only, immutable ordered list of statements executed together,
// either natively pipelined by a capable driver or sequentially, with a
// fixed fail-fast-vs-collect-errors choice per run.
package stack

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sqlspec/sqlspec"
)

// Mode selects how a StatementStack tolerates a failing member.
type Mode int

const (
	// FailFast aborts the stack at the first error, per spec.md §4.8
	// default behavior.
	FailFast Mode = iota
	// CollectErrors runs every statement regardless of earlier failures
	// and reports all errors together.
	CollectErrors
)

// Method selects which Session verb a StackOperation dispatches through,
// per spec.md §3's method tag (execute | execute_many | execute_script |
// execute_arrow). A stack is a heterogeneous composition: one entry can
// run a single statement while the next runs a batch or a raw script,
// all inside the same Execute transaction.
type Method int

const (
	// MethodExecute runs Statement once, bound to Positional/Params.
	MethodExecute Method = iota
	// MethodExecuteMany runs Statement once per parameter set in Many.
	MethodExecuteMany
	// MethodExecuteScript runs Script verbatim, bypassing the compile/
	// cache pipeline entirely (Session.ExecuteScript is uncached).
	MethodExecuteScript
	// MethodExecuteArrow runs Statement and collects its result as a
	// columnar table.
	MethodExecuteArrow
)

// StackOperation is one entry in a StatementStack: a method tag plus
// whichever of Statement/Positional/Params/Many/Script that method needs.
// A stack entry's own Positional/Params/Many lets the same stack mix
// entries bound to different rows, e.g. an order insert followed by a
// batch of line-item inserts followed by a script-driven archival step.
type StackOperation struct {
	Method Method

	// Statement is used by MethodExecute, MethodExecuteMany, and
	// MethodExecuteArrow.
	Statement sqlspec.Statement

	// Positional and Params bind MethodExecute's argument shapes — a
	// stack operation can carry either, matching Statement.WithParams.
	Positional []any
	Params     map[string]any

	// Many carries MethodExecuteMany's per-row named parameter sets.
	Many []map[string]any

	// Script carries MethodExecuteScript's raw, unparsed SQL text.
	Script string
}

// StatementStack is an append-only, immutable ordered list of operations.
// Every With* method returns a new stack; the receiver is never mutated,
// matching Statement's own immutability discipline.
type StatementStack struct {
	ops []StackOperation
}

// NewStack builds an empty StatementStack.
func NewStack() StatementStack {
	return StatementStack{}
}

// With returns a new stack with op appended.
func (s StatementStack) With(op StackOperation) StatementStack {
	out := make([]StackOperation, len(s.ops), len(s.ops)+1)
	copy(out, s.ops)
	out = append(out, op)

	return StatementStack{ops: out}
}

// Append is a convenience wrapper over With for a bare execute Statement
// with no extra bound parameters.
func (s StatementStack) Append(stmt sqlspec.Statement) StatementStack {
	return s.With(StackOperation{Method: MethodExecute, Statement: stmt})
}

// AppendMany appends an execute_many operation: stmt run once per
// parameter set in many.
func (s StatementStack) AppendMany(stmt sqlspec.Statement, many []map[string]any) StatementStack {
	return s.With(StackOperation{Method: MethodExecuteMany, Statement: stmt, Many: many})
}

// AppendScript appends an execute_script operation running script
// verbatim.
func (s StatementStack) AppendScript(script string) StatementStack {
	return s.With(StackOperation{Method: MethodExecuteScript, Script: script})
}

// AppendArrow appends an execute_arrow operation collecting stmt's result
// as a columnar table.
func (s StatementStack) AppendArrow(stmt sqlspec.Statement) StatementStack {
	return s.With(StackOperation{Method: MethodExecuteArrow, Statement: stmt})
}

// Operations returns a copy of the stack's ordered operations.
func (s StatementStack) Operations() []StackOperation {
	out := make([]StackOperation, len(s.ops))
	copy(out, s.ops)

	return out
}

// Len reports the number of operations in the stack.
func (s StatementStack) Len() int { return len(s.ops) }

// Fingerprint returns a stable key derived from every member statement's
// own Fingerprint, in order — used for tracing/observability correlation,
// not for caching (each member is still cached individually).
func (s StatementStack) Fingerprint() string {
	h := sha256.New()

	for _, op := range s.ops {
		fmt.Fprintf(h, "%d:", op.Method)

		if op.Method == MethodExecuteScript {
			h.Write([]byte(op.Script))
		} else {
			h.Write([]byte(op.Statement.Fingerprint()))
		}

		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}
