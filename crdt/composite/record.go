package composite

import (
	"fmt"
	"sort"

	"github.com/moirai-crdt/tcsb/clock"
)

// Record is a container log of named sub-logs, fixed at construction
// (e.g. a user profile record with a "name" LWW field and a "tags"
// AW-Set field). It dispatches every FieldOp it is handed to the matching
// child by name; Stabilize and Eval fan out to every child.
type Record struct {
	fields map[string]SubLog
}

// NewRecord returns a Record over the given named sub-logs. The field set
// is fixed for the lifetime of the Record.
func NewRecord(fields map[string]SubLog) *Record {
	copied := make(map[string]SubLog, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &Record{fields: copied}
}

// Effect routes op to the sub-log named by op.Field. An op naming a field
// the Record was not constructed with is an invariant violation: the
// caller addressed a field that does not exist.
func (r *Record) Effect(op any, tag clock.Tag, version clock.Version) {
	fo, ok := op.(FieldOp)
	if !ok {
		panic(fmt.Sprintf("composite: Record.Effect given non-FieldOp %T", op))
	}
	sub, ok := r.fields[fo.Field]
	if !ok {
		panic(fmt.Sprintf("composite: Record has no field %q", fo.Field))
	}
	sub.Effect(fo.Inner, tag, version)
}

// Stabilize fans the new stability frontier out to every field.
func (r *Record) Stabilize(frontier clock.Version) {
	for _, sub := range r.fields {
		sub.Stabilize(frontier)
	}
}

// Eval evaluates every field and returns the results keyed by field name.
func (r *Record) Eval() any {
	out := make(map[string]any, len(r.fields))
	for name, sub := range r.fields {
		out[name] = sub.Eval()
	}
	return out
}

// FieldNames returns the Record's field names in sorted order, useful for
// deterministic iteration in tests and demos.
func (r *Record) FieldNames() []string {
	out := make([]string, 0, len(r.fields))
	for name := range r.fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
