// Package extract materializes records out of a JSON-like document while it
// is still streaming in. It is not a JSON parser: it only understands the
// fixed container/name/description/code layout described by a Schema and
// relies on the producer emitting keys in that order.
//
// A record becomes visible as soon as its name has fully arrived. From then
// on every Extract call that makes progress on the record emits an updated
// snapshot with Fields whose states only move forward:
//
//	Pending ──▶ Partial(s) ──▶ Complete(s)
package extract

// FieldKind is the progress of a single field.
type FieldKind uint8

const (
	// FieldPending means the field has not started arriving.
	FieldPending FieldKind = iota

	// FieldPartial means the field value is still streaming.
	FieldPartial

	// FieldComplete means the field value is final.
	FieldComplete
)

func (k FieldKind) String() string {
	switch k {
	case FieldPartial:
		return "partial"
	case FieldComplete:
		return "complete"
	default:
		return "pending"
	}
}

// FieldState is a field's progress together with its value so far.
// The zero value is Pending.
type FieldState struct {
	kind  FieldKind
	value string
}

// Pending returns a field state with no value yet.
func Pending() FieldState {
	return FieldState{}
}

// Partial returns a field state holding an incomplete value.
func Partial(v string) FieldState {
	return FieldState{kind: FieldPartial, value: v}
}

// Complete returns a field state holding a final value.
func Complete(v string) FieldState {
	return FieldState{kind: FieldComplete, value: v}
}

func (f FieldState) Kind() FieldKind { return f.kind }

func (f FieldState) Value() string { return f.value }

func (f FieldState) IsPending() bool { return f.kind == FieldPending }

func (f FieldState) IsComplete() bool { return f.kind == FieldComplete }

// WithValue returns the same state holding v. A pending state stays pending.
func (f FieldState) WithValue(v string) FieldState {
	if f.kind == FieldPending {
		return f
	}
	return FieldState{kind: f.kind, value: v}
}

// Finalize promotes a pending or partial state to Complete with whatever
// value it holds.
func (f FieldState) Finalize() FieldState {
	return Complete(f.value)
}

// Fields are the three fields of one record.
type Fields struct {
	Name        FieldState
	Description FieldState
	Code        FieldState
}

// Emission is a snapshot of one record handed to the host.
type Emission struct {
	// Index is the zero-based position of the record in the stream. Indices
	// are assigned in order without gaps.
	Index int

	Fields Fields

	// Complete is true on the last emission for Index. No emission for the
	// same index follows.
	Complete bool

	// Truncated marks a record that was finalized before its code value
	// finished arriving.
	Truncated bool
}

// EmitFunc receives emissions in stream order.
type EmitFunc func(Emission)
