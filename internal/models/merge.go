package models

type fieldOp int

const (
	fieldUnchanged fieldOp = iota
	fieldSet
	fieldCleared
)

// Field is a three-way merge directive for an optional snapshot field.
// The zero value leaves the field unchanged; Set replaces it; Clear resets
// it to the type's zero value.
type Field[T any] struct {
	op    fieldOp
	value T
}

// Set returns a directive that replaces the field with v.
func Set[T any](v T) Field[T] {
	return Field[T]{op: fieldSet, value: v}
}

// Clear returns a directive that resets the field to its zero value.
func Clear[T any]() Field[T] {
	return Field[T]{op: fieldCleared}
}

// Apply resolves the directive against the current value.
func (f Field[T]) Apply(current T) T {
	switch f.op {
	case fieldSet:
		return f.value
	case fieldCleared:
		var zero T
		return zero
	default:
		return current
	}
}

// IsUnchanged reports whether the directive leaves the field alone.
func (f Field[T]) IsUnchanged() bool {
	return f.op == fieldUnchanged
}

// StatusUpdate is the result of one status refresh. Required fields always
// overwrite the snapshot; optional fields carry an explicit directive so a
// refresh can distinguish "no upstream anymore" from "did not look".
type StatusUpdate struct {
	Files        []StatusFile
	StagedFiles  []StatusFile
	Ahead        int
	Behind       int
	HasConflicts bool
	Operation    Field[ConflictOperation]
	Upstream     Field[string]
	BaseRef      Field[string]
	BaseAhead    int
	BaseBehind   int
	RemoteBase   bool
}

// Merge applies the update to a snapshot and returns the merged result.
func Merge(current StatusSnapshot, update StatusUpdate) StatusSnapshot {
	return StatusSnapshot{
		Files:        update.Files,
		StagedFiles:  update.StagedFiles,
		Ahead:        update.Ahead,
		Behind:       update.Behind,
		HasConflicts: update.HasConflicts,
		Operation:    update.Operation.Apply(current.Operation),
		Upstream:     update.Upstream.Apply(current.Upstream),
		BaseRef:      update.BaseRef.Apply(current.BaseRef),
		BaseAhead:    update.BaseAhead,
		BaseBehind:   update.BaseBehind,
		RemoteBase:   update.RemoteBase,
	}
}
