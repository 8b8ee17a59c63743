package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widget() UpdateItemRequest {
	return UpdateItemRequest{Name: "Widget", Description: "A widget", Price: 10}
}

func TestApplyPatch(t *testing.T) {
	tests := []struct {
		name     string
		ops      []PatchOperation
		expected UpdateItemRequest
	}{
		{
			name:     "empty patch keeps every field",
			ops:      nil,
			expected: widget(),
		},
		{
			name:     "replace price",
			ops:      []PatchOperation{{Op: PatchReplace, Path: "/price", Value: float64(20)}},
			expected: UpdateItemRequest{Name: "Widget", Description: "A widget", Price: 20},
		},
		{
			name:     "add behaves like replace on a field",
			ops:      []PatchOperation{{Op: PatchAdd, Path: "/name", Value: "Gadget"}},
			expected: UpdateItemRequest{Name: "Gadget", Description: "A widget", Price: 10},
		},
		{
			name:     "path is case insensitive",
			ops:      []PatchOperation{{Op: PatchReplace, Path: "/Description", Value: "Shiny"}},
			expected: UpdateItemRequest{Name: "Widget", Description: "Shiny", Price: 10},
		},
		{
			name:     "remove resets to zero value",
			ops:      []PatchOperation{{Op: PatchRemove, Path: "/price"}},
			expected: UpdateItemRequest{Name: "Widget", Description: "A widget"},
		},
		{
			name: "test then replace",
			ops: []PatchOperation{
				{Op: PatchTest, Path: "/name", Value: "Widget"},
				{Op: PatchReplace, Path: "/name", Value: "Widget2"},
			},
			expected: UpdateItemRequest{Name: "Widget2", Description: "A widget", Price: 10},
		},
		{
			name:     "null value clears a text field",
			ops:      []PatchOperation{{Op: PatchReplace, Path: "/name", Value: nil}},
			expected: UpdateItemRequest{Description: "A widget", Price: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := widget().ApplyPatch(tt.ops)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestApplyPatch_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		op    PatchOperation
		field string
	}{
		{name: "unknown field", op: PatchOperation{Op: PatchReplace, Path: "/stock", Value: float64(1)}, field: "/stock"},
		{name: "id is not patchable", op: PatchOperation{Op: PatchReplace, Path: "/id", Value: float64(7)}, field: "/id"},
		{name: "missing slash", op: PatchOperation{Op: PatchReplace, Path: "name", Value: "x"}, field: "name"},
		{name: "unsupported op", op: PatchOperation{Op: "move", Path: "/name"}, field: "/name"},
		{name: "missing op", op: PatchOperation{Path: "/name", Value: "x"}, field: "/name"},
		{name: "wrong type for price", op: PatchOperation{Op: PatchReplace, Path: "/price", Value: "cheap"}, field: "/price"},
		{name: "wrong type for name", op: PatchOperation{Op: PatchReplace, Path: "/name", Value: float64(3)}, field: "/name"},
		{name: "failed test", op: PatchOperation{Op: PatchTest, Path: "/price", Value: float64(11)}, field: "/price"},
		{name: "missing path", op: PatchOperation{Op: PatchRemove}, field: "operations[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := widget()
			got, err := original.ApplyPatch([]PatchOperation{tt.op})
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Violations, 1)
			assert.Equal(t, tt.field, verr.Violations[0].Field)
			assert.Equal(t, widget(), got)
			assert.Equal(t, widget(), original)
		})
	}
}

func TestApplyPatch_FailureDiscardsEarlierOperations(t *testing.T) {
	ops := []PatchOperation{
		{Op: PatchReplace, Path: "/name", Value: "Changed"},
		{Op: PatchReplace, Path: "/unknown", Value: "x"},
	}

	got, err := widget().ApplyPatch(ops)
	require.Error(t, err)
	assert.Equal(t, "Widget", got.Name)
}
