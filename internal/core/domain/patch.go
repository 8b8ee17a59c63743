package domain

import (
	"fmt"
	"strings"
)

type PatchOp string

const (
	PatchAdd     PatchOp = "add"
	PatchRemove  PatchOp = "remove"
	PatchReplace PatchOp = "replace"
	PatchTest    PatchOp = "test"
)

// PatchOperation is one JSON Patch (RFC 6902) instruction. Value holds a
// decoded JSON value: string, float64, bool, nil, map or slice.
type PatchOperation struct {
	Op    PatchOp `json:"op"`
	Path  string  `json:"path"`
	Value any     `json:"value,omitempty"`
}

type updateField int

const (
	fieldName updateField = iota + 1
	fieldDescription
	fieldPrice
)

func parseFieldPath(path string) (updateField, bool) {
	name, ok := strings.CutPrefix(path, "/")
	if !ok {
		return 0, false
	}
	switch strings.ToLower(name) {
	case "name":
		return fieldName, true
	case "description":
		return fieldDescription, true
	case "price":
		return fieldPrice, true
	}
	return 0, false
}

// ApplyPatch runs ops against a copy of r and returns the result. The first
// operation that cannot be applied aborts the patch with a *ValidationError;
// r itself is never modified.
func (r UpdateItemRequest) ApplyPatch(ops []PatchOperation) (UpdateItemRequest, error) {
	out := r
	for i, op := range ops {
		if err := out.applyOne(op); err != nil {
			key := op.Path
			if key == "" {
				key = fmt.Sprintf("operations[%d]", i)
			}
			return r, NewValidationError(key, err.Error())
		}
	}
	return out, nil
}

func (r *UpdateItemRequest) applyOne(op PatchOperation) error {
	field, ok := parseFieldPath(op.Path)
	if !ok {
		return fmt.Errorf("the target location specified by path '%s' was not found", op.Path)
	}

	switch op.Op {
	case PatchAdd, PatchReplace:
		return r.set(field, op.Value)
	case PatchRemove:
		r.reset(field)
		return nil
	case PatchTest:
		if !r.equals(field, op.Value) {
			return fmt.Errorf("the current value at path '%s' is not equal to the test value", op.Path)
		}
		return nil
	case "":
		return fmt.Errorf("operation is missing 'op'")
	default:
		return fmt.Errorf("unsupported operation '%s'", op.Op)
	}
}

func (r *UpdateItemRequest) set(field updateField, value any) error {
	switch field {
	case fieldName, fieldDescription:
		var s string
		switch v := value.(type) {
		case string:
			s = v
		case nil:
		default:
			return fmt.Errorf("the value '%v' is invalid for target location", value)
		}
		if field == fieldName {
			r.Name = s
		} else {
			r.Description = s
		}
	case fieldPrice:
		switch v := value.(type) {
		case float64:
			r.Price = v
		case nil:
			r.Price = 0
		default:
			return fmt.Errorf("the value '%v' is invalid for target location", value)
		}
	}
	return nil
}

func (r *UpdateItemRequest) reset(field updateField) {
	switch field {
	case fieldName:
		r.Name = ""
	case fieldDescription:
		r.Description = ""
	case fieldPrice:
		r.Price = 0
	}
}

func (r UpdateItemRequest) equals(field updateField, value any) bool {
	switch field {
	case fieldName:
		s, ok := value.(string)
		return ok && s == r.Name
	case fieldDescription:
		s, ok := value.(string)
		return ok && s == r.Description
	case fieldPrice:
		f, ok := value.(float64)
		return ok && f == r.Price
	}
	return false
}
