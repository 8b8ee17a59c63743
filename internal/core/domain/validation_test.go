package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	long := strings.Repeat("x", MaxTextLength+1)

	tests := []struct {
		name     string
		req      any
		expected map[string][]string
	}{
		{
			name: "valid create",
			req:  CreateItemRequest{Name: "Widget", Description: "A widget", Price: 10},
		},
		{
			name: "bounds are inclusive",
			req:  UpdateItemRequest{Name: strings.Repeat("n", MaxTextLength), Description: "d", Price: MaxPrice},
		},
		{
			name: "multibyte name within limit",
			req:  UpdateItemRequest{Name: strings.Repeat("é", MaxTextLength), Description: "d", Price: MinPrice},
		},
		{
			name: "missing fields",
			req:  CreateItemRequest{},
			expected: map[string][]string{
				"name":        {"The Name field is required."},
				"description": {"The Description field is required."},
				"price":       {"Price should be between 1 and 9999999999"},
			},
		},
		{
			name: "too long",
			req:  UpdateItemRequest{Name: long, Description: long, Price: 5},
			expected: map[string][]string{
				"name":        {"The field Name must be a string with a maximum length of '250'."},
				"description": {"The field Description must be a string with a maximum length of '250'."},
			},
		},
		{
			name: "price above max",
			req:  UpdateItemRequest{Name: "Widget", Description: "A widget", Price: 99999999999},
			expected: map[string][]string{
				"price": {"Price should be between 1 and 9999999999"},
			},
		},
		{
			name: "price with cents",
			req:  CreateItemRequest{Name: "Widget", Description: "A widget", Price: 19.99},
		},
		{
			name: "price finer than cents",
			req:  CreateItemRequest{Name: "Widget", Description: "A widget", Price: 10.005},
			expected: map[string][]string{
				"price": {"Price must have at most 2 decimal places"},
			},
		},
		{
			name: "price below min",
			req:  UpdateItemRequest{Name: "Widget", Description: "A widget", Price: 0.5},
			expected: map[string][]string{
				"price": {"Price should be between 1 and 9999999999"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.expected == nil {
				require.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
			assert.Equal(t, tt.expected, verr.Fields())
		})
	}
}

func TestValidateTagsMatchLimits(t *testing.T) {
	for _, typ := range []reflect.Type{
		reflect.TypeOf(CreateItemRequest{}),
		reflect.TypeOf(UpdateItemRequest{}),
	} {
		for _, field := range []string{"Name", "Description"} {
			f, ok := typ.FieldByName(field)
			require.True(t, ok)
			assert.Contains(t, f.Tag.Get("validate"), fmt.Sprintf("max=%d", MaxTextLength), "%s.%s", typ.Name(), field)
		}

		f, ok := typ.FieldByName("Price")
		require.True(t, ok)
		tag := f.Tag.Get("validate")
		assert.Contains(t, tag, fmt.Sprintf("gte=%d", MinPrice), typ.Name())
		assert.Contains(t, tag, fmt.Sprintf("lte=%d", MaxPrice), typ.Name())
	}
}

func TestNormalizePrice(t *testing.T) {
	assert.Equal(t, 10.0, NormalizePrice(10.004))
	assert.Equal(t, 2.0, NormalizePrice(1.999))
	assert.Equal(t, 19.99, NormalizePrice(19.99))
	assert.Equal(t, float64(MaxPrice), NormalizePrice(MaxPrice))
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("price", "Price should be between 1 and 9999999999")
	assert.Equal(t, "validation failed: price: Price should be between 1 and 9999999999", err.Error())
}
