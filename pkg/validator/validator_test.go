package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productPayload struct {
	ID     int64   `json:"id" validate:"gt=0"`
	Name   string  `json:"name" validate:"required,max=10"`
	Status string  `json:"status" validate:"required,oneof=active inactive"`
	Rating float64 `json:"rating" validate:"gte=0,lte=5"`
	Notes  string  `json:"-"`
	Slug   string  `validate:"omitempty,min=3"`
}

func TestValidate_Success(t *testing.T) {
	p := productPayload{ID: 1, Name: "Mug", Status: "active", Rating: 4.5}
	assert.NoError(t, Validate(p))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(productPayload{ID: 1, Status: "active"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["name"])
	assert.NotContains(t, fields, "Name")
}

func TestValidate_FallsBackToStructFieldName(t *testing.T) {
	err := Validate(productPayload{ID: 1, Name: "Mug", Status: "active", Slug: "ab"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Slug"], "at least 3")
}

func TestValidate_Messages(t *testing.T) {
	tests := []struct {
		name    string
		payload productPayload
		field   string
		want    string
	}{
		{"gt", productPayload{ID: 0, Name: "Mug", Status: "active"}, "id", "must be greater than 0"},
		{"max", productPayload{ID: 1, Name: "Enormous coffee mug", Status: "active"}, "name", "must be at most 10 characters"},
		{"oneof", productPayload{ID: 1, Name: "Mug", Status: "deleted"}, "status", "must be one of: active inactive"},
		{"lte", productPayload{ID: 1, Name: "Mug", Status: "active", Rating: 7}, "rating", "must be less than or equal to 5"},
		{"gte", productPayload{ID: 1, Name: "Mug", Status: "active", Rating: -1}, "rating", "must be greater than or equal to 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.payload)
			require.Error(t, err)

			var valErr *ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.want, valErr.Fields()[tt.field])
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(productPayload{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "status")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(productPayload{ID: 1, Status: "active"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'name'")
	assert.Contains(t, err.Error(), "is required")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	var p productPayload
	err := DecodeAndValidate([]byte(`{"id":7,"name":"Mug","status":"active","rating":3.5,"extra":true}`), &p)

	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, 3.5, p.Rating)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	var p productPayload
	err := DecodeAndValidate([]byte("{invalid"), &p)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode payload")
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	var p productPayload
	err := DecodeAndValidate([]byte(`{"id":7,"name":"","status":"active"}`), &p)

	require.Error(t, err)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
