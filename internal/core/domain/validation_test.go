package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	assert.NoError(t, v.Err())

	v.Add("title", "title is required")
	v.Add("title", "second message is ignored")
	v.Add("description", "too short")

	err := v.Err()
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, []string{"description", "title"}, v.FieldNames())
	assert.Equal(t, "title is required", v.Fields["title"])
	assert.Equal(t, "validation failed: description: too short; title: title is required", err.Error())

	var target *ValidationError
	assert.True(t, errors.As(err, &target))
}
