package validation

import (
	"errors"
	"testing"

	"scholarhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin staff applicant"`
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.NoError(t, ValidateStruct(&loginForm{Email: "ada@example.com", Password: "correct-horse"}))
}

func TestValidateStruct_ReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(loginForm{Email: "nope", Password: "short", Role: "root"})
	require.Error(t, err)

	var errs models.ValidationErrors
	require.True(t, errors.As(err, &errs))
	fields := errs.Fields()
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8", fields["password"])
	assert.Equal(t, "must be one of: admin, staff, applicant", fields["role"])
}

func TestValidateStruct_RejectsNonStruct(t *testing.T) {
	assert.Error(t, ValidateStruct("string"))
	assert.NoError(t, ValidateStruct(nil))
}

type sectionForm struct {
	Name string `json:"name" validate:"section"`
}

func TestValidateStruct_SectionTag(t *testing.T) {
	assert.NoError(t, ValidateStruct(sectionForm{Name: models.SectionAcademicInfo}))
	assert.Error(t, ValidateStruct(sectionForm{Name: "hobbies"}))
}
