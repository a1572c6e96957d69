package main

import (
	"bytes"
	"errors"
	"testing"

	"scholarhub/internal/models"
	"scholarhub/internal/sequence"
	"scholarhub/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&out)
	return cmd.Execute()
}

func TestCommandTree(t *testing.T) {
	root := newRootCommand(&bytes.Buffer{})
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"create-admin"},
		{"sequence", "next"},
		{"sequence", "current"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

// These fail during argument checks, before configuration is loaded or a
// database connection is attempted.
func TestArgumentValidation(t *testing.T) {
	t.Setenv("SCHOLARHUB_ADMIN_PASSWORD", "")

	err := execute(t, "sequence", "next", "invoice_id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sequence.ErrUnknownCounter))

	err = execute(t, "sequence", "current")
	assert.Error(t, err)

	err = execute(t, "create-admin", "--password", "s3cret-pass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email")

	err = execute(t, "create-admin", "--email", "root@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCHOLARHUB_ADMIN_PASSWORD")

	err = execute(t, "migrate", "down", "--steps", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps")
}

func TestDescribe(t *testing.T) {
	err := services.NewFieldValidationError(models.ValidationErrors{
		{Field: "email", Message: "must be a valid email address", Code: "email"},
		{Field: "password", Message: "must be at least 8 characters", Code: "min"},
	})
	assert.Equal(t, "Validation failed: email must be a valid email address; password must be at least 8 characters", describe(err).Error())

	plain := services.NewConflictError("email is already registered", "EMAIL_TAKEN")
	assert.Same(t, plain, describe(plain))
}
