package errors

import (
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("load schema: %w", ErrNotFound)
	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.True(t, stdErrors.Is(appErr, sql.ErrConnDone))
	assert.Nil(t, FromError(nil))
}

func TestWithDetailsDoesNotMutateBase(t *testing.T) {
	problems := []string{"Schema must have at least one component"}
	appErr := WithDetails(ErrInvalidSchema, "schema cannot be published", problems)

	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "schema cannot be published", appErr.Message)
	assert.Equal(t, problems, appErr.Details)
	assert.Empty(t, ErrInvalidSchema.Details)
	assert.Equal(t, "assessment schema is invalid", ErrInvalidSchema.Message)

	problems[0] = "changed"
	assert.Equal(t, "Schema must have at least one component", appErr.Details[0])
}
