package lectern_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/lectern"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := lectern.Errorf(lectern.ENOTFOUND, "book %q not found", "test")

	assert.Equal(t, lectern.ENOTFOUND, lectern.ErrorCode(err))
	assert.Equal(t, "book \"test\" not found", lectern.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, lectern.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, lectern.ErrorMessage(nil))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("read chapter: %w", lectern.Errorf(lectern.EPARSE, "no content block"))

	assert.Equal(t, lectern.EPARSE, lectern.ErrorCode(err))
	assert.Equal(t, "no content block", lectern.ErrorMessage(err))
}

func TestErrorCode_NetworkError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("fetch book: %w", &lectern.NetworkError{
		URL:  "https://example.com/book",
		Kind: lectern.KindTimeout,
		Err:  errors.New("deadline exceeded"),
	})

	assert.Equal(t, lectern.ENETWORK, lectern.ErrorCode(err))
	assert.Contains(t, lectern.ErrorMessage(err), "timeout")
}

func TestErrorCode_ForeignError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, lectern.EINTERNAL, lectern.ErrorCode(err))
	assert.Equal(t, "Internal error.", lectern.ErrorMessage(err))
}
