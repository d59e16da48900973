package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, Fatal, Classify(context.Canceled))
	assert.Equal(t, Retriable, Classify(context.DeadlineExceeded))
	assert.Equal(t, Retriable, Classify(io.EOF))
	assert.Equal(t, Retriable, Classify(io.ErrUnexpectedEOF))
	assert.Equal(t, Retriable, Classify(errors.New("something transient")))
}

func TestClassify_ExplicitMarkersWin(t *testing.T) {
	assert.Equal(t, Fatal, Classify(AsFatal(io.EOF)))
	assert.Equal(t, Retriable, Classify(AsRetriable(context.Canceled)))
}

func TestClassify_SurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("sink write: %w", AsFatal(errors.New("bad credentials")))
	assert.Equal(t, Fatal, Classify(wrapped))
	assert.False(t, IsRetriable(wrapped))
}

func TestClassifiedError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	assert.ErrorIs(t, AsFatal(inner), inner)
	assert.Equal(t, "inner", AsFatal(inner).Error())
}
