package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation: reason is required", Validation("reason is required").Error())
	assert.Equal(t, "validation: file-1: bad page range", ValidationField("file-1", "bad page range").Error())
	assert.Equal(t, "invalid state: request already completed", InvalidState("request already completed").Error())
	assert.Equal(t, "authorization: instructor role required", Authorization("instructor role required").Error())
	assert.Equal(t, "aggregate: unknown file ids: [a, b]", Aggregate("unknown file ids", []string{"a", "b"}).Error())
}

func TestPredicatesMatchWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("submit request: %w", Validation("empty reason"))
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsInvalidState(wrapped))
	assert.False(t, IsAuthorization(wrapped))

	assert.True(t, IsInvalidState(fmt.Errorf("approve: %w", InvalidState("not pending"))))
	assert.True(t, IsAuthorization(fmt.Errorf("approve: %w", Authorization("nope"))))
	assert.False(t, IsValidation(errors.New("plain")))
}

func TestAggregateCarriesIDs(t *testing.T) {
	err := Aggregate("unknown file ids", []string{"f1", "f3"})

	var agg *AggregateError
	assert.True(t, errors.As(fmt.Errorf("bulk: %w", err), &agg))
	assert.Equal(t, []string{"f1", "f3"}, agg.InvalidIDs)
}
