package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := InsufficientStock("Widget", "Main", 2, 5)
	assert.Equal(t, CodeInsufficientStock, CodeOf(err))

	wrapped := fmt.Errorf("apply stock: %w", err)
	assert.Equal(t, CodeInsufficientStock, CodeOf(wrapped))

	assert.Equal(t, Code(""), CodeOf(errors.New("boom")))
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("create invoice: %w", NotFound("faktur", 42))
	assert.True(t, errors.Is(err, &Error{Code: CodeNotFound}))
	assert.False(t, errors.Is(err, &Error{Code: CodeValidation}))
}

func TestInsufficientStockFields(t *testing.T) {
	err := InsufficientStock("Widget", "Main", 2, 5)
	assert.Equal(t, "Widget", err.Fields["item"])
	assert.Equal(t, "Main", err.Fields["warehouse"])
	assert.Equal(t, 2.0, err.Fields["available"])
	assert.Equal(t, 5.0, err.Fields["requested"])
	assert.Contains(t, err.Error(), "Widget")
	assert.Contains(t, err.Error(), "available 2.00")
}
