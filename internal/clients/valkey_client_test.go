package clients

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKey(t *testing.T) {
	a := classifyKey("I love this product")
	assert.True(t, strings.HasPrefix(a, VALKEY_CLASSIFY_PREFIX))
	assert.Len(t, a, len(VALKEY_CLASSIFY_PREFIX)+64)
	assert.Equal(t, a, classifyKey("I love this product"))
	assert.NotEqual(t, a, classifyKey("I love this product!"))
}
