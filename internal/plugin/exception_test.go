package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewException_FormatsMessage(t *testing.T) {
	err := NewException("host %s unreachable after %d retries", "db1", 3)
	assert.Equal(t, "host db1 unreachable after 3 retries", err.Error())
}
