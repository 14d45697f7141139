package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatusCache(t *testing.T) {
	cases := []struct {
		in     string
		owner  int64
		status string
		ok     bool
	}{
		{"5:confirmed", 5, "confirmed", true},
		{"120:pending", 120, "pending", true},
		{"confirmed", 0, "", false}, // value without an owner prefix
		{"x:confirmed", 0, "", false},
		{"5:", 0, "", false},
		{"", 0, "", false},
	}
	for _, c := range cases {
		owner, status, ok := splitStatusCache(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.owner, owner, c.in)
		assert.Equal(t, c.status, status, c.in)
	}
}
