package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestBcryptHasher_HashVerify 测试哈希与校验
func TestBcryptHasher_HashVerify(t *testing.T) {
	h := NewBcryptHasher(WithCost(bcrypt.MinCost))

	hashed, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hashed)

	assert.NoError(t, h.Verify("secret123", hashed))
	assert.ErrorIs(t, h.Verify("wrong", hashed), ErrPasswordMismatch)
}

// TestBcryptHasher_InvalidHash 测试非法哈希
func TestBcryptHasher_InvalidHash(t *testing.T) {
	err := NewBcryptHasher().Verify("x", "not-a-hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

// TestWithCost 测试工作因子边界
func TestWithCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(WithCost(1)).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(WithCost(99)).Cost())
	assert.Equal(t, 12, NewBcryptHasher(WithCost(12)).Cost())
}

// TestBcryptHasher_NeedsRehash 测试是否需要重新哈希
func TestBcryptHasher_NeedsRehash(t *testing.T) {
	low := NewBcryptHasher(WithCost(bcrypt.MinCost))
	hashed, err := low.Hash("p")
	require.NoError(t, err)

	assert.False(t, low.NeedsRehash(hashed))
	assert.True(t, NewBcryptHasher(WithCost(bcrypt.MinCost+1)).NeedsRehash(hashed))
	assert.True(t, low.NeedsRehash("garbage"))
}
