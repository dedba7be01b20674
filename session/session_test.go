package session

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) Keys {
	t.Helper()
	keys, err := DeriveKeys("0123456789abcdef-test-secret")
	require.NoError(t, err)
	return keys
}

func TestDeriveKeys(t *testing.T) {
	keys := testKeys(t)
	again := testKeys(t)

	assert.Len(t, keys.Signing, 32)
	assert.Len(t, keys.Encryption, 32)
	assert.NotEqual(t, keys.Signing, keys.Encryption)
	assert.Equal(t, keys, again)

	_, err := DeriveKeys("")
	assert.Error(t, err)
}

func TestCookieRoundTrip(t *testing.T) {
	codec := NewCookieCodec(testKeys(t).Signing, true)
	sess := New("uid", "a@example.com", false, time.Hour)

	cookie, err := codec.Cookie(sess)
	require.NoError(t, err)
	assert.Equal(t, CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)

	sid, err := codec.Decode(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, sid)
}

func TestCookieRejectsTampering(t *testing.T) {
	codec := NewCookieCodec(testKeys(t).Signing, false)
	value, err := codec.Encode(New("uid", "", false, time.Hour))
	require.NoError(t, err)

	parts := strings.Split(value, ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	for name, v := range map[string]string{
		"garbage":       "not-a-token",
		"bad signature": forged,
		"other key":     mustEncode(t, NewCookieCodec([]byte("another-signing-key-0123456789ab"), false)),
		"expired":       mustEncode(t, codec, withExpiry(-time.Minute)),
		"none alg":      noneToken(t),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(v)
			assert.ErrorIs(t, err, ErrInvalidCookie)
		})
	}
}

func withExpiry(d time.Duration) func(*Session) {
	return func(s *Session) { s.ExpiresAt = time.Now().Add(d) }
}

func mustEncode(t *testing.T, codec *CookieCodec, opts ...func(*Session)) string {
	t.Helper()
	sess := New("uid", "", false, time.Hour)
	for _, opt := range opts {
		opt(sess)
	}
	v, err := codec.Encode(sess)
	require.NoError(t, err)
	return v
}

func noneToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.StandardClaims{
		Id:        "sid",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	v, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return v
}

func TestExpiredCookieClearsSession(t *testing.T) {
	cookie := NewCookieCodec(testKeys(t).Signing, false).Expired()
	assert.Equal(t, CookieName, cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestSealerRoundTrip(t *testing.T) {
	s, err := newSealer(testKeys(t).Encryption)
	require.NoError(t, err)
	sess := New("uid", "a@example.com", true, time.Hour)

	sealed, err := s.seal(sess)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "a@example.com")

	opened, err := s.open(sealed)
	require.NoError(t, err)
	assert.Equal(t, sess.UID, opened.UID)
	assert.True(t, opened.IsAdmin)
	assert.Empty(t, opened.ID, "the id is the storage key, not part of the record")

	other, err := newSealer(make([]byte, 32))
	require.NoError(t, err)
	_, err = other.open(sealed)
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	live := New("uid", "", false, time.Hour)
	require.NoError(t, store.Save(ctx, live))
	got, err := store.Get(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, "uid", got.UID)

	stale := New("uid", "", false, -time.Second)
	require.NoError(t, store.Save(ctx, stale))
	_, err = store.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, live.ID))
	_, err = store.Get(ctx, live.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestRedisStore runs against a live server named by REDIS_TEST_ADDR.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	store, err := NewRedisStore(client, testKeys(t).Encryption)
	require.NoError(t, err)

	sess := New("uid", "a@example.com", true, time.Minute)
	require.NoError(t, store.Save(ctx, sess))
	defer store.Delete(ctx, sess.ID)

	ttl, err := client.TTL(ctx, keyPrefix+sess.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.True(t, got.IsAdmin)

	require.NoError(t, client.Set(ctx, keyPrefix+"corrupt", "bogus", time.Minute).Err())
	_, err = store.Get(ctx, "corrupt")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, store.Save(ctx, New("uid", "", false, -time.Second)))
}
