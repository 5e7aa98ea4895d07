package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	alice    = User{ID: "u-1", Email: "alice@talentbridge.example", FirstName: "Alice", Role: "candidate"}
)

func newTestStore(kv KV) *Store {
	store := NewStore(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
	store.now = func() time.Time { return fixedNow }
	return store
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   alice.ID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return token
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := t.Context()
	kv := NewMemoryKV()
	store := newTestStore(kv)

	require.NoError(t, store.Init(ctx))
	assert.False(t, store.Current().Authenticated())

	token := signedToken(t, fixedNow.Add(time.Hour))
	require.NoError(t, store.Login(ctx, token, alice))

	current := store.Current()
	assert.True(t, current.Authenticated())
	assert.Equal(t, token, current.Token)
	require.NotNil(t, current.User)
	assert.Equal(t, alice, *current.User)

	restored := newTestStore(kv)
	require.NoError(t, restored.Init(ctx))
	assert.Equal(t, current, restored.Current())

	updated := alice
	updated.LastName = "Smith"
	require.NoError(t, restored.UpdateUser(ctx, updated))
	assert.Equal(t, "Smith", restored.Current().User.LastName)

	again := newTestStore(kv)
	require.NoError(t, again.Init(ctx))
	assert.Equal(t, "Smith", again.Current().User.LastName)

	require.NoError(t, again.Logout(ctx))
	assert.False(t, again.Current().Authenticated())
	assert.Nil(t, again.Current().User)

	_, found, err := kv.Get(ctx, tokenKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Init(t *testing.T) {
	ctx := t.Context()

	t.Run("expired token is dropped", func(t *testing.T) {
		kv := NewMemoryKV()
		require.NoError(t, kv.Set(ctx, tokenKey, signedToken(t, fixedNow.Add(-time.Minute))))
		require.NoError(t, kv.Set(ctx, userKey, `{"id":"u-1"}`))
		store := newTestStore(kv)

		require.NoError(t, store.Init(ctx))

		assert.False(t, store.Current().Authenticated())
		_, found, _ := kv.Get(ctx, userKey)
		assert.False(t, found)
	})

	t.Run("opaque token is kept", func(t *testing.T) {
		kv := NewMemoryKV()
		require.NoError(t, kv.Set(ctx, tokenKey, "opaque-session-token"))
		store := newTestStore(kv)

		require.NoError(t, store.Init(ctx))

		current := store.Current()
		assert.Equal(t, "opaque-session-token", current.Token)
		assert.Nil(t, current.User)
	})

	t.Run("token without exp is kept", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": alice.ID}).
			SignedString([]byte("test-secret"))
		require.NoError(t, err)
		kv := NewMemoryKV()
		require.NoError(t, kv.Set(ctx, tokenKey, token))
		store := newTestStore(kv)

		require.NoError(t, store.Init(ctx))

		assert.True(t, store.Current().Authenticated())
	})

	t.Run("corrupt user signs out", func(t *testing.T) {
		kv := NewMemoryKV()
		require.NoError(t, kv.Set(ctx, tokenKey, signedToken(t, fixedNow.Add(time.Hour))))
		require.NoError(t, kv.Set(ctx, userKey, `{"id":`))
		store := newTestStore(kv)

		require.NoError(t, store.Init(ctx))

		assert.False(t, store.Current().Authenticated())
		_, found, _ := kv.Get(ctx, tokenKey)
		assert.False(t, found)
	})
}

func TestStore_Errors(t *testing.T) {
	ctx := t.Context()
	store := newTestStore(NewMemoryKV())

	require.ErrorIs(t, store.Login(ctx, "", alice), ErrEmptyToken)
	require.ErrorIs(t, store.UpdateUser(ctx, alice), ErrNotAuthenticated)
}

// failingKV fails writes of one key and delegates everything else.
type failingKV struct {
	*MemoryKV
	failKey string
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if key == f.failKey {
		return assert.AnError
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func TestStore_LoginWriteFailure(t *testing.T) {
	ctx := t.Context()

	for _, failKey := range []string{tokenKey, userKey} {
		t.Run("failed write of "+failKey, func(t *testing.T) {
			kv := &failingKV{MemoryKV: NewMemoryKV(), failKey: failKey}
			store := newTestStore(kv)

			err := store.Login(ctx, signedToken(t, fixedNow.Add(time.Hour)), alice)

			require.ErrorIs(t, err, assert.AnError)
			assert.False(t, store.Current().Authenticated())

			_, tokenFound, _ := kv.Get(ctx, tokenKey)
			_, userFound, _ := kv.Get(ctx, userKey)
			assert.False(t, tokenFound)
			assert.False(t, userFound)

			restored := newTestStore(kv)
			require.NoError(t, restored.Init(ctx))
			assert.False(t, restored.Current().Authenticated())
		})
	}

	t.Run("failed token write after an earlier session", func(t *testing.T) {
		kv := &failingKV{MemoryKV: NewMemoryKV()}
		store := newTestStore(kv)
		require.NoError(t, store.Login(ctx, "earlier-token", alice))

		kv.failKey = tokenKey
		err := store.Login(ctx, "later-token", User{ID: "u-2"})

		require.ErrorIs(t, err, assert.AnError)
		restored := newTestStore(kv)
		require.NoError(t, restored.Init(ctx))
		assert.False(t, restored.Current().Authenticated())
		assert.Nil(t, restored.Current().User)
	})
}

func TestStore_CurrentIsACopy(t *testing.T) {
	ctx := t.Context()
	store := newTestStore(NewMemoryKV())
	require.NoError(t, store.Login(ctx, "token", alice))

	current := store.Current()
	current.User.Email = "mallory@example.com"

	assert.Equal(t, alice.Email, store.Current().User.Email)
}

func TestRedisKV(t *testing.T) {
	ctx := t.Context()
	server := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer rdb.Close()

	kv := NewRedisKV(rdb, "tb:session:")

	t.Run("missing key", func(t *testing.T) {
		_, found, err := kv.Get(ctx, tokenKey)

		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("store round trip through redis", func(t *testing.T) {
		store := newTestStore(kv)
		token := signedToken(t, fixedNow.Add(time.Hour))
		require.NoError(t, store.Login(ctx, token, alice))

		stored, err := server.Get("tb:session:token")
		require.NoError(t, err)
		assert.Equal(t, token, stored)
		assert.Zero(t, server.TTL("tb:session:token"))

		restored := newTestStore(kv)
		require.NoError(t, restored.Init(ctx))
		assert.Equal(t, alice.ID, restored.Current().User.ID)

		require.NoError(t, restored.Logout(ctx))
		assert.False(t, server.Exists("tb:session:token"))
		assert.False(t, server.Exists("tb:session:user"))
	})

	t.Run("unreachable redis", func(t *testing.T) {
		broken := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		defer broken.Close()
		store := newTestStore(NewRedisKV(broken, "tb:session:"))

		timeoutCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		err := store.Init(timeoutCtx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to restore session")
	})
}
