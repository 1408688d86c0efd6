package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskstore/pkg/httpcontext"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func run(mw Middleware, authorization string) (*fasthttp.RequestCtx, bool) {
	var ctx fasthttp.RequestCtx
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	called := false
	mw(func(*fasthttp.RequestCtx) { called = true })(&ctx)
	return &ctx, called
}

func TestJWTAuthDisabledWithoutSecret(t *testing.T) {
	_, called := run(JWTAuth("", "", nil), "")
	assert.True(t, called)
}

func TestJWTAuthRejectsMissingAndForgedTokens(t *testing.T) {
	mw := JWTAuth("secret", "taskstore", nil)

	ctx, called := run(mw, "")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	forged := signed(t, "other", jwt.MapClaims{"sub": "u1", "iss": "taskstore"})
	ctx, called = run(mw, "Bearer "+forged)
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	wrongIssuer := signed(t, "secret", jwt.MapClaims{"sub": "u1", "iss": "elsewhere"})
	_, called = run(mw, "Bearer "+wrongIssuer)
	assert.False(t, called)
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	mw := JWTAuth("secret", "taskstore", nil)
	token := signed(t, "secret", jwt.MapClaims{
		"sub": "u1",
		"iss": "taskstore",
		"exp": time.Now().Add(time.Minute).Unix(),
	})

	ctx, called := run(mw, "Bearer "+token)
	assert.True(t, called)
	assert.Equal(t, "u1", string(ctx.Request.Header.Peek(httpcontext.SubjectHeader)))
}
