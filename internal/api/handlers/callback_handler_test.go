package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/socialmatic/socialmatic/configs"
	"github.com/socialmatic/socialmatic/internal/identity"
	"github.com/socialmatic/socialmatic/internal/models"
	"github.com/socialmatic/socialmatic/pkg/utils"
)

const testSigningSecret = "test-signing-secret"

// callRecorder captures the order of collaborator calls so tests can
// assert that the signature gate runs first.
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *callRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeResolver struct {
	rec  *callRecorder
	cred *models.OAuthCredential
	err  error
}

func (f *fakeResolver) Resolve(ctx context.Context, userID string, platform models.Platform) (*models.OAuthCredential, error) {
	f.rec.add("resolve")
	return f.cred, f.err
}

type fakePublisher struct {
	rec *callRecorder
	id  string
	err error
}

func (f *fakePublisher) Publish(ctx context.Context, cred *models.OAuthCredential, content string) (string, error) {
	f.rec.add("publish")
	return f.id, f.err
}

type callbackFixture struct {
	app       *fiber.App
	rec       *callRecorder
	resolver  *fakeResolver
	publisher *fakePublisher
}

func newCallbackFixture() *callbackFixture {
	rec := &callRecorder{}
	resolver := &fakeResolver{
		rec:  rec,
		cred: &models.OAuthCredential{Provider: "oauth_twitter", Token: "tok", TokenSecret: "sec"},
	}
	publisher := &fakePublisher{rec: rec, id: "tweet-123"}

	cfg := config.Config{SigningSecret: testSigningSecret}
	handler := NewCallbackHandler(cfg, models.PlatformTwitter, resolver, publisher)

	app := fiber.New()
	app.Post("/callbacks/twitter", handler.HandleDelivery)

	return &callbackFixture{
		app:       app,
		rec:       rec,
		resolver:  resolver,
		publisher: publisher,
	}
}

func deliveryRequest(t *testing.T, body []byte, sign bool) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/callbacks/twitter", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sign {
		req.Header.Set(utils.SignatureHeader, utils.Sign(body, []byte(testSigningSecret)))
	}
	return req
}

func TestHandleDelivery_Success(t *testing.T) {
	f := newCallbackFixture()
	body := []byte(`{"user_id":"user_1","content":"hello"}`)

	resp, err := f.app.Test(deliveryRequest(t, body, true))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var result map[string]string
	payload, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(payload, &result))
	assert.Equal(t, "tweet-123", result["platform_post_id"])

	assert.Equal(t, []string{"resolve", "publish"}, f.rec.all())
}

func TestHandleDelivery_MissingSignature(t *testing.T) {
	f := newCallbackFixture()
	body := []byte(`{"user_id":"user_1","content":"hello"}`)

	resp, err := f.app.Test(deliveryRequest(t, body, false))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, f.rec.all(), "nothing should run before the signature gate")
}

func TestHandleDelivery_InvalidSignature(t *testing.T) {
	f := newCallbackFixture()
	body := []byte(`{"user_id":"user_1","content":"hello"}`)

	req := deliveryRequest(t, body, false)
	req.Header.Set(utils.SignatureHeader, utils.Sign([]byte("other body"), []byte(testSigningSecret)))

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, f.rec.all())
}

func TestHandleDelivery_MissingUserID(t *testing.T) {
	f := newCallbackFixture()
	body := []byte(`{"content":"hello"}`)

	resp, err := f.app.Test(deliveryRequest(t, body, true))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, f.rec.all())
}

func TestHandleDelivery_MalformedBody(t *testing.T) {
	f := newCallbackFixture()
	body := []byte(`not json`)

	resp, err := f.app.Test(deliveryRequest(t, body, true))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleDelivery_NotLinked(t *testing.T) {
	f := newCallbackFixture()
	f.resolver.cred = nil
	f.resolver.err = identity.ErrNotLinked
	body := []byte(`{"user_id":"user_1","content":"hello"}`)

	resp, err := f.app.Test(deliveryRequest(t, body, true))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, []string{"resolve"}, f.rec.all(), "publisher must not be invoked")
}

func TestHandleDelivery_ResolverFailure(t *testing.T) {
	f := newCallbackFixture()
	f.resolver.cred = nil
	f.resolver.err = errors.New("identity provider unreachable")
	body := []byte(`{"user_id":"user_1","content":"hello"}`)

	resp, err := f.app.Test(deliveryRequest(t, body, true))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, []string{"resolve"}, f.rec.all())
}

func TestHandleDelivery_PublishFailure(t *testing.T) {
	f := newCallbackFixture()
	f.publisher.id = ""
	f.publisher.err = errors.New("platform api down")
	body := []byte(`{"user_id":"user_1","content":"hello"}`)

	resp, err := f.app.Test(deliveryRequest(t, body, true))
	require.NoError(t, err)
	defer resp.Body.Close()

	// 5xx so the queue's retry policy re-delivers later
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
