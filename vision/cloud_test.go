package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cultivai/cropvision/croplabel"
)

func newTestCloud(t *testing.T, h http.HandlerFunc) *CloudClassifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewCloudClassifier(CloudOptions{Endpoint: srv.URL + "/v1/images:annotate", APIKey: "test-key"})
	require.NoError(t, err)
	return c
}

func TestCloudClassifier_Classify(t *testing.T) {
	image := []byte("fake-jpeg")
	c := newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body annotateBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Requests, 1)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), body.Requests[0].Image.Content)
		assert.Equal(t, []annotateFeature{{Type: "LABEL_DETECTION", MaxResults: 5}}, body.Requests[0].Features)

		_, _ = w.Write([]byte(`{"responses":[{"labelAnnotations":[
			{"description":"Plant","score":0.97},
			{"description":"Corn","score":0.91},
			{"description":"Wheat","score":0.6}]}]}`))
	})

	got, err := c.Classify(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, []croplabel.Candidate{
		{Description: "Plant", Score: 0.97},
		{Description: "Corn", Score: 0.91},
		{Description: "Wheat", Score: 0.6},
	}, got)
}

func TestCloudClassifier_NoLabels(t *testing.T) {
	c := newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{}]}`))
	})
	got, err := c.Classify(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCloudClassifier_PerImageError(t *testing.T) {
	c := newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{"error":{"code":3,"message":"Bad image data."}}]}`))
	})
	_, err := c.Classify(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad image data.")
}

func TestCloudClassifier_HTTPErrors(t *testing.T) {
	c := newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.Classify(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrRateLimited)

	c = newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "key invalid", http.StatusForbidden)
	})
	_, err = c.Classify(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	c = newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err = c.Classify(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrResponseInvalid)
}

func TestCloudClassifier_EmptyImage(t *testing.T) {
	c := newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.Classify(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestCloudClassifier_CanceledContext(t *testing.T) {
	c := newTestCloud(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Classify(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewCloudClassifier_KeyFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_VISION_API_KEY", "")
	_, err := NewCloudClassifier(CloudOptions{})
	assert.Error(t, err)

	t.Setenv("GOOGLE_VISION_API_KEY", "env-key")
	c, err := NewCloudClassifier(CloudOptions{})
	require.NoError(t, err)
	assert.Equal(t, "env-key", c.apiKey)
	assert.Equal(t, "cloud-vision:5", c.ModelID())
}
