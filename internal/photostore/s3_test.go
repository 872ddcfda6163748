package photostore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEndpoint = "https://s3.test"

// newMockS3 returns a store whose HTTP traffic goes to an httpmock transport.
func newMockS3(t *testing.T, prefix string) (*S3Store, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	s, err := NewS3Store(context.Background(), S3Config{
		Bucket:          "photos",
		Region:          "eu-north-1",
		Endpoint:        testEndpoint,
		PathStyle:       true,
		Prefix:          prefix,
		AccessKeyID:     "AKIDTEST",
		SecretAccessKey: "secret",
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: mock}
		o.RetryMaxAttempts = 1
	})
	require.NoError(t, err)
	return s, mock
}

func objectURL(key string) string {
	return testEndpoint + "/photos/" + key
}

const noSuchKey = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

func TestS3StorePutAndOpen(t *testing.T) {
	s, mock := newMockS3(t, "lifelist")
	ctx := context.Background()
	ref := Ref{CollectionID: 1, EntryID: 2, PhotoID: 3, FileName: "robin.jpg"}
	key := ref.ThumbnailKey(SizeSM)

	var gotBody, gotType string
	mock.RegisterResponder(http.MethodPut, "=~^"+objectURL("lifelist/"+key),
		func(req *http.Request) (*http.Response, error) {
			data, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			gotBody = string(data)
			gotType = req.Header.Get("Content-Type")
			return httpmock.NewStringResponse(http.StatusOK, ""), nil
		})
	mock.RegisterResponder(http.MethodGet, "=~^"+objectURL("lifelist/"+key),
		httpmock.NewStringResponder(http.StatusOK, "thumbnail-bytes"))

	require.NoError(t, s.Put(ctx, key, io.MultiReader(strings.NewReader("thumbnail-"), strings.NewReader("bytes"))))
	assert.Equal(t, "thumbnail-bytes", gotBody)
	assert.Equal(t, "image/jpeg", gotType)

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "thumbnail-bytes", string(data))
}

func TestS3StoreMissingObject(t *testing.T) {
	s, mock := newMockS3(t, "")
	ctx := context.Background()

	mock.RegisterResponder(http.MethodGet, "=~^"+objectURL("collection_1/"),
		httpmock.NewStringResponder(http.StatusNotFound, noSuchKey).HeaderSet(http.Header{"Content-Type": {"application/xml"}}))

	_, err := s.Open(ctx, "collection_1/entry_1/original/1_a.jpg")
	require.ErrorIs(t, err, ErrNotExist)

	_, err = s.Open(ctx, "../escape.jpg")
	require.ErrorIs(t, err, ErrInvalidKey)
	assert.Zero(t, mock.GetTotalCallCount(), "invalid keys never reach the bucket")
}

func TestS3StoreListAndRemove(t *testing.T) {
	s, mock := newMockS3(t, "")
	ctx := context.Background()
	ref := Ref{CollectionID: 5, EntryID: 6, PhotoID: 7, FileName: "owl.png"}

	var contents strings.Builder
	for _, key := range ref.Keys() {
		fmt.Fprintf(&contents, "<Contents><Key>%s</Key><Size>4</Size></Contents>", key)
	}
	listing := `<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><Name>photos</Name>` +
		`<IsTruncated>false</IsTruncated>` + contents.String() + `</ListBucketResult>`

	mock.RegisterResponder(http.MethodGet, `=~^https://s3\.test/photos/?(\?|$)`,
		httpmock.NewStringResponder(http.StatusOK, listing).HeaderSet(http.Header{"Content-Type": {"application/xml"}}))
	mock.RegisterResponder(http.MethodDelete, "=~^"+objectURL("collection_5/"),
		httpmock.NewStringResponder(http.StatusNoContent, ""))

	keys, err := s.List(ctx, CollectionPrefix(5))
	require.NoError(t, err)
	assert.Len(t, keys, 5)
	assert.Equal(t, ref.OriginalKey(), keys[0])

	n, err := RemovePrefix(ctx, s, CollectionPrefix(5))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	info := mock.GetCallCountInfo()
	deletes := 0
	for k, v := range info {
		if strings.HasPrefix(k, http.MethodDelete) {
			deletes += v
		}
	}
	assert.Equal(t, 5, deletes)
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	require.Error(t, err)
}
