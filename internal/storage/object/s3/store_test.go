package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa-backend/internal/storage/object"
)

type fakeS3 struct {
	objects map[string][]byte
	lastPut *s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = body
	f.lastPut = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStoreAppliesPrefixAndMapsNotFound(t *testing.T) {
	fake := newFakeS3()
	store := NewWithClient(fake, "docs", "/tenants/")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "org_a.pdf", strings.NewReader("pdf"), 3, "application/pdf"))
	assert.Contains(t, fake.objects, "tenants/org_a.pdf")
	assert.Equal(t, int64(3), aws.ToInt64(fake.lastPut.ContentLength))

	ok, err := store.Exists(ctx, "org_a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := store.Get(ctx, "org_a.pdf")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "pdf", string(body))

	require.NoError(t, store.Delete(ctx, "org_a.pdf"))
	_, err = store.Get(ctx, "org_a.pdf")
	assert.ErrorIs(t, err, object.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "org_a.pdf"), object.ErrNotFound)
}

type brokenS3 struct{ fakeS3 }

func (brokenS3) HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return nil, errors.New("access denied")
}

func TestStoreExistsSurfacesOtherErrors(t *testing.T) {
	store := NewWithClient(&brokenS3{fakeS3: *newFakeS3()}, "docs", "")

	_, err := store.Exists(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
