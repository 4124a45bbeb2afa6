package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"microblog/internal/model"
	"microblog/internal/repository"
)

func pngBytes(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngUpload(t *testing.T, filename string) model.MediaUpload {
	return model.MediaUpload{
		Filename:    filename,
		ContentType: "image/png",
		Body:        bytes.NewReader(pngBytes(t, 4, 4)),
	}
}

func blobCount(t *testing.T, f *fixture) int {
	entries, err := os.ReadDir(filepath.Join(f.store.Root(), "media"))
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func TestMediaService_Upload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	m, err := f.media.Upload(ctx, pngUpload(t, "Holiday.PNG"))
	require.NoError(t, err)
	require.NotZero(t, m.ID)
	require.True(t, strings.HasPrefix(m.Path, "media/"))
	require.True(t, strings.HasSuffix(m.Path, ".png"))
	require.Equal(t, "image/png", m.ContentType)

	data, err := os.ReadFile(filepath.Join(f.store.Root(), filepath.FromSlash(m.Path)))
	require.NoError(t, err)
	require.EqualValues(t, len(data), m.SizeBytes)

	other, err := f.media.Upload(ctx, pngUpload(t, "Holiday.PNG"))
	require.NoError(t, err)
	require.NotEqual(t, m.Path, other.Path)
	require.Equal(t, 2.0, testutil.ToFloat64(f.metrics.MediaUploads.WithLabelValues("stored")))
}

func TestMediaService_UploadRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixtureWith(t, 10, MediaConfig{MaxBytes: 64})

	tests := []struct {
		name    string
		upload  model.MediaUpload
		wantErr error
	}{
		{
			name:    "disallowed type",
			upload:  model.MediaUpload{Filename: "a.txt", ContentType: "text/plain", Body: strings.NewReader("hello")},
			wantErr: model.ErrInvalidMediaType,
		},
		{
			name:    "video not allowed by default",
			upload:  model.MediaUpload{Filename: "a.mp4", ContentType: "video/mp4", Body: strings.NewReader("x")},
			wantErr: model.ErrInvalidMediaType,
		},
		{
			name:    "empty payload",
			upload:  model.MediaUpload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("")},
			wantErr: model.ErrMediaEmpty,
		},
		{
			name:    "too large",
			upload:  model.MediaUpload{Filename: "a.png", ContentType: "image/png", Body: bytes.NewReader(make([]byte, 65))},
			wantErr: model.ErrMediaTooLarge,
		},
		{
			name:    "sniffed text",
			upload:  model.MediaUpload{Filename: "a", Body: strings.NewReader("just some text")},
			wantErr: model.ErrInvalidMediaType,
		},
		{
			name:    "no body",
			upload:  model.MediaUpload{Filename: "a.png", ContentType: "image/png"},
			wantErr: model.ErrMediaRequired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.media.Upload(ctx, tt.upload)
			require.ErrorIs(t, err, tt.wantErr)
			require.True(t, model.IsKind(err, model.KindValidation))
		})
	}

	require.Zero(t, f.count(t, "medias"))
	require.Zero(t, blobCount(t, f))
	require.Equal(t, float64(len(tests)), testutil.ToFloat64(f.metrics.MediaUploads.WithLabelValues("rejected")))
}

func TestMediaService_ContentTypeParamsAndSniffing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	m, err := f.media.Upload(ctx, model.MediaUpload{
		Filename:    "x.png",
		ContentType: "IMAGE/PNG; charset=binary",
		Body:        bytes.NewReader(pngBytes(t, 2, 2)),
	})
	require.NoError(t, err)
	require.Equal(t, "image/png", m.ContentType)

	// no declared type and no usable extension: sniff, then use the registered extension
	m, err = f.media.Upload(ctx, model.MediaUpload{
		Filename: "upload",
		Body:     bytes.NewReader(pngBytes(t, 2, 2)),
	})
	require.NoError(t, err)
	require.Equal(t, "image/png", m.ContentType)
	require.True(t, strings.HasSuffix(m.Path, ".png"))
}

func TestMediaService_Downscale(t *testing.T) {
	ctx := context.Background()
	f := newFixtureWith(t, 10, MediaConfig{MaxImageDimension: 8})

	m, err := f.media.Upload(ctx, model.MediaUpload{
		Filename:    "big.png",
		ContentType: "image/png",
		Body:        bytes.NewReader(pngBytes(t, 32, 16)),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.store.Root(), filepath.FromSlash(m.Path)))
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 8, cfg.Width)
	require.Equal(t, 4, cfg.Height)

	_, err = f.media.Upload(ctx, model.MediaUpload{
		Filename:    "broken.png",
		ContentType: "image/png",
		Body:        strings.NewReader("definitely not a png"),
	})
	require.ErrorIs(t, err, model.ErrUndecodableImage)
}

func TestMediaService_PruneOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")

	used, err := f.media.Upload(ctx, pngUpload(t, "used.png"))
	require.NoError(t, err)
	orphan, err := f.media.Upload(ctx, pngUpload(t, "orphan.png"))
	require.NoError(t, err)

	tw, err := f.tweets.Create(ctx, alice.ID, "with media", []int64{used.ID})
	require.NoError(t, err)

	// too young to prune
	n, err := f.media.PruneOrphans(ctx, time.Hour)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = f.media.PruneOrphans(ctx, -time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, f.count(t, "medias"))
	require.Equal(t, 1, blobCount(t, f))
	_, err = os.Stat(filepath.Join(f.store.Root(), filepath.FromSlash(orphan.Path)))
	require.True(t, os.IsNotExist(err))

	// deleting the tweet keeps its media until the next prune
	require.NoError(t, f.tweets.Delete(ctx, alice.ID, tw.ID))
	require.Equal(t, 1, f.count(t, "medias"))
	n, err = f.media.PruneOrphans(ctx, -time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Zero(t, blobCount(t, f))
}

// attachOnList attaches every listed orphan to a fresh tweet right after the
// listing, as a tweet created concurrently with a prune would.
type attachOnList struct {
	repository.MediaRepository
	attach func(ids []int64)
}

func (r *attachOnList) ListOrphans(ctx context.Context, cutoff time.Time) ([]model.Media, error) {
	orphans, err := r.MediaRepository.ListOrphans(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(orphans))
	for i, m := range orphans {
		ids[i] = m.ID
	}
	r.attach(ids)
	return orphans, nil
}

func TestMediaService_PruneKeepsMediaAttachedAfterListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")

	media, err := f.media.Upload(ctx, pngUpload(t, "late.png"))
	require.NoError(t, err)

	var tweetID int64
	repo := &attachOnList{
		MediaRepository: repository.NewMediaRepository(f.db),
		attach: func(ids []int64) {
			tw, err := f.tweets.Create(ctx, alice.ID, "attached during prune", ids)
			require.NoError(t, err)
			tweetID = tw.ID
		},
	}
	pruner := NewMediaService(repo, f.store, MediaConfig{}, f.metrics, zaptest.NewLogger(t))

	n, err := pruner.PruneOrphans(ctx, -time.Minute)
	require.NoError(t, err)
	require.Zero(t, n)

	require.Equal(t, 1, f.count(t, "medias"))
	require.Equal(t, 1, blobCount(t, f))

	feed, err := f.tweets.ListTweets(ctx, &alice.ID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, tweetID, feed[0].ID)
	require.Equal(t, []string{media.Path}, feed[0].Attachments)
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		filename, contentType, want string
	}{
		{"photo.JPG", "image/jpeg", ".jpg"},
		{"photo.jpeg", "image/jpeg", ".jpeg"},
		{"noext", "image/png", ".png"},
		{`C:\Users\me\pic.Gif`, "image/gif", ".gif"},
		{"weird.p%g", "image/png", ".png"},
		{"", "image/webp", ".webp"},
		{"evil.html", "image/png", ".png"},
		{"script.js", "image/jpeg", ".jpg"},
		{"pic.gif", "image/png", ".png"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, fileExtension(tt.filename, tt.contentType), tt.filename)
	}
}
