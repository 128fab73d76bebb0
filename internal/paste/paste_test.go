package paste_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dustebin/integration/storage/s3"
	"github.com/dmitrymomot/dustebin/internal/paste"
	"github.com/dmitrymomot/dustebin/pkg/summarizer"
	"github.com/dmitrymomot/dustebin/pkg/viewcache"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemImages() *memImages {
	return &memImages{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memImages) Put(_ context.Context, key string, data []byte, contentType string) (*s3.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return &s3.Object{Key: key, URL: "https://cdn.test/" + key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (m *memImages) Get(_ context.Context, key string) ([]byte, *s3.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, nil, s3.ErrObjectNotFound
	}
	return data, &s3.Object{Key: key, ContentType: m.types[key]}, nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memImages) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

type fixture struct {
	svc    *paste.Service
	repo   *paste.MemoryRepository
	images *memImages
	clock  *testClock
}

func newFixture(t *testing.T, opts ...paste.Option) fixture {
	t.Helper()
	f := fixture{
		repo:   paste.NewMemoryRepository(),
		images: newMemImages(),
		clock:  newTestClock(),
	}
	base := []paste.Option{
		paste.WithImageStore(f.images),
		paste.WithClock(f.clock.Now),
		paste.WithViewCounter(viewcache.New(viewcache.WithClock(f.clock.Now))),
	}
	f.svc = paste.NewService(f.repo, append(base, opts...)...)
	t.Cleanup(func() { _ = f.svc.Shutdown(context.Background()) })
	return f
}

func TestService_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.svc.Create(ctx, paste.CreateInput{Content: "hello"})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(created.ID, ".txt"))
		assert.Len(t, paste.BaseID(created.ID), 8)
		assert.Equal(t, "plaintext", created.Language)
		assert.Nil(t, created.ExpiresAt)
		assert.False(t, created.HasPassword)

		v, err := f.svc.Get(ctx, created.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "hello", v.Content)
		assert.Equal(t, int64(1), v.Views)
		assert.Equal(t, paste.AIStatusCompleted, v.AIStatus)
		assert.Equal(t, "Plaintext Snippet", v.Title)
	})

	t.Run("language extension and expiry", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.svc.Create(ctx, paste.CreateInput{Content: "print(1)", Language: "python", Expiration: "1d"})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(created.ID, ".py"))
		require.NotNil(t, created.ExpiresAt)
		assert.Equal(t, f.clock.Now().Add(24*time.Hour), *created.ExpiresAt)
	})

	t.Run("views are debounced", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, paste.CreateInput{Content: "x"})
		require.NoError(t, err)

		_, err = f.svc.Get(ctx, created.ID, "")
		require.NoError(t, err)
		v, err := f.svc.Get(ctx, created.ID, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), v.Views)

		f.clock.Advance(2001 * time.Millisecond)
		v, err = f.svc.Get(ctx, created.ID, "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), v.Views)
	})

	t.Run("json is pretty printed", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.svc.Create(ctx, paste.CreateInput{Content: `{"a":1,"b":"two"}`, Language: "json"})
		require.NoError(t, err)

		v, err := f.svc.Get(ctx, created.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": \"two\"\n}\n", v.Content)
	})

	t.Run("large content is compressed", func(t *testing.T) {
		f := newFixture(t)
		content := strings.Repeat("fn main() {}\n", 500)

		created, err := f.svc.Create(ctx, paste.CreateInput{Content: content, Language: "rust"})
		require.NoError(t, err)

		stored, err := f.repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsCompressed)
		assert.Less(t, len(stored.Content), len(content))

		v, err := f.svc.Get(ctx, created.ID, "")
		require.NoError(t, err)
		assert.Equal(t, content, v.Content)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Get(ctx, "missing.txt", "")
		assert.ErrorIs(t, err, paste.ErrNotFound)
	})

	t.Run("expired paste is deleted on access", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, paste.CreateInput{Content: "x", Expiration: "1h"})
		require.NoError(t, err)

		f.clock.Advance(time.Hour + time.Second)
		_, err = f.svc.Get(ctx, created.ID, "")
		assert.ErrorIs(t, err, paste.ErrExpired)

		_, err = f.svc.Get(ctx, created.ID, "")
		assert.ErrorIs(t, err, paste.ErrNotFound)
	})
}

func TestService_CreateValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	cases := map[string]paste.CreateInput{
		"missing content":    {},
		"unknown language":   {Content: "x", Language: "cobol"},
		"unknown expiry":     {Content: "x", Expiration: "1y"},
		"content and image":  {Content: "x", Image: pngBase64(t, 2, 2)},
		"image without data": {PasteType: paste.TypeImage},
		"unknown type":       {Content: "x", PasteType: "video"},
		"too large":          {Content: strings.Repeat("a", paste.MaxContentSize+1)},
		"bad image":          {PasteType: paste.TypeImage, Image: "bm90IGFuIGltYWdl"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, in)
			var verr *paste.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Fields)
		})
	}
}

func TestService_Password(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Create(ctx, paste.CreateInput{Content: "secret", Password: "hunter2"})
	require.NoError(t, err)
	assert.True(t, created.HasPassword)

	t.Run("get without password", func(t *testing.T) {
		v, err := f.svc.Get(ctx, created.ID, "")
		require.NoError(t, err)
		assert.True(t, v.RequiresPassword)
		assert.Empty(t, v.Content)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Get(ctx, created.ID, "nope")
		assert.ErrorIs(t, err, paste.ErrIncorrectPassword)
	})

	t.Run("correct password", func(t *testing.T) {
		v, err := f.svc.Get(ctx, created.ID, "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "secret", v.Content)
	})

	t.Run("raw requires password", func(t *testing.T) {
		_, err := f.svc.Raw(ctx, created.ID, "", false)
		assert.ErrorIs(t, err, paste.ErrPasswordRequired)
	})
}

func TestService_BurnAfterReading(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("raw needs confirmation and deletes", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, paste.CreateInput{Content: "once", Language: "json", Expiration: "burn"})
		require.NoError(t, err)
		assert.Nil(t, created.ExpiresAt)

		_, err = f.svc.Raw(ctx, created.ID, "", false)
		assert.ErrorIs(t, err, paste.ErrBurnConfirmationRequired)

		raw, err := f.svc.Raw(ctx, created.ID, "", true)
		require.NoError(t, err)
		assert.Equal(t, "once", raw.Content)
		assert.True(t, raw.BurnAfterRead)
		assert.Equal(t, paste.BaseID(created.ID)+".json", raw.Filename)

		_, err = f.svc.Get(ctx, created.ID, "")
		assert.ErrorIs(t, err, paste.ErrNotFound)
	})

	t.Run("burn endpoint", func(t *testing.T) {
		f := newFixture(t)
		burnable, err := f.svc.Create(ctx, paste.CreateInput{Content: "a", Expiration: "burn"})
		require.NoError(t, err)
		regular, err := f.svc.Create(ctx, paste.CreateInput{Content: "b"})
		require.NoError(t, err)

		assert.ErrorIs(t, f.svc.Burn(ctx, regular.ID), paste.ErrNotBurnable)
		require.NoError(t, f.svc.Burn(ctx, burnable.ID))
		assert.ErrorIs(t, f.svc.Burn(ctx, burnable.ID), paste.ErrNotFound)
	})
}

type txCall struct {
	op   string
	inTx bool
}

// txRecorder marks the ctx passed to InTx and records whether each
// repository call ran inside it.
type txRecorder struct {
	*paste.MemoryRepository
	mu    sync.Mutex
	calls []txCall
}

type recorderTxKey struct{}

func (r *txRecorder) record(ctx context.Context, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, txCall{op: op, inTx: ctx.Value(recorderTxKey{}) != nil})
}

func (r *txRecorder) Calls() []txCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

func (r *txRecorder) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.MemoryRepository.InTx(ctx, func(ctx context.Context) error {
		return fn(context.WithValue(ctx, recorderTxKey{}, true))
	})
}

func (r *txRecorder) Get(ctx context.Context, id string) (*paste.Paste, error) {
	r.record(ctx, "get")
	return r.MemoryRepository.Get(ctx, id)
}

func (r *txRecorder) IncrementViews(ctx context.Context, id string) (int64, error) {
	r.record(ctx, "views")
	return r.MemoryRepository.IncrementViews(ctx, id)
}

func (r *txRecorder) Delete(ctx context.Context, id string) error {
	r.record(ctx, "delete")
	return r.MemoryRepository.Delete(ctx, id)
}

func TestService_Transactions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("burn read and delete share one transaction", func(t *testing.T) {
		repo := &txRecorder{MemoryRepository: paste.NewMemoryRepository()}
		svc := paste.NewService(repo)
		t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

		created, err := svc.Create(ctx, paste.CreateInput{Content: "once", Expiration: "burn"})
		require.NoError(t, err)

		_, err = svc.Raw(ctx, created.ID, "", true)
		require.NoError(t, err)

		assert.Equal(t, []txCall{
			{op: "get", inTx: true},
			{op: "views", inTx: true},
			{op: "delete", inTx: true},
		}, repo.Calls())
	})

	t.Run("view is counted in the reading transaction", func(t *testing.T) {
		repo := &txRecorder{MemoryRepository: paste.NewMemoryRepository()}
		svc := paste.NewService(repo)
		t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

		created, err := svc.Create(ctx, paste.CreateInput{Content: "hello"})
		require.NoError(t, err)

		v, err := svc.Get(ctx, created.ID, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), v.Views)

		assert.Equal(t, []txCall{
			{op: "get", inTx: true},
			{op: "views", inTx: true},
		}, repo.Calls())
	})

	t.Run("expired paste is removed after the transaction", func(t *testing.T) {
		repo := &txRecorder{MemoryRepository: paste.NewMemoryRepository()}
		clock := newTestClock()
		svc := paste.NewService(repo, paste.WithClock(clock.Now))
		t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

		created, err := svc.Create(ctx, paste.CreateInput{Content: "soon gone", Expiration: "1h"})
		require.NoError(t, err)
		clock.Advance(2 * time.Hour)

		_, err = svc.Raw(ctx, created.ID, "", false)
		assert.ErrorIs(t, err, paste.ErrExpired)
		assert.Equal(t, []txCall{
			{op: "get", inTx: true},
			{op: "delete", inTx: false},
		}, repo.Calls())
	})

	t.Run("concurrent burn reads yield the content once", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, paste.CreateInput{Content: "only once", Expiration: "burn"})
		require.NoError(t, err)

		const readers = 8
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			read     int
			notFound int
		)
		for range readers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Raw(ctx, created.ID, "", true)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					read++
				case errors.Is(err, paste.ErrNotFound):
					notFound++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, read)
		assert.Equal(t, readers-1, notFound)
	})
}

func TestService_Images(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("upload, fetch and download", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, paste.CreateInput{PasteType: paste.TypeImage, Image: "data:image/png;base64," + pngBase64(t, 20, 10)})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(created.ID, ".png"))
		assert.Equal(t, 1, f.images.Len())

		v, err := f.svc.Get(ctx, created.ID, "")
		require.NoError(t, err)
		assert.True(t, v.HasImage)
		assert.Equal(t, 20, v.ImageWidth)
		assert.Equal(t, "image/png", v.ImageMimeType)
		assert.Equal(t, "PNG Image", v.Title)

		img, err := f.svc.Image(ctx, created.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)

		dl, err := f.svc.Download(ctx, created.ID, "", "gif")
		require.NoError(t, err)
		assert.Equal(t, "image/gif", dl.MimeType)
		assert.Equal(t, "dustebin-"+paste.BaseID(created.ID)+".gif", dl.Filename)

		dl, err = f.svc.Download(ctx, created.ID, "", "webp")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", dl.MimeType)
		assert.True(t, strings.HasSuffix(dl.Filename, ".jpg"))

		dl, err = f.svc.Download(ctx, created.ID, "", "original")
		require.NoError(t, err)
		assert.Equal(t, img.Data, dl.Data)

		raw, err := f.svc.Raw(ctx, created.ID, "", false)
		require.NoError(t, err)
		assert.True(t, raw.RedirectToDownload)

		formats, err := f.svc.Formats(ctx, created.ID, "")
		require.NoError(t, err)
		require.Len(t, formats, 4)
		assert.Equal(t, "original", formats[0].ID)
		assert.Equal(t, "Original (PNG)", formats[0].Name)
		assert.Equal(t, []string{"jpg", "gif", "png"}, []string{formats[1].ID, formats[2].ID, formats[3].ID})
	})

	t.Run("text paste is not an image", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, paste.CreateInput{Content: "x"})
		require.NoError(t, err)

		_, err = f.svc.Image(ctx, created.ID, "")
		assert.ErrorIs(t, err, paste.ErrNotImage)
		_, err = f.svc.Formats(ctx, created.ID, "")
		assert.ErrorIs(t, err, paste.ErrNotImage)
	})

	t.Run("images disabled", func(t *testing.T) {
		svc := paste.NewService(paste.NewMemoryRepository())
		t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

		_, err := svc.Create(ctx, paste.CreateInput{PasteType: paste.TypeImage, Image: pngBase64(t, 2, 2)})
		assert.ErrorIs(t, err, paste.ErrImagesDisabled)
	})

	t.Run("burning removes the image", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.svc.Create(ctx, paste.CreateInput{PasteType: paste.TypeImage, Image: pngBase64(t, 4, 4), Expiration: "burn"})
		require.NoError(t, err)

		require.NoError(t, f.svc.Burn(ctx, created.ID))
		assert.Zero(t, f.images.Len())
	})
}

func TestService_CleanupExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, paste.CreateInput{Content: "a", Expiration: "1h"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, paste.CreateInput{PasteType: paste.TypeImage, Image: pngBase64(t, 2, 2), Expiration: "1h"})
	require.NoError(t, err)
	keep, err := f.svc.Create(ctx, paste.CreateInput{Content: "b", Expiration: "7d"})
	require.NoError(t, err)

	n, err := f.svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(2 * time.Hour)
	n, err = f.svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Zero(t, f.images.Len())

	_, err = f.svc.Get(ctx, keep.ID, "")
	assert.NoError(t, err)
}

func TestService_Metadata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("pending then completed", func(t *testing.T) {
		release := make(chan struct{})
		sum := summarizer.Func(func(ctx context.Context, content, lang string) (summarizer.Summary, error) {
			<-release
			return summarizer.Summary{Title: "Hello world", Description: "Prints a greeting"}, nil
		})
		f := newFixture(t, paste.WithSummarizer(sum))

		created, err := f.svc.Create(ctx, paste.CreateInput{Content: "print('hi')", Language: "python"})
		require.NoError(t, err)

		md, updates, stop, err := f.svc.WatchMetadata(ctx, created.ID)
		require.NoError(t, err)
		defer stop()
		assert.Equal(t, paste.AIStatusPending, md.Status)
		require.NotNil(t, updates)

		close(release)
		select {
		case got := <-updates:
			assert.Equal(t, paste.Metadata{Status: paste.AIStatusCompleted, Title: "Hello world", Description: "Prints a greeting"}, got)
		case <-time.After(2 * time.Second):
			t.Fatal("no metadata update")
		}

		md, updates, _, err = f.svc.WatchMetadata(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, paste.AIStatusCompleted, md.Status)
		assert.Nil(t, updates)
	})

	t.Run("summarizer error marks failed", func(t *testing.T) {
		sum := summarizer.Func(func(context.Context, string, string) (summarizer.Summary, error) {
			return summarizer.Summary{}, assert.AnError
		})
		f := newFixture(t, paste.WithSummarizer(sum))

		created, err := f.svc.Create(ctx, paste.CreateInput{Content: "x"})
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			md, err := f.svc.Metadata(ctx, created.ID)
			return err == nil && md.Status == paste.AIStatusFailed
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("unknown paste", func(t *testing.T) {
		f := newFixture(t)
		_, _, _, err := f.svc.WatchMetadata(ctx, "nope")
		assert.ErrorIs(t, err, paste.ErrNotFound)
	})
}
