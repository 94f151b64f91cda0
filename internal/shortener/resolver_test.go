package shortener_test

import (
	"context"
	"testing"

	"github.com/serroba/shortlink-go/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeResolver_ResolveCustom(t *testing.T) {
	t.Run("accepts a free custom code", func(t *testing.T) {
		repo := newFakeRepository()
		resolver := shortener.NewCodeResolver(repo, shortener.NewGenerator(), 8, 5)

		code, err := resolver.ResolveCustom(context.Background(), "my-custom")

		require.NoError(t, err)
		assert.Equal(t, shortener.Code("my-custom"), code)
		assert.Equal(t, 1, repo.existCalls)
	})

	t.Run("rejects a taken custom code every time without retrying", func(t *testing.T) {
		repo := newFakeRepository()
		repo.seed(shortener.ShortLink{Code: "my-custom", LongURL: testURL})
		resolver := shortener.NewCodeResolver(repo, shortener.NewGenerator(), 8, 5)

		for range 3 {
			_, err := resolver.ResolveCustom(context.Background(), "my-custom")
			require.ErrorIs(t, err, shortener.ErrCodeAlreadyExists)
		}

		assert.Equal(t, 3, repo.existCalls)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		repo := newFakeRepository()
		repo.existsErr = errMock
		resolver := shortener.NewCodeResolver(repo, shortener.NewGenerator(), 8, 5)

		_, err := resolver.ResolveCustom(context.Background(), "my-custom")

		require.ErrorIs(t, err, errMock)
	})
}

func TestCodeResolver_Generate(t *testing.T) {
	taken := []shortener.Code{"aaaaaaa1", "aaaaaaa2", "aaaaaaa3", "aaaaaaa4", "aaaaaaa5", "aaaaaaa6"}

	t.Run("fails after exactly max attempts when every candidate is taken", func(t *testing.T) {
		repo := newFakeRepository()
		for _, code := range taken {
			repo.seed(shortener.ShortLink{Code: code, LongURL: testURL})
		}

		resolver := shortener.NewCodeResolver(repo, &scriptedSource{codes: taken}, 8, 5)

		code, err := resolver.Generate(context.Background())

		assert.Empty(t, code)
		require.ErrorIs(t, err, shortener.ErrGenerationFailed)
		require.ErrorIs(t, err, shortener.ErrMaxRetriesExceeded)
		assert.Equal(t, 5, repo.existCalls)
	})

	t.Run("returns the first free candidate", func(t *testing.T) {
		repo := newFakeRepository()
		repo.seed(shortener.ShortLink{Code: taken[0], LongURL: testURL})
		repo.seed(shortener.ShortLink{Code: taken[1], LongURL: testURL})

		resolver := shortener.NewCodeResolver(repo, &scriptedSource{codes: taken}, 8, 5)

		code, err := resolver.Generate(context.Background())

		require.NoError(t, err)
		assert.Equal(t, taken[2], code)
		assert.Equal(t, 3, repo.existCalls)
	})

	t.Run("fails when the source runs dry early", func(t *testing.T) {
		repo := newFakeRepository()
		repo.seed(shortener.ShortLink{Code: taken[0], LongURL: testURL})

		resolver := shortener.NewCodeResolver(repo, &scriptedSource{codes: taken[:1]}, 8, 5)

		_, err := resolver.Generate(context.Background())

		require.ErrorIs(t, err, shortener.ErrGenerationFailed)
		assert.Equal(t, 1, repo.existCalls)
	})

	t.Run("propagates store errors without further probing", func(t *testing.T) {
		repo := newFakeRepository()
		repo.existsErr = errMock

		resolver := shortener.NewCodeResolver(repo, &scriptedSource{codes: taken}, 8, 5)

		_, err := resolver.Generate(context.Background())

		require.ErrorIs(t, err, errMock)
		require.NotErrorIs(t, err, shortener.ErrGenerationFailed)
		assert.Equal(t, 1, repo.existCalls)
	})

	t.Run("propagates source construction errors", func(t *testing.T) {
		resolver := shortener.NewCodeResolver(newFakeRepository(), &scriptedSource{err: errMock}, 8, 5)

		_, err := resolver.Generate(context.Background())

		require.ErrorIs(t, err, errMock)
	})

	t.Run("works with the random generator", func(t *testing.T) {
		repo := newFakeRepository()
		resolver := shortener.NewCodeResolver(repo, shortener.NewGenerator(), 8, 5)

		code, err := resolver.Generate(context.Background())

		require.NoError(t, err)
		assert.Len(t, code, 8)
	})
}
