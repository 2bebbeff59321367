package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-ingest/models"
	"feed-ingest/utils"
)

func imageServer(t *testing.T, headCalls, getCalls *int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && headCalls != nil {
			atomic.AddInt64(headCalls, 1)
		}
		if r.Method == http.MethodGet && getCalls != nil {
			atomic.AddInt64(getCalls, 1)
		}
		switch r.URL.Path {
		case "/ok.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
		case "/ok.webp":
			w.Header().Set("Content-Type", "image/webp; charset=binary")
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
		case "/huge.png":
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Content-Length", "20971520")
		case "/nohead.png":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.Header().Set("Content-Type", "image/png")
		default:
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func product(main models.MainCategory, subs ...string) *models.CanonicalProduct {
	return &models.CanonicalProduct{
		ID:            "cramers-ros-001",
		Name:          "Röda rosor",
		MainCategory:  main,
		SubCategories: subs,
	}
}

func TestHTTPValidator(t *testing.T) {
	srv := imageServer(t, nil, nil)
	v := NewHTTPValidator(time.Second, nil, utils.NewNopLogger())

	tests := []struct {
		path   string
		valid  bool
		format string
	}{
		{"/ok.jpg", true, "jpg"},
		{"/ok.webp", true, "webp"},
		{"/page.html", false, ""},
		{"/huge.png", false, ""},
		{"/missing.jpg", false, ""},
		{"/nohead.png", true, "png"},
	}

	for _, tt := range tests {
		got := v.Validate(context.Background(), srv.URL+tt.path)
		if got.Valid != tt.valid {
			t.Errorf("Validate(%s).Valid = %v; want %v (reason %q)", tt.path, got.Valid, tt.valid, got.Reason)
		}
		if tt.valid && got.Format != tt.format {
			t.Errorf("Validate(%s).Format = %q; want %q", tt.path, got.Format, tt.format)
		}
	}
}

func TestHTTPValidatorFallsBackToGet(t *testing.T) {
	var heads, gets int64
	srv := imageServer(t, &heads, &gets)
	v := NewHTTPValidator(time.Second, nil, nil)

	got := v.Validate(context.Background(), srv.URL+"/nohead.png")

	assert.True(t, got.Valid)
	assert.Equal(t, int64(1), heads)
	assert.Equal(t, int64(1), gets)
}

func TestHTTPValidatorUsesCache(t *testing.T) {
	var heads int64
	srv := imageServer(t, &heads, nil)
	v := NewHTTPValidator(time.Second, NewMemoryCache(DefaultCacheTTL, nil), nil)

	for i := 0; i < 3; i++ {
		require.True(t, v.Validate(context.Background(), srv.URL+"/ok.jpg").Valid)
	}
	assert.Equal(t, int64(1), heads, "later lookups should be served from cache")
}

func TestMemoryCacheExpires(t *testing.T) {
	clock := utils.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	c := NewMemoryCache(24*time.Hour, clock)
	ctx := context.Background()

	c.Set(ctx, "https://img.example/a.jpg", Validation{Valid: true})
	_, ok := c.Get(ctx, "https://img.example/a.jpg")
	assert.True(t, ok)

	clock.Advance(23 * time.Hour)
	_, ok = c.Get(ctx, "https://img.example/a.jpg")
	assert.True(t, ok)

	clock.Advance(time.Hour)
	_, ok = c.Get(ctx, "https://img.example/a.jpg")
	assert.False(t, ok, "entry should expire after the TTL")
}

func TestResolvePartnerTier(t *testing.T) {
	srv := imageServer(t, nil, nil)
	r := NewResolver(nil, NewHTTPValidator(time.Second, nil, nil), Options{GeneratedEnabled: true}, nil)

	asset := r.Resolve(context.Background(), product(models.CategoryBuketter), srv.URL+"/ok.jpg")

	assert.Equal(t, models.SourcePartner, asset.SourceType)
	assert.Equal(t, srv.URL+"/ok.jpg", asset.URL)
	assert.Equal(t, "Röda rosor", asset.AltText)
	assert.Equal(t, models.ImageValid, asset.ValidationStatus)
}

func TestResolveFallsThroughTiers(t *testing.T) {
	srv := imageServer(t, nil, nil)
	validator := NewHTTPValidator(time.Second, nil, nil)

	t.Run("invalid partner image uses royalty-free by sub-category", func(t *testing.T) {
		r := NewResolver(nil, validator, Options{GeneratedEnabled: true}, nil)
		asset := r.Resolve(context.Background(), product(models.CategoryBuketter, "rosor"), srv.URL+"/page.html")

		assert.Equal(t, models.SourceRoyaltyFree, asset.SourceType)
		assert.Equal(t, "/images/royalty-free/roses-mixed-01.webp", asset.URL)
	})

	t.Run("primary colour key takes precedence", func(t *testing.T) {
		bank := DefaultBank()
		bank.RoyaltyFree["begravning:vit"] = []BankImage{{URL: "/images/royalty-free/white-funeral.webp"}}
		r := NewResolver(bank, nil, Options{}, nil)

		p := product(models.CategoryBegravning, "begravningskransar")
		p.Attributes.PrimaryColor = "vit"
		asset := r.Resolve(context.Background(), p, "")

		assert.Equal(t, "/images/royalty-free/white-funeral.webp", asset.URL)
	})

	t.Run("no bank match uses generated pool", func(t *testing.T) {
		r := NewResolver(nil, validator, Options{GeneratedEnabled: true}, nil)
		p := product(models.CategoryForetag, "kontorsblommor")
		asset := r.Resolve(context.Background(), p, "")

		assert.Equal(t, models.SourceGenerated, asset.SourceType)
		assert.True(t, strings.HasPrefix(asset.URL, "/images/generated/corporate-"))
		assert.Contains(t, asset.AltText, "(illustrationsbild)")
		assert.Contains(t, asset.Prompt, "corporate flower arrangement")
	})

	t.Run("generated disabled uses placeholder", func(t *testing.T) {
		r := NewResolver(nil, validator, Options{}, nil)
		asset := r.Resolve(context.Background(), product(models.CategoryForetag), "not a url")

		assert.Equal(t, models.SourcePlaceholder, asset.SourceType)
		assert.Equal(t, "/images/placeholders/corporate-placeholder.svg", asset.URL)
	})

	t.Run("empty bank still yields a placeholder", func(t *testing.T) {
		r := NewResolver(&Bank{}, nil, Options{GeneratedEnabled: true}, nil)
		asset := r.Resolve(context.Background(), product(models.CategoryPresenter), "")

		assert.Equal(t, models.SourcePlaceholder, asset.SourceType)
		assert.NotEmpty(t, asset.URL)
	})

	stats := NewResolver(nil, nil, Options{}, nil)
	stats.Resolve(context.Background(), product(models.CategoryBuketter), "https://img.example/a.jpg")
	stats.Resolve(context.Background(), product(models.CategoryBuketter), "")
	assert.Equal(t, map[models.SourceType]int{models.SourcePartner: 1, models.SourceRoyaltyFree: 1}, stats.Stats())
}

func TestResolveIsDeterministic(t *testing.T) {
	r := NewResolver(nil, nil, Options{GeneratedEnabled: true}, nil)

	for _, main := range models.MainCategories {
		p := product(main, "roda-blommor")
		p.Attributes.FlowerTypes = []string{"rosor"}
		p.Attributes.Colors = []string{"rod"}

		first := r.Resolve(context.Background(), p, "")
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, r.Resolve(context.Background(), p, ""), "category %s", main)
		}
		assert.NotEmpty(t, first.URL)
	}
}

func TestPickIsStable(t *testing.T) {
	pool := []BankImage{{URL: "a"}, {URL: "b"}, {URL: "c"}}
	got := pick(pool, "interflora-123")
	for i := 0; i < 10; i++ {
		assert.Equal(t, got, pick(pool, "interflora-123"))
	}
}

func TestLoadBank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	doc := `
royaltyFree:
  tulpaner:
    - url: /images/custom/tulips.webp
      license: cc-by
placeholders:
  buketter:
    url: /images/custom/placeholder.svg
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	bank, err := LoadBank(path)
	require.NoError(t, err)

	assert.Len(t, bank.RoyaltyFree, 1, "a royaltyFree table in the file replaces the defaults")
	assert.Equal(t, "cc-by", bank.RoyaltyFree["tulpaner"][0].License)
	assert.Equal(t, "/images/custom/placeholder.svg", bank.Placeholders["buketter"].URL)
	assert.Equal(t, "/images/placeholders/funeral-placeholder.svg", bank.Placeholders["begravning"].URL)
	assert.NotEmpty(t, bank.Generated["buketter"])
}

func TestPrompt(t *testing.T) {
	p := product(models.CategoryPresenter)
	p.Attributes.FlowerTypes = []string{"rosor", "tulpaner"}
	p.Attributes.Colors = []string{"rod", "vit"}
	p.Attributes.ChocolateIncluded = true

	got := Prompt(p)
	assert.Contains(t, got, "combining flowers with chocolate")
	assert.Contains(t, got, "rosor, tulpaner in rod and vit colors")
	assert.NotContains(t, got, "{")
}

// TestRedisCacheIntegration requires a running Redis.
func TestRedisCacheIntegration(t *testing.T) {
	c, err := NewRedisCache("redis://localhost:6379/0", time.Minute, utils.NewNopLogger())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	key := "https://img.example/redis-test.jpg"
	c.Set(ctx, key, Validation{Valid: true, Format: "jpg"})
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "jpg", got.Format)
}
