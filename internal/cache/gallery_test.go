package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"headshotlab/internal/domain"
)

func TestGalleryCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewGalleryCache(context.Background(), mr.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("NewGalleryCache error: %v", err)
	}
	defer c.Close()

	q := domain.GalleryQuery{Page: 1, Limit: 20, Style: "corporate", Sort: domain.GallerySortTrending}

	got, err := c.Get(context.Background(), q)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss on empty cache, got %+v", got)
	}

	page := &GalleryPage{
		Items:      []domain.GalleryItem{{ID: "pred-1", Style: "corporate", LikesCount: 4}},
		Pagination: domain.NewPagination(1, 20, 45),
	}
	if err := c.Set(context.Background(), q, page); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	got, err = c.Get(context.Background(), q)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil || len(got.Items) != 1 || got.Items[0].ID != "pred-1" {
		t.Fatalf("unexpected cached page: %+v", got)
	}
	if got.Pagination.TotalPages != 3 {
		t.Fatalf("pagination lost in round trip: %+v", got.Pagination)
	}
}

func TestGalleryCacheKeysAreQuerySpecific(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewGalleryCache(context.Background(), mr.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("NewGalleryCache error: %v", err)
	}
	defer c.Close()

	q1 := domain.GalleryQuery{Page: 1, Limit: 20, Sort: domain.GallerySortNewest}
	q2 := domain.GalleryQuery{Page: 2, Limit: 20, Sort: domain.GallerySortNewest}

	if err := c.Set(context.Background(), q1, &GalleryPage{Pagination: domain.NewPagination(1, 20, 45)}); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, err := c.Get(context.Background(), q2)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Fatalf("page 2 must not hit page 1 cache entry")
	}
}

func TestGalleryCacheExpires(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewGalleryCache(context.Background(), mr.Addr(), time.Second)
	if err != nil {
		t.Fatalf("NewGalleryCache error: %v", err)
	}
	defer c.Close()

	q := domain.GalleryQuery{Page: 1, Limit: 20, Sort: domain.GallerySortNewest}
	if err := c.Set(context.Background(), q, &GalleryPage{}); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	mr.FastForward(2 * time.Second)

	got, err := c.Get(context.Background(), q)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected entry to expire")
	}
}

func TestNilGalleryCacheIsNoop(t *testing.T) {
	var c *GalleryCache
	q := domain.GalleryQuery{Page: 1, Limit: 20}
	if got, err := c.Get(context.Background(), q); err != nil || got != nil {
		t.Fatalf("nil cache Get = (%+v, %v)", got, err)
	}
	if err := c.Set(context.Background(), q, &GalleryPage{}); err != nil {
		t.Fatalf("nil cache Set error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil cache Close error: %v", err)
	}
}
