package handlers

import (
	"net/http"
	"strconv"

	"headshotlab/internal/cache"
	"headshotlab/internal/domain"
)

const defaultGalleryLimit = 20

// GalleryPublic serves the anonymous gallery: shared, completed predictions
// with pagination. Pages are cached briefly, so a like or a new share may
// take a few seconds to show up.
func (a *App) GalleryPublic(w http.ResponseWriter, r *http.Request) {
	q := galleryQueryFromRequest(r)

	if page, err := a.Cache.Get(r.Context(), q); err == nil && page != nil {
		a.json(w, http.StatusOK, page)
		return
	}

	items, total, err := a.Gallery.List(r.Context(), q)
	if err != nil {
		a.fail(w, err)
		return
	}
	if items == nil {
		items = []domain.GalleryItem{}
	}
	page := &cache.GalleryPage{
		Items:      items,
		Pagination: domain.NewPagination(q.Page, q.Limit, total),
	}
	if err := a.Cache.Set(r.Context(), q, page); err != nil {
		a.Logger.Warn().Err(err).Msg("gallery cache write failed")
	}
	a.json(w, http.StatusOK, page)
}

// GalleryStyles lists the distinct styles available in the public gallery.
func (a *App) GalleryStyles(w http.ResponseWriter, r *http.Request) {
	styles, err := a.Gallery.Styles(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	if styles == nil {
		styles = []string{}
	}
	a.json(w, http.StatusOK, map[string]any{"styles": styles})
}

func galleryQueryFromRequest(r *http.Request) domain.GalleryQuery {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultGalleryLimit
	}
	if limit > domain.MaxGalleryPageSize {
		limit = domain.MaxGalleryPageSize
	}
	return domain.GalleryQuery{
		Page:  page,
		Limit: limit,
		Style: r.URL.Query().Get("style"),
		Sort:  domain.NormalizeGallerySort(r.URL.Query().Get("sort_by")),
	}
}
