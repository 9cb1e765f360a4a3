package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"headshotlab/internal/domain"
	"headshotlab/internal/infra"
	"headshotlab/internal/middleware"
	"headshotlab/internal/reconcile"
	"headshotlab/internal/replicate"
	"headshotlab/internal/shoot"
	"headshotlab/internal/storage"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*domain.User{}}
}

func (m *memUsers) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrConflict
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memStudios struct {
	mu      sync.Mutex
	studios map[string]*domain.Studio
}

func newMemStudios() *memStudios {
	return &memStudios{studios: map[string]*domain.Studio{}}
}

func (m *memStudios) Create(ctx context.Context, studio *domain.Studio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	studio.CreatedAt = time.Now()
	studio.UpdatedAt = studio.CreatedAt
	cp := *studio
	m.studios[studio.ID] = &cp
	return nil
}

func (m *memStudios) GetByID(ctx context.Context, id string) (*domain.Studio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.studios[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memStudios) ListByUser(ctx context.Context, userID string) ([]domain.Studio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Studio
	for _, s := range m.studios {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memPredictions struct {
	mu          sync.Mutex
	predictions map[string]*domain.Prediction
	owners      map[string]string // studio id -> user id
}

func newMemPredictions(studios *memStudios) *memPredictions {
	owners := map[string]string{}
	for id, s := range studios.studios {
		owners[id] = s.UserID
	}
	return &memPredictions{predictions: map[string]*domain.Prediction{}, owners: owners}
}

func (m *memPredictions) put(p domain.Prediction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[p.ID] = &p
}

func (m *memPredictions) Create(ctx context.Context, p *domain.Prediction) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.put(*p)
	return nil
}

func (m *memPredictions) GetByID(ctx context.Context, id string) (*domain.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.predictions[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memPredictions) GetWithOwner(ctx context.Context, id string) (*domain.Prediction, string, error) {
	p, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	m.mu.Lock()
	owner := m.owners[p.StudioID]
	m.mu.Unlock()
	return p, owner, nil
}

func (m *memPredictions) MarkProcessing(ctx context.Context, id, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.predictions[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.ExternalID = externalID
	p.Status = domain.PredictionStatusProcessing
	return nil
}

func (m *memPredictions) UpdateStatus(ctx context.Context, id string, status domain.PredictionStatus, resultURL, thumbnailURL *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.predictions[id]
	if !ok {
		return false, nil
	}
	if p.Status.Terminal() {
		return false, nil
	}
	p.Status = status
	if resultURL != nil {
		p.ResultURL = *resultURL
	}
	if thumbnailURL != nil {
		p.ThumbnailURL = *thumbnailURL
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPredictions) SetShared(ctx context.Context, id string, shared bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.predictions[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.IsShared = shared
	return nil
}

func (m *memPredictions) ListByStudio(ctx context.Context, studioID string) ([]domain.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Prediction
	for _, p := range m.predictions {
		if p.StudioID == studioID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPredictions) ListProcessing(ctx context.Context) ([]domain.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Prediction
	for _, p := range m.predictions {
		if !p.Status.Terminal() {
			out = append(out, *p)
		}
	}
	return out, nil
}

type memFavorites struct {
	mu          sync.Mutex
	pairs       map[[2]string]time.Time
	predictions *memPredictions
}

func newMemFavorites(predictions *memPredictions) *memFavorites {
	return &memFavorites{pairs: map[[2]string]time.Time{}, predictions: predictions}
}

func (m *memFavorites) Add(ctx context.Context, userID, predictionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.predictions.predictions[predictionID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	key := [2]string{userID, predictionID}
	if _, dup := m.pairs[key]; dup {
		return 0, domain.ErrConflict
	}
	m.pairs[key] = time.Now()
	p.LikesCount++
	return p.LikesCount, nil
}

func (m *memFavorites) Remove(ctx context.Context, userID, predictionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{userID, predictionID}
	if _, ok := m.pairs[key]; !ok {
		return 0, domain.ErrNotFound
	}
	delete(m.pairs, key)
	p := m.predictions.predictions[predictionID]
	if p.LikesCount > 0 {
		p.LikesCount--
	}
	return p.LikesCount, nil
}

func (m *memFavorites) ListByUser(ctx context.Context, userID string) ([]domain.FavoriteWithPrediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.FavoriteWithPrediction
	for key, at := range m.pairs {
		if key[0] != userID {
			continue
		}
		p := m.predictions.predictions[key[1]]
		fav := domain.FavoriteWithPrediction{Prediction: *p}
		fav.UserID = userID
		fav.PredictionID = key[1]
		fav.CreatedAt = at
		out = append(out, fav)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memGallery struct {
	items  []domain.GalleryItem
	styles []string
}

func (m *memGallery) List(ctx context.Context, q domain.GalleryQuery) ([]domain.GalleryItem, int, error) {
	filtered := make([]domain.GalleryItem, 0, len(m.items))
	for _, it := range m.items {
		if q.Style == "" || it.Style == q.Style {
			filtered = append(filtered, it)
		}
	}
	total := len(filtered)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (m *memGallery) Styles(ctx context.Context) ([]string, error) {
	return m.styles, nil
}

type stubProvider struct {
	mu      sync.Mutex
	creates int
	gets    map[string]*replicate.Prediction
	fail    bool
}

func (s *stubProvider) CreatePrediction(ctx context.Context, in replicate.CreatePredictionInput) (*replicate.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, domain.ErrUpstreamFailure
	}
	s.creates++
	return &replicate.Prediction{ID: "ext-1", Status: replicate.StatusStarting}, nil
}

func (s *stubProvider) GetPrediction(ctx context.Context, externalID string) (*replicate.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.gets[externalID]; ok {
		return p, nil
	}
	return &replicate.Prediction{ID: externalID, Status: replicate.StatusProcessing}, nil
}

type stubUploader struct{}

func (stubUploader) UploadFromURL(ctx context.Context, sourceURL, baseName string) (*storage.Artifact, error) {
	return &storage.Artifact{
		URL:          "https://cdn.example.com/results/" + baseName,
		ThumbnailURL: "https://cdn.example.com/thumbs/" + baseName,
	}, nil
}

type testEnv struct {
	app         *App
	users       *memUsers
	studios     *memStudios
	predictions *memPredictions
	favorites   *memFavorites
	gallery     *memGallery
	provider    *stubProvider
}

func newTestEnv() *testEnv {
	cfg := &infra.Config{
		AppEnv:          "test",
		AppBaseURL:      "https://app.example.com",
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		RateLimitPerMin: 1000,
	}
	logger := zerolog.Nop()

	users := newMemUsers()
	studios := newMemStudios()
	predictions := newMemPredictions(studios)
	favorites := newMemFavorites(predictions)
	gallery := &memGallery{}
	provider := &stubProvider{gets: map[string]*replicate.Prediction{}}

	app := NewApp(cfg, logger)
	app.Users = users
	app.Studios = studios
	app.Predictions = predictions
	app.Favorites = favorites
	app.Gallery = gallery
	app.Launcher = shoot.NewLauncher(studios, predictions, provider, nil, cfg.AppBaseURL, logger)
	app.Reconciler = reconcile.New(predictions, provider, stubUploader{}, logger)

	return &testEnv{
		app:         app,
		users:       users,
		studios:     studios,
		predictions: predictions,
		favorites:   favorites,
		gallery:     gallery,
		provider:    provider,
	}
}

func (e *testEnv) addStudio(s domain.Studio) {
	e.studios.studios[s.ID] = &s
	e.predictions.owners[s.ID] = s.UserID
}

// authedRequest stamps the user id onto the context the way AuthJWT would.
func authedRequest(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// urlParams attaches chi route parameters for handlers called outside a router.
func urlParams(r *http.Request, pairs ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(pairs); i += 2 {
		rctx.URLParams.Add(pairs[i], pairs[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func doRequest(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, r)
	return rec
}
