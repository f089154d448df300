package handlers

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inkpress/apiserver/config"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/storage"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
)

// In-memory repositories implementing the services' repository
// interfaces, so handler tests run against the full middleware and
// routing stack without a database.

type memUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[int]types.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	return r.findUser(func(u types.User) bool { return u.Email == email })
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	return r.findUser(func(u types.User) bool { return u.Username == username })
}

func (r *memUserRepo) GetByVerificationToken(_ context.Context, token string) (types.User, error) {
	return r.findUser(func(u types.User) bool {
		return u.VerificationToken != "" && u.VerificationToken == token
	})
}

func (r *memUserRepo) GetByPasswordResetToken(_ context.Context, token string) (types.User, error) {
	return r.findUser(func(u types.User) bool {
		return u.PasswordResetToken != "" && u.PasswordResetToken == token
	})
}

func (r *memUserRepo) findUser(match func(types.User) bool) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if match(user) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	for id, existing := range r.users {
		if id == user.ID {
			continue
		}
		if existing.Email == user.Email || existing.Username == user.Username {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type memPostRepo struct {
	mu     sync.Mutex
	nextID int
	posts  map[int]types.Post
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{nextID: 1, posts: make(map[int]types.Post)}
}

func (r *memPostRepo) List(_ context.Context, offset, limit int) ([]types.Post, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.posts))
	for id := range r.posts {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))

	items := make([]types.Post, 0, limit)
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(items) >= limit {
			break
		}
		items = append(items, r.posts[id])
	}
	return items, len(r.posts), nil
}

func (r *memPostRepo) Get(_ context.Context, id int) (types.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	return post, nil
}

func (r *memPostRepo) GetByTitle(_ context.Context, title string) (types.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, post := range r.posts {
		if post.Title == title {
			return post, nil
		}
	}
	return types.Post{}, store.ErrNotFound
}

func (r *memPostRepo) Create(_ context.Context, post types.Post) (types.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.posts {
		if existing.Title == post.Title {
			return types.Post{}, store.ErrDuplicate
		}
	}
	post.ID = r.nextID
	r.nextID++
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	r.posts[post.ID] = post
	return post, nil
}

func (r *memPostRepo) Update(_ context.Context, post types.Post) (types.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return types.Post{}, store.ErrNotFound
	}
	for id, existing := range r.posts {
		if id != post.ID && existing.Title == post.Title {
			return types.Post{}, store.ErrDuplicate
		}
	}
	post.UpdatedAt = time.Now()
	r.posts[post.ID] = post
	return post, nil
}

func (r *memPostRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

type memCategoryRepo struct {
	mu         sync.Mutex
	nextID     int
	categories map[int]types.Category
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{nextID: 1, categories: make(map[int]types.Category)}
}

func (r *memCategoryRepo) List(_ context.Context) ([]types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]types.Category, 0, len(r.categories))
	for _, category := range r.categories {
		items = append(items, category)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *memCategoryRepo) Get(_ context.Context, id int) (types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[id]
	if !ok {
		return types.Category{}, store.ErrNotFound
	}
	return category, nil
}

func (r *memCategoryRepo) GetByTitle(_ context.Context, title string) (types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, category := range r.categories {
		if category.Title == title {
			return category, nil
		}
	}
	return types.Category{}, store.ErrNotFound
}

func (r *memCategoryRepo) Create(_ context.Context, category types.Category) (types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if existing.Title == category.Title {
			return types.Category{}, store.ErrDuplicate
		}
	}
	category.ID = r.nextID
	r.nextID++
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	r.categories[category.ID] = category
	return category, nil
}

func (r *memCategoryRepo) Update(_ context.Context, category types.Category) (types.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[category.ID]; !ok {
		return types.Category{}, store.ErrNotFound
	}
	for id, existing := range r.categories {
		if id != category.ID && existing.Title == category.Title {
			return types.Category{}, store.ErrDuplicate
		}
	}
	category.UpdatedAt = time.Now()
	r.categories[category.ID] = category
	return category, nil
}

func (r *memCategoryRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

type memTagRepo struct {
	mu     sync.Mutex
	nextID int
	tags   map[int]types.Tag
}

func newMemTagRepo() *memTagRepo {
	return &memTagRepo{nextID: 1, tags: make(map[int]types.Tag)}
}

func (r *memTagRepo) List(_ context.Context) ([]types.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]types.Tag, 0, len(r.tags))
	for _, tag := range r.tags {
		items = append(items, tag)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *memTagRepo) Get(_ context.Context, id int) (types.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tag, ok := r.tags[id]
	if !ok {
		return types.Tag{}, store.ErrNotFound
	}
	return tag, nil
}

func (r *memTagRepo) GetByTitle(_ context.Context, title string) (types.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tag := range r.tags {
		if tag.Title == title {
			return tag, nil
		}
	}
	return types.Tag{}, store.ErrNotFound
}

func (r *memTagRepo) Create(_ context.Context, tag types.Tag) (types.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tags {
		if existing.Title == tag.Title {
			return types.Tag{}, store.ErrDuplicate
		}
	}
	tag.ID = r.nextID
	r.nextID++
	tag.CreatedAt = time.Now()
	tag.UpdatedAt = tag.CreatedAt
	r.tags[tag.ID] = tag
	return tag, nil
}

func (r *memTagRepo) Update(_ context.Context, tag types.Tag) (types.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tags[tag.ID]; !ok {
		return types.Tag{}, store.ErrNotFound
	}
	for id, existing := range r.tags {
		if id != tag.ID && existing.Title == tag.Title {
			return types.Tag{}, store.ErrDuplicate
		}
	}
	tag.UpdatedAt = time.Now()
	r.tags[tag.ID] = tag
	return tag, nil
}

func (r *memTagRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tags[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.tags, id)
	return nil
}

// recordingMailer captures dispatched emails for assertions.
type recordingMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failed bool
}

type sentMail struct {
	kind string
	to   string
	code string
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, to, code string) error {
	return m.record("verification", to, code)
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, to, code string) error {
	return m.record("password-reset", to, code)
}

func (m *recordingMailer) record(kind, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return context.DeadlineExceeded
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, code: code})
	return nil
}

func (m *recordingMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// memObjectStore is an in-memory storage.ObjectStorage backend.
type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (s *memObjectStore) EnsureBucket(context.Context) error { return nil }

func (s *memObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memObjectStore) Bucket() string { return "test-bucket" }

// testEnv wires the full router over in-memory dependencies.
type testEnv struct {
	router     *chi.Mux
	userRepo   *memUserRepo
	postRepo   *memPostRepo
	catRepo    *memCategoryRepo
	tagRepo    *memTagRepo
	mailer     *recordingMailer
	objects    *memObjectStore
	tokens     *services.TokenService
	users      *services.UserService
	posts      *services.PostService
	categories *services.CategoryService
	tags       *services.TagService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		userRepo: newMemUserRepo(),
		postRepo: newMemPostRepo(),
		catRepo:  newMemCategoryRepo(),
		tagRepo:  newMemTagRepo(),
		mailer:   &recordingMailer{},
		objects:  newMemObjectStore(),
	}

	env.users = services.NewUserService(env.userRepo)
	env.posts = services.NewPostService(env.postRepo)
	env.categories = services.NewCategoryService(env.catRepo)
	env.tags = services.NewTagService(env.tagRepo)
	env.tokens = services.NewTokenService(env.userRepo, config.JWTConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})

	media := storage.NewStorage(env.objects)
	auth := NewAuthMiddleware(env.users, env.tokens)

	ownership := NewOwnershipRegistry()
	ownership.Register(ResourceUser, func(ctx context.Context, id int) (int, error) {
		user, err := env.userRepo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	})
	ownership.Register(ResourcePost, func(ctx context.Context, id int) (int, error) {
		post, err := env.postRepo.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return post.UserID, nil
	})
	ownership.Register(ResourceCategory, func(ctx context.Context, id int) (int, error) {
		category, err := env.catRepo.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return category.UserID, nil
	})
	ownership.Register(ResourceTag, func(ctx context.Context, id int) (int, error) {
		tag, err := env.tagRepo.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return tag.UserID, nil
	})

	userHandler := NewUserHandler(env.users, env.tokens, env.mailer, media, config.TokenConfig{
		VerificationTTL:  24 * time.Hour,
		PasswordResetTTL: 15 * time.Minute,
	})
	postHandler := NewPostHandler(env.posts, media)
	categoryHandler := NewCategoryHandler(env.categories)
	tagHandler := NewTagHandler(env.tags)

	router := chi.NewRouter()
	router.Route("/api/users", func(r chi.Router) {
		UserRouter(r, userHandler, auth)
	})
	router.Route("/api/posts", func(r chi.Router) {
		PostRouter(r, postHandler, auth, ownership)
	})
	router.Route("/api/category", func(r chi.Router) {
		CategoryRouter(r, categoryHandler, auth, ownership)
	})
	router.Route("/api/tags", func(r chi.Router) {
		TagRouter(r, tagHandler, auth, ownership)
	})

	env.router = router
	return env
}
