package persistence

import (
	"context"
	"errors"
	"listing-repricer/internal/domain/entities"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(t *testing.T) *entities.Snapshot {
	t.Helper()
	item, err := entities.ParseCatalogItemKey("sub_123")
	require.NoError(t, err)
	listing, err := entities.NewListing("42", item, "UAH", 1, 50)
	require.NoError(t, err)
	listing.RecordApplied(400, 10.5, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	return &entities.Snapshot{
		Listings: map[string]*entities.Listing{"42": listing},
		Settings: entities.DefaultGlobalSettings(),
		SavedAt:  time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC),
	}
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStore(path)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, store.Save(ctx, sampleSnapshot(t)))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded.Listings, "42")
	listing := loaded.Listings["42"]
	assert.Equal(t, entities.CatalogItemBundle, listing.CatalogItem.Kind)
	assert.Equal(t, "123", listing.CatalogItem.ID)
	require.NotNil(t, listing.LastAppliedPrice)
	assert.Equal(t, 10.5, *listing.LastAppliedPrice)
	assert.Equal(t, 6*time.Hour, loaded.Settings.RecheckInterval)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, entities.ErrDataInconsistency)
}

func TestFileStore_SaveNil(t *testing.T) {
	err := NewFileStore(filepath.Join(t.TempDir(), "s.json")).Save(context.Background(), nil)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
}

func TestDecodeSnapshot_MapKeyWins(t *testing.T) {
	snapshot, err := decodeSnapshot([]byte(`{"listings":{"7":{"id":"other","catalog_item":{"kind":"app","id":"1"}},"8":null}}`))
	require.NoError(t, err)
	require.Len(t, snapshot.Listings, 1)
	assert.Equal(t, "7", snapshot.Listings["7"].ID)
}

// mockRedis cubre el subconjunto de comandos que usa RedisStore
type mockRedis struct {
	mock.Mock
}

func (m *mockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	cmd := redis.NewStringCmd(ctx, "get", key)
	if args.Error(1) != nil {
		cmd.SetErr(args.Error(1))
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	if args.Error(0) != nil {
		cmd.SetErr(args.Error(0))
	} else {
		cmd.SetVal("OK")
	}
	return cmd
}

func (m *mockRedis) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	cmd := redis.NewStatusCmd(ctx, "ping")
	if args.Error(0) != nil {
		cmd.SetErr(args.Error(0))
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func (m *mockRedis) Close() error {
	return m.Called().Error(0)
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedis)
	store := NewRedisStore(client, "repricer:")

	var saved []byte
	client.On("Set", ctx, "repricer:snapshot", mock.AnythingOfType("[]uint8"), time.Duration(0)).
		Run(func(args mock.Arguments) { saved = args.Get(2).([]byte) }).
		Return(nil).Once()

	require.NoError(t, store.Save(ctx, sampleSnapshot(t)))
	require.NotEmpty(t, saved)

	client.On("Get", ctx, "repricer:snapshot").Return(string(saved), nil).Once()
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, loaded.Listings, "42")

	client.AssertExpectations(t)
}

func TestRedisStore_LoadMissingKey(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedis)
	client.On("Get", ctx, "p:snapshot").Return("", redis.Nil)

	_, err := NewRedisStore(client, "p:").Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedis)
	boom := errors.New("connection refused")
	client.On("Get", ctx, "snapshot").Return("", boom)
	client.On("Set", ctx, "snapshot", mock.Anything, time.Duration(0)).Return(boom)
	client.On("Ping", ctx).Return(boom)
	client.On("Close").Return(nil)

	store := NewRedisStore(client, "")
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.Save(ctx, sampleSnapshot(t)), boom)
	assert.ErrorIs(t, store.Ping(ctx), boom)
	assert.NoError(t, store.Close())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	snapshot := sampleSnapshot(t)
	require.NoError(t, store.Save(ctx, snapshot))
	snapshot.Listings["42"].MinPrice = 99

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, loaded.Listings["42"].MinPrice, "saved copy is isolated from later mutations")
	assert.Equal(t, 1, store.Saves())
}

func TestPostgresConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  PostgresConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  PostgresConfig{Host: "db", User: "u", Password: "p", Database: "repricer"},
			want: "host=db port=5432 user=u password=p dbname=repricer sslmode=disable",
		},
		{
			name: "explicit",
			cfg:  PostgresConfig{Host: "db", Port: 6543, User: "u", Password: "p", Database: "x", SSLMode: "require"},
			want: "host=db port=6543 user=u password=p dbname=x sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}

func TestFactory_Create(t *testing.T) {
	factory := NewFactory()

	store, err := factory.Create(Config{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = factory.Create(Config{Backend: BackendFile, FilePath: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = factory.Create(Config{Backend: BackendFile})
	assert.Error(t, err)

	_, err = factory.Create(Config{Backend: "mongo"})
	assert.Error(t, err)
}
