package mirror

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Syfaro/paprika-go/paprika"
)

// fakeSource is an in-memory Source whose collections tests mutate between
// passes. Bumping a status position marks the collection stale.
type fakeSource struct {
	mu      sync.Mutex
	status  map[string]int64
	recipes map[string]*paprika.Recipe

	photos             []paprika.Photo
	meals              []paprika.Meal
	mealTypes          []paprika.MealType
	menus              []paprika.Menu
	menuItems          []paprika.MenuItem
	groceries          []paprika.GroceryItem
	aisles             []paprika.Aisle
	groceryLists       []paprika.GroceryList
	groceryIngredients []paprika.GroceryIngredient
	pantry             []paprika.PantryItem
	bookmarks          []paprika.Bookmark
	categories         []paprika.Category
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		status:  map[string]int64{},
		recipes: map[string]*paprika.Recipe{},
	}
}

func (f *fakeSource) bump(kinds ...Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range kinds {
		f.status[string(k)]++
	}
}

func (f *fakeSource) Status(ctx context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64, len(f.status))
	for k, v := range f.status {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSource) Recipes(ctx context.Context) ([]paprika.RecipeHash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var hashes []paprika.RecipeHash
	for uid, r := range f.recipes {
		hashes = append(hashes, paprika.RecipeHash{UID: uid, Hash: r.Hash})
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i].UID < hashes[j].UID })
	return hashes, nil
}

func (f *fakeSource) Recipe(ctx context.Context, uid string) (*paprika.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipes[uid]
	if !ok {
		return nil, fmt.Errorf("no recipe %s", uid)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeSource) Photos(ctx context.Context) ([]paprika.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.Photo(nil), f.photos...), nil
}

func (f *fakeSource) Meals(ctx context.Context) ([]paprika.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.Meal(nil), f.meals...), nil
}

func (f *fakeSource) MealTypes(ctx context.Context) ([]paprika.MealType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.MealType(nil), f.mealTypes...), nil
}

func (f *fakeSource) Menus(ctx context.Context) ([]paprika.Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.Menu(nil), f.menus...), nil
}

func (f *fakeSource) MenuItems(ctx context.Context) ([]paprika.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.MenuItem(nil), f.menuItems...), nil
}

func (f *fakeSource) Groceries(ctx context.Context) ([]paprika.GroceryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.GroceryItem(nil), f.groceries...), nil
}

func (f *fakeSource) Aisles(ctx context.Context) ([]paprika.Aisle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.Aisle(nil), f.aisles...), nil
}

func (f *fakeSource) GroceryLists(ctx context.Context) ([]paprika.GroceryList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.GroceryList(nil), f.groceryLists...), nil
}

func (f *fakeSource) GroceryIngredients(ctx context.Context) ([]paprika.GroceryIngredient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.GroceryIngredient(nil), f.groceryIngredients...), nil
}

func (f *fakeSource) Pantry(ctx context.Context) ([]paprika.PantryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.PantryItem(nil), f.pantry...), nil
}

func (f *fakeSource) Bookmarks(ctx context.Context) ([]paprika.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.Bookmark(nil), f.bookmarks...), nil
}

func (f *fakeSource) Categories(ctx context.Context) ([]paprika.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]paprika.Category(nil), f.categories...), nil
}

// newTestPool creates a pool scoped to a throwaway schema so parallel test
// runs never collide.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test, skipped in short mode")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	schema := "mirror_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)
	require.NoError(t, admin.Close(ctx))

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		admin, err := pgx.Connect(context.Background(), dsn)
		if err != nil {
			t.Logf("cleanup connect: %v", err)
			return
		}
		defer admin.Close(context.Background())
		if _, err := admin.Exec(context.Background(),
			"DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE"); err != nil {
			t.Logf("cleanup drop schema: %v", err)
		}
	})
	return pool
}

func newTestService(t *testing.T, pool *pgxpool.Pool, src Source) *SyncService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewSyncService(context.Background(), pool, src, &ServiceConfig{Logger: logger})
	require.NoError(t, err)
	return svc
}

// seedAccount fills the fake source with one coherent account: a recipe in
// a category with a photo, a meal plan, a menu, and a grocery list.
func seedAccount(src *fakeSource) {
	src.categories = []paprika.Category{
		{UID: "cat-1", OrderFlag: 1, Name: "Dinner"},
	}
	src.recipes["recipe-1"] = &paprika.Recipe{
		UID:         "recipe-1",
		Name:        "Mushroom Risotto",
		Ingredients: "rice\nmushrooms",
		Directions:  "stir",
		Notes:       "",
		Hash:        "hash-1",
		Rating:      4,
		Created:     paprika.NewTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		Categories:  []string{"cat-1"},
	}
	src.photos = []paprika.Photo{
		{UID: "photo-1", Filename: "a.jpg", RecipeUID: "recipe-1", OrderFlag: 1, Name: "plated", Hash: "ph-1"},
	}
	src.mealTypes = []paprika.MealType{
		{UID: "type-1", Name: "Dinner", OrderFlag: 1, Color: "#ff0000"},
	}
	src.meals = []paprika.Meal{
		{UID: "meal-1", RecipeUID: ptr("recipe-1"), Date: paprika.NewTime(time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)), MealType: 2, Name: "Mushroom Risotto", OrderFlag: 0, TypeUID: "type-1"},
	}
	src.menus = []paprika.Menu{
		{UID: "menu-1", Name: "Week 1", Notes: "", OrderFlag: 1, Days: 7},
	}
	src.menuItems = []paprika.MenuItem{
		{UID: "mi-1", Name: "Mushroom Risotto", OrderFlag: 1, RecipeUID: "recipe-1", MenuUID: "menu-1", TypeUID: "type-1", Day: 0},
	}
	src.aisles = []paprika.Aisle{
		{UID: "aisle-1", Name: "Produce", OrderFlag: 1},
	}
	src.groceryLists = []paprika.GroceryList{
		{UID: "list-1", Name: "Weekly", OrderFlag: 1, IsDefault: true},
	}
	src.groceryIngredients = []paprika.GroceryIngredient{
		{UID: "gi-1", Name: "Mushrooms", AisleUID: ptr("aisle-1")},
	}
	src.groceries = []paprika.GroceryItem{
		{UID: "g-1", Name: "Mushrooms", OrderFlag: 1, Aisle: "Produce", Ingredient: "Mushrooms", Instruction: "", Quantity: "200g", AisleUID: "aisle-1", ListUID: "list-1"},
		{UID: "g-2", Name: "Rice", OrderFlag: 2, Aisle: "Produce", Ingredient: "Rice", Instruction: "", Quantity: "1 cup", AisleUID: "aisle-1", ListUID: "list-1"},
		{UID: "g-3", Name: "Stock", OrderFlag: 3, Aisle: "Produce", Ingredient: "Stock", Instruction: "", Quantity: "1l", AisleUID: "aisle-1", ListUID: "list-1"},
	}
	src.pantry = []paprika.PantryItem{
		{UID: "p-1", Ingredient: "Rice", Aisle: "Produce", HasExpiration: false, InStock: true, PurchaseDate: paprika.NewTime(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)), Quantity: "2kg", AisleUID: "aisle-1"},
	}
	src.bookmarks = []paprika.Bookmark{
		{UID: "b-1", Title: "Serious Eats", URL: "https://example.com", OrderFlag: 1},
	}
	for _, kind := range AllKinds {
		src.status[string(kind)] = 1
	}
}

func ptr[T any](v T) *T { return &v }

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	err := pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestSyncPassMirrorsFullAccount(t *testing.T) {
	pool := newTestPool(t)
	src := newFakeSource()
	seedAccount(src)
	svc := newTestService(t, pool, src)
	ctx := context.Background()

	report, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, report.Changed())
	assert.Len(t, report.Kinds, len(AllKinds))

	assert.Equal(t, 1, countRows(t, pool, "recipe"))
	assert.Equal(t, 1, countRows(t, pool, "recipe_category"))
	assert.Equal(t, 1, countRows(t, pool, "photo"))
	assert.Equal(t, 1, countRows(t, pool, "meal"))
	assert.Equal(t, 1, countRows(t, pool, "menu_item"))
	assert.Equal(t, 3, countRows(t, pool, "grocery_item"))
	assert.Equal(t, 1, countRows(t, pool, "pantry_item"))
	assert.Equal(t, 1, countRows(t, pool, "bookmark"))

	// Positions advanced with the data they describe.
	positions, err := loadPositions(ctx, pool)
	require.NoError(t, err)
	for _, kind := range AllKinds {
		assert.Equal(t, "1", positions[kind], "position for %s", kind)
	}
}

func TestSyncPassIsIdempotent(t *testing.T) {
	pool := newTestPool(t)
	src := newFakeSource()
	seedAccount(src)
	svc := newTestService(t, pool, src)
	ctx := context.Background()

	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	// Same positions: nothing is stale, nothing is fetched.
	report, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Kinds)

	var idBefore int64
	require.NoError(t, pool.QueryRow(ctx, "SELECT id FROM recipe WHERE uid = 'recipe-1'").Scan(&idBefore))

	// Positions bumped but content identical: everything reclassifies as
	// unchanged, and the surrogate key survives.
	src.bump(AllKinds...)
	report, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, report.Changed())
	for _, k := range report.Kinds {
		assert.Zero(t, k.Inserted, "%s inserted", k.Kind)
		assert.Zero(t, k.Removed, "%s removed", k.Kind)
	}

	var idAfter int64
	require.NoError(t, pool.QueryRow(ctx, "SELECT id FROM recipe WHERE uid = 'recipe-1'").Scan(&idAfter))
	assert.Equal(t, idBefore, idAfter)
}

func TestSyncDetectsContentChangeByFingerprint(t *testing.T) {
	pool := newTestPool(t)
	src := newFakeSource()
	seedAccount(src)
	svc := newTestService(t, pool, src)
	ctx := context.Background()

	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	src.mu.Lock()
	src.recipes["recipe-1"].Rating = 5
	src.recipes["recipe-1"].Hash = "hash-2"
	src.mu.Unlock()
	src.bump(KindRecipes)

	report, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.Len(t, report.Kinds, 1)
	assert.Equal(t, 1, report.Kinds[0].Updated)
	assert.Zero(t, report.Kinds[0].Inserted)

	var rating int32
	require.NoError(t, pool.QueryRow(ctx, "SELECT rating FROM recipe WHERE uid = 'recipe-1'").Scan(&rating))
	assert.EqualValues(t, 5, rating)
}

func TestSyncRemovesOmittedGroceryFromCompleteSnapshot(t *testing.T) {
	pool := newTestPool(t)
	src := newFakeSource()
	seedAccount(src)
	svc := newTestService(t, pool, src)
	ctx := context.Background()

	_, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, countRows(t, pool, "grocery_item"))

	src.mu.Lock()
	src.groceries = []paprika.GroceryItem{src.groceries[0], src.groceries[2]} // drop g-2
	src.mu.Unlock()
	src.bump(KindGroceries)

	report, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.Len(t, report.Kinds, 1)
	assert.Equal(t, 1, report.Kinds[0].Removed)

	rows, err := pool.Query(ctx, "SELECT uid FROM grocery_item ORDER BY uid")
	require.NoError(t, err)
	remaining, err := pgx.CollectRows(rows, pgx.RowTo[string])
	require.NoError(t, err)
	assert.Equal(t, []string{"g-1", "g-3"}, remaining)
}

func TestSyncKeepsTrashedRecipeUntilOmitted(t *testing.T) {
	pool := newTestPool(t)
	src := newFakeSource()
	seedAccount(src)
	svc := newTestService(t, pool, src)
	ctx := context.Background()

	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	// Trashing keeps the row, flagged.
	src.mu.Lock()
	src.recipes["recipe-1"].InTrash = true
	src.recipes["recipe-1"].Hash = "hash-trash"
	src.mu.Unlock()
	src.bump(KindRecipes)

	_, err = svc.Sync(ctx)
	require.NoError(t, err)

	var inTrash bool
	require.NoError(t, pool.QueryRow(ctx, "SELECT in_trash FROM recipe WHERE uid = 'recipe-1'").Scan(&inTrash))
	assert.True(t, inTrash)

	// Dropping it from the feed purges it, and everything hanging off it
	// has to go in the same pass.
	src.mu.Lock()
	delete(src.recipes, "recipe-1")
	src.photos = nil
	src.meals = nil
	src.menuItems = nil
	src.mu.Unlock()
	src.bump(KindRecipes, KindPhotos, KindMeals, KindMenuItems)

	_, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, countRows(t, pool, "recipe"))
	assert.Zero(t, countRows(t, pool, "recipe_category"))
	assert.Zero(t, countRows(t, pool, "photo"))
}

func TestSyncIntegrityViolationRollsBackCluster(t *testing.T) {
	pool := newTestPool(t)
	src := newFakeSource()
	seedAccount(src)
	svc := newTestService(t, pool, src)
	ctx := context.Background()

	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	positionsBefore, err := loadPositions(ctx, pool)
	require.NoError(t, err)

	// A photo pointing at a recipe that exists nowhere.
	src.mu.Lock()
	src.photos = append(src.photos, paprika.Photo{
		UID: "photo-bad", Filename: "x.jpg", RecipeUID: "recipe-missing", OrderFlag: 9, Name: "bad", Hash: "ph-bad",
	})
	src.mu.Unlock()
	src.bump(KindPhotos)

	_, err = svc.Sync(ctx)
	require.Error(t, err)
	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, KindPhotos, integrity.Kind)
	assert.Contains(t, integrity.UIDs, "recipe-missing")

	// Rolled back: no partial write, position untouched so the next pass
	// retries the collection.
	assert.Equal(t, 1, countRows(t, pool, "photo"))
	positionsAfter, err := loadPositions(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, positionsBefore[KindPhotos], positionsAfter[KindPhotos])
}

func TestSyncCategoryCycleRejected(t *testing.T) {
	pool := newTestPool(t)
	src := newFakeSource()
	seedAccount(src)
	svc := newTestService(t, pool, src)
	ctx := context.Background()

	_, err := svc.Sync(ctx)
	require.NoError(t, err)

	src.mu.Lock()
	src.categories = []paprika.Category{
		{UID: "cat-1", OrderFlag: 1, Name: "Dinner", ParentUID: ptr("cat-2")},
		{UID: "cat-2", OrderFlag: 2, Name: "Weeknight", ParentUID: ptr("cat-1")},
	}
	src.mu.Unlock()
	src.bump(KindCategories)

	_, err = svc.Sync(ctx)
	require.Error(t, err)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)

	// The offending batch never committed.
	assert.Equal(t, 1, countRows(t, pool, "category"))
}

func TestSyncCrossKindInsertOrderDoesNotMatter(t *testing.T) {
	pool := newTestPool(t)
	src := newFakeSource()
	svc := newTestService(t, pool, src)
	ctx := context.Background()

	// Children and parents all new in one pass; deferred constraints let
	// the applier write them in registry order regardless of FK direction.
	seedAccount(src)

	report, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, report.Changed())
	assert.Equal(t, 1, countRows(t, pool, "menu_item"))
	assert.Equal(t, 3, countRows(t, pool, "grocery_item"))
}

func TestSyncDuplicatePositionReported(t *testing.T) {
	pool := newTestPool(t)
	src := newFakeSource()
	seedAccount(src)
	src.photos = append(src.photos, paprika.Photo{
		UID: "photo-2", Filename: "b.jpg", RecipeUID: "recipe-1", OrderFlag: 1, Name: "dup", Hash: "ph-2",
	})
	svc := newTestService(t, pool, src)

	report, err := svc.Sync(context.Background())
	require.NoError(t, err)

	var found bool
	for _, a := range report.Anomalies {
		if a.Reason == AnomalyDuplicatePosition && a.Kind == KindPhotos {
			found = true
		}
	}
	assert.True(t, found, "expected duplicate position anomaly, got %v", report.Anomalies)

	// Positions stored exactly as delivered, duplicates included.
	rows, err := pool.Query(context.Background(),
		"SELECT order_flag FROM photo ORDER BY uid")
	require.NoError(t, err)
	flags, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 1}, flags)
}
