package mirror

import (
	"context"

	"github.com/Syfaro/paprika-go/paprika"
)

// Source is the upstream account being mirrored. *paprika.Client satisfies
// it; tests substitute an in-memory fake.
//
// Every list method returns a complete snapshot of its collection, so
// omission from a result set is an authoritative deletion signal. Status
// returns the per-collection position tokens that gate fetching.
type Source interface {
	Status(ctx context.Context) (map[string]int64, error)

	Recipes(ctx context.Context) ([]paprika.RecipeHash, error)
	Recipe(ctx context.Context, uid string) (*paprika.Recipe, error)
	Photos(ctx context.Context) ([]paprika.Photo, error)
	Meals(ctx context.Context) ([]paprika.Meal, error)
	MealTypes(ctx context.Context) ([]paprika.MealType, error)
	Menus(ctx context.Context) ([]paprika.Menu, error)
	MenuItems(ctx context.Context) ([]paprika.MenuItem, error)
	Groceries(ctx context.Context) ([]paprika.GroceryItem, error)
	Aisles(ctx context.Context) ([]paprika.Aisle, error)
	GroceryLists(ctx context.Context) ([]paprika.GroceryList, error)
	GroceryIngredients(ctx context.Context) ([]paprika.GroceryIngredient, error)
	Pantry(ctx context.Context) ([]paprika.PantryItem, error)
	Bookmarks(ctx context.Context) ([]paprika.Bookmark, error)
	Categories(ctx context.Context) ([]paprika.Category, error)
}
