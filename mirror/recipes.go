package mirror

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Syfaro/paprika-go/paprika"
)

// recipeBodyFetchers caps the concurrent full-body fetches during Prepare.
const recipeBodyFetchers = 8

// recipeHandler syncs in two phases: the list feed carries only (uid, hash)
// pairs, so reconciliation runs on those, and Prepare then pulls the full
// body for every added or changed recipe before the store transaction
// opens. Trashed recipes stay in the feed and in the store, flagged
// in_trash, until the feed drops them entirely.
type recipeHandler struct{}

func newRecipeHandler() *recipeHandler { return &recipeHandler{} }

func (h *recipeHandler) Kind() Kind             { return KindRecipes }
func (h *recipeHandler) Policy() DeletionPolicy { return KeepTrashed }

func (h *recipeHandler) Fetch(ctx context.Context, src Source) ([]Snapshot, error) {
	hashes, err := src.Recipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch recipes: %w", err)
	}
	snaps := make([]Snapshot, len(hashes))
	for i, rh := range hashes {
		snaps[i] = rh
	}
	return snaps, nil
}

func (h *recipeHandler) StoredFingerprints(ctx context.Context, q Queryer) (map[string]string, error) {
	return storedFingerprints(ctx, q, KindRecipes, "recipe")
}

// Prepare replaces the hash-only snapshots in the delta with full recipe
// bodies. Runs before the transaction so the API round trips never hold
// store locks.
func (h *recipeHandler) Prepare(ctx context.Context, src Source, d *Delta) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recipeBodyFetchers)

	// Each goroutine writes its own slice element, so no locking is needed.
	fetchInto := func(snaps []Snapshot, i int) {
		uid := snaps[i].EntityUID()
		g.Go(func() error {
			recipe, err := src.Recipe(gctx, uid)
			if err != nil {
				return fmt.Errorf("fetch recipe %s: %w", uid, err)
			}
			snaps[i] = recipe
			return nil
		})
	}
	for i := range d.Insert {
		fetchInto(d.Insert, i)
	}
	for i := range d.Update {
		fetchInto(d.Update, i)
	}
	return g.Wait()
}

func (h *recipeHandler) Upsert(ctx context.Context, tx pgx.Tx, snap Snapshot) error {
	recipe, ok := snap.(*paprika.Recipe)
	if !ok {
		return fmt.Errorf("upsert recipes: unexpected snapshot type %T", snap)
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO recipe (
			uid, name, description, ingredients, directions, notes,
			fingerprint, image_url, in_trash, is_pinned, on_favorites,
			on_grocery_list, photo, photo_hash, photo_large, photo_url,
			prep_time, cook_time, total_time, difficulty, rating, scale,
			servings, source, source_url, created
		) VALUES (
			@uid, @name, @description, @ingredients, @directions, @notes,
			@fingerprint, @image_url, @in_trash, @is_pinned, @on_favorites,
			@on_grocery_list, @photo, @photo_hash, @photo_large, @photo_url,
			@prep_time, @cook_time, @total_time, @difficulty, @rating, @scale,
			@servings, @source, @source_url, @created
		)
		ON CONFLICT (uid) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			ingredients = EXCLUDED.ingredients,
			directions = EXCLUDED.directions,
			notes = EXCLUDED.notes,
			fingerprint = EXCLUDED.fingerprint,
			image_url = EXCLUDED.image_url,
			in_trash = EXCLUDED.in_trash,
			is_pinned = EXCLUDED.is_pinned,
			on_favorites = EXCLUDED.on_favorites,
			on_grocery_list = EXCLUDED.on_grocery_list,
			photo = EXCLUDED.photo,
			photo_hash = EXCLUDED.photo_hash,
			photo_large = EXCLUDED.photo_large,
			photo_url = EXCLUDED.photo_url,
			prep_time = EXCLUDED.prep_time,
			cook_time = EXCLUDED.cook_time,
			total_time = EXCLUDED.total_time,
			difficulty = EXCLUDED.difficulty,
			rating = EXCLUDED.rating,
			scale = EXCLUDED.scale,
			servings = EXCLUDED.servings,
			source = EXCLUDED.source,
			source_url = EXCLUDED.source_url,
			created = EXCLUDED.created`,
		pgx.NamedArgs{
			"uid":             recipe.UID,
			"name":            recipe.Name,
			"description":     recipe.Description,
			"ingredients":     recipe.Ingredients,
			"directions":      recipe.Directions,
			"notes":           recipe.Notes,
			"fingerprint":     recipe.Hash,
			"image_url":       recipe.ImageURL,
			"in_trash":        recipe.InTrash,
			"is_pinned":       recipe.IsPinned,
			"on_favorites":    recipe.OnFavorites,
			"on_grocery_list": recipe.OnGroceryList,
			"photo":           recipe.Photo,
			"photo_hash":      recipe.PhotoHash,
			"photo_large":     recipe.PhotoLarge,
			"photo_url":       recipe.PhotoURL,
			"prep_time":       recipe.PrepTime,
			"cook_time":       recipe.CookTime,
			"total_time":      recipe.TotalTime,
			"difficulty":      recipe.Difficulty,
			"rating":          recipe.Rating,
			"scale":           recipe.Scale,
			"servings":        recipe.Servings,
			"source":          recipe.Source,
			"source_url":      recipe.SourceURL,
			"created":         recipe.Created,
		})
	if err != nil {
		return fmt.Errorf("upsert recipe %s: %w", recipe.UID, err)
	}
	return h.replaceCategories(ctx, tx, recipe)
}

// replaceCategories rewrites the recipe's category memberships. References
// point at category uids that may only arrive later in the same
// transaction; deferred constraint checking covers that.
func (h *recipeHandler) replaceCategories(ctx context.Context, tx pgx.Tx, recipe *paprika.Recipe) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM recipe_category WHERE recipe_uid = $1`, recipe.UID); err != nil {
		return fmt.Errorf("clear categories for recipe %s: %w", recipe.UID, err)
	}
	for _, categoryUID := range recipe.Categories {
		if _, err := tx.Exec(ctx, `
			INSERT INTO recipe_category (recipe_uid, category_uid)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			recipe.UID, categoryUID); err != nil {
			return fmt.Errorf("link recipe %s to category %s: %w", recipe.UID, categoryUID, err)
		}
	}
	return nil
}

func (h *recipeHandler) Delete(ctx context.Context, tx pgx.Tx, uid string) error {
	// recipe_category rows go via ON DELETE CASCADE.
	return deleteByUID(ctx, tx, KindRecipes, "recipe", uid)
}
