package mirror

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Syfaro/paprika-go/paprika"
)

func newGroceryItemHandler() entityHandler {
	return &collection[paprika.GroceryItem]{
		kind:   KindGroceries,
		policy: DeleteOnOmission,
		table:  "grocery_item",
		fetch: func(ctx context.Context, src Source) ([]paprika.GroceryItem, error) {
			return src.Groceries(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, g paprika.GroceryItem) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO grocery_item (
					uid, recipe_uid, name, order_flag, purchased, aisle,
					ingredient, recipe, instruction, quantity, separate,
					aisle_uid, list_uid, fingerprint
				) VALUES (
					@uid, @recipe_uid, @name, @order_flag, @purchased, @aisle,
					@ingredient, @recipe, @instruction, @quantity, @separate,
					@aisle_uid, @list_uid, @fingerprint
				)
				ON CONFLICT (uid) DO UPDATE SET
					recipe_uid = EXCLUDED.recipe_uid,
					name = EXCLUDED.name,
					order_flag = EXCLUDED.order_flag,
					purchased = EXCLUDED.purchased,
					aisle = EXCLUDED.aisle,
					ingredient = EXCLUDED.ingredient,
					recipe = EXCLUDED.recipe,
					instruction = EXCLUDED.instruction,
					quantity = EXCLUDED.quantity,
					separate = EXCLUDED.separate,
					aisle_uid = EXCLUDED.aisle_uid,
					list_uid = EXCLUDED.list_uid,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":         g.UID,
					"recipe_uid":  g.RecipeUID,
					"name":        g.Name,
					"order_flag":  g.OrderFlag,
					"purchased":   g.Purchased,
					"aisle":       g.Aisle,
					"ingredient":  g.Ingredient,
					"recipe":      g.Recipe,
					"instruction": g.Instruction,
					"quantity":    g.Quantity,
					"separate":    g.Separate,
					"aisle_uid":   g.AisleUID,
					"list_uid":    g.ListUID,
					"fingerprint": g.Fingerprint(),
				})
			return err
		},
	}
}

func newAisleHandler() entityHandler {
	return &collection[paprika.Aisle]{
		kind:   KindGroceryAisles,
		policy: DeleteOnOmission,
		table:  "grocery_aisle",
		fetch: func(ctx context.Context, src Source) ([]paprika.Aisle, error) {
			return src.Aisles(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, a paprika.Aisle) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO grocery_aisle (uid, name, order_flag, fingerprint)
				VALUES (@uid, @name, @order_flag, @fingerprint)
				ON CONFLICT (uid) DO UPDATE SET
					name = EXCLUDED.name,
					order_flag = EXCLUDED.order_flag,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":         a.UID,
					"name":        a.Name,
					"order_flag":  a.OrderFlag,
					"fingerprint": a.Fingerprint(),
				})
			return err
		},
	}
}

func newGroceryListHandler() entityHandler {
	return &collection[paprika.GroceryList]{
		kind:   KindGroceryLists,
		policy: DeleteOnOmission,
		table:  "grocery_list",
		fetch: func(ctx context.Context, src Source) ([]paprika.GroceryList, error) {
			return src.GroceryLists(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, l paprika.GroceryList) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO grocery_list (uid, name, order_flag, is_default, reminders_list, fingerprint)
				VALUES (@uid, @name, @order_flag, @is_default, @reminders_list, @fingerprint)
				ON CONFLICT (uid) DO UPDATE SET
					name = EXCLUDED.name,
					order_flag = EXCLUDED.order_flag,
					is_default = EXCLUDED.is_default,
					reminders_list = EXCLUDED.reminders_list,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":            l.UID,
					"name":           l.Name,
					"order_flag":     l.OrderFlag,
					"is_default":     l.IsDefault,
					"reminders_list": l.RemindersList,
					"fingerprint":    l.Fingerprint(),
				})
			return err
		},
	}
}

func newGroceryIngredientHandler() entityHandler {
	return &collection[paprika.GroceryIngredient]{
		kind:   KindGroceryIngredients,
		policy: DeleteOnOmission,
		table:  "grocery_ingredient",
		fetch: func(ctx context.Context, src Source) ([]paprika.GroceryIngredient, error) {
			return src.GroceryIngredients(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, g paprika.GroceryIngredient) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO grocery_ingredient (uid, name, aisle_uid, fingerprint)
				VALUES (@uid, @name, @aisle_uid, @fingerprint)
				ON CONFLICT (uid) DO UPDATE SET
					name = EXCLUDED.name,
					aisle_uid = EXCLUDED.aisle_uid,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":         g.UID,
					"name":        g.Name,
					"aisle_uid":   g.AisleUID,
					"fingerprint": g.Fingerprint(),
				})
			return err
		},
	}
}
