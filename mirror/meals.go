package mirror

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Syfaro/paprika-go/paprika"
)

func newMealHandler() entityHandler {
	return &collection[paprika.Meal]{
		kind:   KindMeals,
		policy: DeleteOnOmission,
		table:  "meal",
		fetch: func(ctx context.Context, src Source) ([]paprika.Meal, error) {
			return src.Meals(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, m paprika.Meal) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO meal (uid, recipe_uid, date, meal_type, name, order_flag, type_uid, fingerprint)
				VALUES (@uid, @recipe_uid, @date, @meal_type, @name, @order_flag, @type_uid, @fingerprint)
				ON CONFLICT (uid) DO UPDATE SET
					recipe_uid = EXCLUDED.recipe_uid,
					date = EXCLUDED.date,
					meal_type = EXCLUDED.meal_type,
					name = EXCLUDED.name,
					order_flag = EXCLUDED.order_flag,
					type_uid = EXCLUDED.type_uid,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":         m.UID,
					"recipe_uid":  m.RecipeUID,
					"date":        m.Date,
					"meal_type":   m.MealType,
					"name":        m.Name,
					"order_flag":  m.OrderFlag,
					"type_uid":    m.TypeUID,
					"fingerprint": m.Fingerprint(),
				})
			return err
		},
	}
}

func newMealTypeHandler() entityHandler {
	return &collection[paprika.MealType]{
		kind:   KindMealTypes,
		policy: DeleteOnOmission,
		table:  "meal_type",
		fetch: func(ctx context.Context, src Source) ([]paprika.MealType, error) {
			return src.MealTypes(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, m paprika.MealType) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO meal_type (uid, name, order_flag, color, export_all_day, export_time, original_type, fingerprint)
				VALUES (@uid, @name, @order_flag, @color, @export_all_day, @export_time, @original_type, @fingerprint)
				ON CONFLICT (uid) DO UPDATE SET
					name = EXCLUDED.name,
					order_flag = EXCLUDED.order_flag,
					color = EXCLUDED.color,
					export_all_day = EXCLUDED.export_all_day,
					export_time = EXCLUDED.export_time,
					original_type = EXCLUDED.original_type,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":            m.UID,
					"name":           m.Name,
					"order_flag":     m.OrderFlag,
					"color":          m.Color,
					"export_all_day": m.ExportAllDay,
					"export_time":    m.ExportTime,
					"original_type":  m.OriginalType,
					"fingerprint":    m.Fingerprint(),
				})
			return err
		},
	}
}
