package mirror

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Syfaro/paprika-go/paprika"
)

func newMenuHandler() entityHandler {
	return &collection[paprika.Menu]{
		kind:   KindMenus,
		policy: DeleteOnOmission,
		table:  "menu",
		fetch: func(ctx context.Context, src Source) ([]paprika.Menu, error) {
			return src.Menus(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, m paprika.Menu) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO menu (uid, name, notes, order_flag, days, fingerprint)
				VALUES (@uid, @name, @notes, @order_flag, @days, @fingerprint)
				ON CONFLICT (uid) DO UPDATE SET
					name = EXCLUDED.name,
					notes = EXCLUDED.notes,
					order_flag = EXCLUDED.order_flag,
					days = EXCLUDED.days,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":         m.UID,
					"name":        m.Name,
					"notes":       m.Notes,
					"order_flag":  m.OrderFlag,
					"days":        m.Days,
					"fingerprint": m.Fingerprint(),
				})
			return err
		},
	}
}

func newMenuItemHandler() entityHandler {
	return &collection[paprika.MenuItem]{
		kind:   KindMenuItems,
		policy: DeleteOnOmission,
		table:  "menu_item",
		fetch: func(ctx context.Context, src Source) ([]paprika.MenuItem, error) {
			return src.MenuItems(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, m paprika.MenuItem) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO menu_item (uid, name, order_flag, recipe_uid, menu_uid, type_uid, day, fingerprint)
				VALUES (@uid, @name, @order_flag, @recipe_uid, @menu_uid, @type_uid, @day, @fingerprint)
				ON CONFLICT (uid) DO UPDATE SET
					name = EXCLUDED.name,
					order_flag = EXCLUDED.order_flag,
					recipe_uid = EXCLUDED.recipe_uid,
					menu_uid = EXCLUDED.menu_uid,
					type_uid = EXCLUDED.type_uid,
					day = EXCLUDED.day,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":         m.UID,
					"name":        m.Name,
					"order_flag":  m.OrderFlag,
					"recipe_uid":  m.RecipeUID,
					"menu_uid":    m.MenuUID,
					"type_uid":    m.TypeUID,
					"day":         m.Day,
					"fingerprint": m.Fingerprint(),
				})
			return err
		},
	}
}
