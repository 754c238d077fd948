package mirror

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Syfaro/paprika-go/paprika"
)

func newPantryHandler() entityHandler {
	return &collection[paprika.PantryItem]{
		kind:   KindPantry,
		policy: DeleteOnOmission,
		table:  "pantry_item",
		fetch: func(ctx context.Context, src Source) ([]paprika.PantryItem, error) {
			return src.Pantry(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, p paprika.PantryItem) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO pantry_item (
					uid, ingredient, aisle, expiration_date, has_expiration,
					in_stock, purchase_date, quantity, aisle_uid, fingerprint
				) VALUES (
					@uid, @ingredient, @aisle, @expiration_date, @has_expiration,
					@in_stock, @purchase_date, @quantity, @aisle_uid, @fingerprint
				)
				ON CONFLICT (uid) DO UPDATE SET
					ingredient = EXCLUDED.ingredient,
					aisle = EXCLUDED.aisle,
					expiration_date = EXCLUDED.expiration_date,
					has_expiration = EXCLUDED.has_expiration,
					in_stock = EXCLUDED.in_stock,
					purchase_date = EXCLUDED.purchase_date,
					quantity = EXCLUDED.quantity,
					aisle_uid = EXCLUDED.aisle_uid,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":             p.UID,
					"ingredient":      p.Ingredient,
					"aisle":           p.Aisle,
					"expiration_date": p.ExpirationDate,
					"has_expiration":  p.HasExpiration,
					"in_stock":        p.InStock,
					"purchase_date":   p.PurchaseDate,
					"quantity":        p.Quantity,
					"aisle_uid":       p.AisleUID,
					"fingerprint":     p.Fingerprint(),
				})
			return err
		},
	}
}
