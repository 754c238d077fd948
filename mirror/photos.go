package mirror

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Syfaro/paprika-go/paprika"
)

func newPhotoHandler() entityHandler {
	return &collection[paprika.Photo]{
		kind:   KindPhotos,
		policy: DeleteOnOmission,
		table:  "photo",
		fetch: func(ctx context.Context, src Source) ([]paprika.Photo, error) {
			return src.Photos(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, p paprika.Photo) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO photo (uid, filename, recipe_uid, order_flag, name, fingerprint)
				VALUES (@uid, @filename, @recipe_uid, @order_flag, @name, @fingerprint)
				ON CONFLICT (uid) DO UPDATE SET
					filename = EXCLUDED.filename,
					recipe_uid = EXCLUDED.recipe_uid,
					order_flag = EXCLUDED.order_flag,
					name = EXCLUDED.name,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":         p.UID,
					"filename":    p.Filename,
					"recipe_uid":  p.RecipeUID,
					"order_flag":  p.OrderFlag,
					"name":        p.Name,
					"fingerprint": p.Fingerprint(),
				})
			return err
		},
	}
}
