package mirror

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Syfaro/paprika-go/paprika"
)

func newBookmarkHandler() entityHandler {
	return &collection[paprika.Bookmark]{
		kind:   KindBookmarks,
		policy: DeleteOnOmission,
		table:  "bookmark",
		fetch: func(ctx context.Context, src Source) ([]paprika.Bookmark, error) {
			return src.Bookmarks(ctx)
		},
		upsert: func(ctx context.Context, tx pgx.Tx, b paprika.Bookmark) error {
			_, err := tx.Exec(ctx, `
				INSERT INTO bookmark (uid, title, url, order_flag, fingerprint)
				VALUES (@uid, @title, @url, @order_flag, @fingerprint)
				ON CONFLICT (uid) DO UPDATE SET
					title = EXCLUDED.title,
					url = EXCLUDED.url,
					order_flag = EXCLUDED.order_flag,
					fingerprint = EXCLUDED.fingerprint`,
				pgx.NamedArgs{
					"uid":         b.UID,
					"title":       b.Title,
					"url":         b.URL,
					"order_flag":  b.OrderFlag,
					"fingerprint": b.Fingerprint(),
				})
			return err
		},
	}
}
