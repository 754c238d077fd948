package mirror

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// HTTPHandlers serves the read-only query API over the mirrored store plus
// a manual sync trigger. Writes only ever come from sync passes.
type HTTPHandlers struct {
	service *SyncService
	logger  *slog.Logger
}

func NewHTTPHandlers(service *SyncService, logger *slog.Logger) *HTTPHandlers {
	return &HTTPHandlers{service: service, logger: logger}
}

// Register installs all routes on the mux.
func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /status", h.handleStatus)
	mux.HandleFunc("POST /sync", h.handleSync)
	mux.HandleFunc("GET /recipes", h.handleRecipes)
	mux.HandleFunc("GET /recipes/{uid}", h.handleRecipe)
	mux.HandleFunc("GET /meals", h.handleMeals)
	mux.HandleFunc("GET /mealtypes", h.handleMealTypes)
	mux.HandleFunc("GET /menus", h.handleMenus)
	mux.HandleFunc("GET /groceries", h.handleGroceries)
	mux.HandleFunc("GET /grocerylists", h.handleGroceryLists)
	mux.HandleFunc("GET /aisles", h.handleAisles)
	mux.HandleFunc("GET /pantry", h.handlePantry)
	mux.HandleFunc("GET /bookmarks", h.handleBookmarks)
	mux.HandleFunc("GET /categories", h.handleCategories)
}

func (h *HTTPHandlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *HTTPHandlers) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func (h *HTTPHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.pool.Query(r.Context(),
		`SELECT entity_type, position, updated_at FROM sync_progress ORDER BY entity_type`)
	if err != nil {
		h.serverError(w, "load sync status", err)
		return
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[ProgressRecord])
	if err != nil {
		h.serverError(w, "collect sync status", err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *HTTPHandlers) handleSync(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Sync(r.Context())
	if err != nil {
		var integrity *IntegrityError
		var cycle *CycleError
		switch {
		case errors.As(err, &integrity):
			h.writeError(w, http.StatusConflict, "integrity_violation", integrity.Error())
		case errors.As(err, &cycle):
			h.writeError(w, http.StatusConflict, "category_cycle", cycle.Error())
		default:
			h.logger.Error("manual sync failed", "error", err)
			h.writeError(w, http.StatusBadGateway, "sync_failed", err.Error())
		}
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *HTTPHandlers) handleRecipes(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := h.pagination(w, r)
	if !ok {
		return
	}

	query := `
		SELECT uid, name, rating, in_trash, photo_url, created
		FROM recipe
		WHERE (@include_trashed OR NOT in_trash)
			AND (@category = '' OR uid IN (
				SELECT recipe_uid FROM recipe_category WHERE category_uid = @category))
		ORDER BY name, uid
		LIMIT @limit OFFSET @offset`
	rows, err := h.service.pool.Query(r.Context(), query, pgx.NamedArgs{
		"include_trashed": r.URL.Query().Get("trashed") == "true",
		"category":        r.URL.Query().Get("category"),
		"limit":           limit,
		"offset":          offset,
	})
	if err != nil {
		h.serverError(w, "query recipes", err)
		return
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[RecipeSummary])
	if err != nil {
		h.serverError(w, "collect recipes", err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *HTTPHandlers) handleRecipe(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	ctx := r.Context()

	rows, err := h.service.pool.Query(ctx, `
		SELECT uid, name, description, ingredients, directions, notes,
			image_url, in_trash, is_pinned, on_favorites, on_grocery_list,
			photo_url, prep_time, cook_time, total_time, difficulty, rating,
			scale, servings, source, source_url, created
		FROM recipe WHERE uid = $1`, uid)
	if err != nil {
		h.serverError(w, "query recipe", err)
		return
	}
	record, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[RecipeRecord])
	if errors.Is(err, pgx.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "not_found", "no recipe with uid "+uid)
		return
	}
	if err != nil {
		h.serverError(w, "collect recipe", err)
		return
	}
	detail := RecipeDetail{RecipeRecord: record}

	catRows, err := h.service.pool.Query(ctx, `
		SELECT c.uid, c.name, c.order_flag, c.parent_uid
		FROM category c
		JOIN recipe_category rc ON rc.category_uid = c.uid
		WHERE rc.recipe_uid = $1
		ORDER BY c.name`, uid)
	if err != nil {
		h.serverError(w, "query recipe categories", err)
		return
	}
	detail.Categories, err = pgx.CollectRows(catRows, pgx.RowToStructByName[CategoryRecord])
	if err != nil {
		h.serverError(w, "collect recipe categories", err)
		return
	}

	photoRows, err := h.service.pool.Query(ctx, `
		SELECT uid, filename, recipe_uid, order_flag, name
		FROM photo WHERE recipe_uid = $1
		ORDER BY order_flag, uid`, uid)
	if err != nil {
		h.serverError(w, "query recipe photos", err)
		return
	}
	detail.Photos, err = pgx.CollectRows(photoRows, pgx.RowToStructByName[PhotoRecord])
	if err != nil {
		h.serverError(w, "collect recipe photos", err)
		return
	}

	h.writeJSON(w, http.StatusOK, detail)
}

func (h *HTTPHandlers) handleMeals(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := h.pagination(w, r)
	if !ok {
		return
	}
	rows, err := h.service.pool.Query(r.Context(), `
		SELECT uid, recipe_uid, date, meal_type, name, order_flag, type_uid
		FROM meal
		ORDER BY date DESC, order_flag, uid
		LIMIT @limit OFFSET @offset`,
		pgx.NamedArgs{"limit": limit, "offset": offset})
	if err != nil {
		h.serverError(w, "query meals", err)
		return
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[MealRecord])
	if err != nil {
		h.serverError(w, "collect meals", err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *HTTPHandlers) handleMealTypes(w http.ResponseWriter, r *http.Request) {
	listAllRows(h, w, r, `SELECT uid, name, order_flag, color FROM meal_type ORDER BY order_flag, uid`,
		pgx.RowToStructByName[MealTypeRecord])
}

func (h *HTTPHandlers) handleMenus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	menuRows, err := h.service.pool.Query(ctx,
		`SELECT uid, name, notes, order_flag, days FROM menu ORDER BY order_flag, uid`)
	if err != nil {
		h.serverError(w, "query menus", err)
		return
	}
	menus, err := pgx.CollectRows(menuRows, pgx.RowToStructByName[MenuRecord])
	if err != nil {
		h.serverError(w, "collect menus", err)
		return
	}

	itemRows, err := h.service.pool.Query(ctx, `
		SELECT uid, name, order_flag, recipe_uid, menu_uid, type_uid, day
		FROM menu_item ORDER BY day, order_flag, uid`)
	if err != nil {
		h.serverError(w, "query menu items", err)
		return
	}
	items, err := pgx.CollectRows(itemRows, pgx.RowToStructByName[MenuItemRecord])
	if err != nil {
		h.serverError(w, "collect menu items", err)
		return
	}

	byMenu := make(map[string][]MenuItemRecord)
	for _, item := range items {
		byMenu[item.MenuUID] = append(byMenu[item.MenuUID], item)
	}
	details := make([]MenuDetail, len(menus))
	for i, menu := range menus {
		details[i] = MenuDetail{MenuRecord: menu, Items: byMenu[menu.UID]}
	}
	h.writeJSON(w, http.StatusOK, details)
}

func (h *HTTPHandlers) handleGroceries(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.pool.Query(r.Context(), `
		SELECT uid, recipe_uid, name, order_flag, purchased, aisle,
			ingredient, instruction, quantity, aisle_uid, list_uid
		FROM grocery_item
		WHERE (@list = '' OR list_uid = @list)
		ORDER BY order_flag, uid`,
		pgx.NamedArgs{"list": r.URL.Query().Get("list")})
	if err != nil {
		h.serverError(w, "query groceries", err)
		return
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[GroceryItemRecord])
	if err != nil {
		h.serverError(w, "collect groceries", err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *HTTPHandlers) handleGroceryLists(w http.ResponseWriter, r *http.Request) {
	listAllRows(h, w, r, `SELECT uid, name, order_flag, is_default FROM grocery_list ORDER BY order_flag, uid`,
		pgx.RowToStructByName[GroceryListRecord])
}

func (h *HTTPHandlers) handleAisles(w http.ResponseWriter, r *http.Request) {
	listAllRows(h, w, r, `SELECT uid, name, order_flag FROM grocery_aisle ORDER BY order_flag, uid`,
		pgx.RowToStructByName[AisleRecord])
}

func (h *HTTPHandlers) handlePantry(w http.ResponseWriter, r *http.Request) {
	listAllRows(h, w, r, `
		SELECT uid, ingredient, aisle, expiration_date, has_expiration,
			in_stock, purchase_date, quantity, aisle_uid
		FROM pantry_item ORDER BY ingredient, uid`,
		pgx.RowToStructByName[PantryItemRecord])
}

func (h *HTTPHandlers) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	listAllRows(h, w, r, `SELECT uid, title, url, order_flag FROM bookmark ORDER BY order_flag, uid`,
		pgx.RowToStructByName[BookmarkRecord])
}

func (h *HTTPHandlers) handleCategories(w http.ResponseWriter, r *http.Request) {
	listAllRows(h, w, r, `SELECT uid, name, order_flag, parent_uid FROM category ORDER BY name, uid`,
		pgx.RowToStructByName[CategoryRecord])
}

// listAll runs a parameterless query and returns every row.
func listAllRows[T any](h *HTTPHandlers, w http.ResponseWriter, r *http.Request, query string, scan pgx.RowToFunc[T]) {
	rows, err := h.service.pool.Query(r.Context(), query)
	if err != nil {
		h.serverError(w, "query", err)
		return
	}
	records, err := pgx.CollectRows(rows, scan)
	if err != nil {
		h.serverError(w, "collect rows", err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *HTTPHandlers) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("query API failure", "op", op, "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal_error", "query failed")
}

// pagination parses limit/offset query params with sane bounds.
func (h *HTTPHandlers) pagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit = 100
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 1000 {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be 1..1000")
			return 0, 0, false
		}
		limit = v
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "offset must be >= 0")
			return 0, 0, false
		}
		offset = v
	}
	return limit, offset, true
}
