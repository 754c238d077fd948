package mirror

import "github.com/Syfaro/paprika-go/paprika"

// Read-side records returned by the query API. Column names double as db
// tags so pgx.RowToStructByName can scan them directly.

type RecipeSummary struct {
	UID      string       `db:"uid" json:"uid"`
	Name     string       `db:"name" json:"name"`
	Rating   int32        `db:"rating" json:"rating"`
	InTrash  bool         `db:"in_trash" json:"in_trash"`
	PhotoURL *string      `db:"photo_url" json:"photo_url"`
	Created  paprika.Time `db:"created" json:"created"`
}

type RecipeRecord struct {
	UID           string       `db:"uid" json:"uid"`
	Name          string       `db:"name" json:"name"`
	Description   *string      `db:"description" json:"description"`
	Ingredients   string       `db:"ingredients" json:"ingredients"`
	Directions    string       `db:"directions" json:"directions"`
	Notes         string       `db:"notes" json:"notes"`
	ImageURL      *string      `db:"image_url" json:"image_url"`
	InTrash       bool         `db:"in_trash" json:"in_trash"`
	IsPinned      bool         `db:"is_pinned" json:"is_pinned"`
	OnFavorites   bool         `db:"on_favorites" json:"on_favorites"`
	OnGroceryList bool         `db:"on_grocery_list" json:"on_grocery_list"`
	PhotoURL      *string      `db:"photo_url" json:"photo_url"`
	PrepTime      *string      `db:"prep_time" json:"prep_time"`
	CookTime      *string      `db:"cook_time" json:"cook_time"`
	TotalTime     *string      `db:"total_time" json:"total_time"`
	Difficulty    *string      `db:"difficulty" json:"difficulty"`
	Rating        int32        `db:"rating" json:"rating"`
	Scale         *string      `db:"scale" json:"scale"`
	Servings      *string      `db:"servings" json:"servings"`
	Source        *string      `db:"source" json:"source"`
	SourceURL     *string      `db:"source_url" json:"source_url"`
	Created       paprika.Time `db:"created" json:"created"`
}

type RecipeDetail struct {
	RecipeRecord
	Categories []CategoryRecord `json:"categories"`
	Photos     []PhotoRecord    `json:"photos"`
}

type PhotoRecord struct {
	UID       string `db:"uid" json:"uid"`
	Filename  string `db:"filename" json:"filename"`
	RecipeUID string `db:"recipe_uid" json:"recipe_uid"`
	OrderFlag int32  `db:"order_flag" json:"order_flag"`
	Name      string `db:"name" json:"name"`
}

type CategoryRecord struct {
	UID       string  `db:"uid" json:"uid"`
	Name      string  `db:"name" json:"name"`
	OrderFlag int32   `db:"order_flag" json:"order_flag"`
	ParentUID *string `db:"parent_uid" json:"parent_uid"`
}

type MealRecord struct {
	UID       string       `db:"uid" json:"uid"`
	RecipeUID *string      `db:"recipe_uid" json:"recipe_uid"`
	Date      paprika.Time `db:"date" json:"date"`
	MealType  int32        `db:"meal_type" json:"meal_type"`
	Name      string       `db:"name" json:"name"`
	OrderFlag int32        `db:"order_flag" json:"order_flag"`
	TypeUID   string       `db:"type_uid" json:"type_uid"`
}

type MealTypeRecord struct {
	UID       string `db:"uid" json:"uid"`
	Name      string `db:"name" json:"name"`
	OrderFlag int32  `db:"order_flag" json:"order_flag"`
	Color     string `db:"color" json:"color"`
}

type MenuRecord struct {
	UID       string `db:"uid" json:"uid"`
	Name      string `db:"name" json:"name"`
	Notes     string `db:"notes" json:"notes"`
	OrderFlag int32  `db:"order_flag" json:"order_flag"`
	Days      int32  `db:"days" json:"days"`
}

type MenuDetail struct {
	MenuRecord
	Items []MenuItemRecord `json:"items"`
}

type MenuItemRecord struct {
	UID       string `db:"uid" json:"uid"`
	Name      string `db:"name" json:"name"`
	OrderFlag int32  `db:"order_flag" json:"order_flag"`
	RecipeUID string `db:"recipe_uid" json:"recipe_uid"`
	MenuUID   string `db:"menu_uid" json:"menu_uid"`
	TypeUID   string `db:"type_uid" json:"type_uid"`
	Day       int32  `db:"day" json:"day"`
}

type GroceryItemRecord struct {
	UID         string  `db:"uid" json:"uid"`
	RecipeUID   *string `db:"recipe_uid" json:"recipe_uid"`
	Name        string  `db:"name" json:"name"`
	OrderFlag   int32   `db:"order_flag" json:"order_flag"`
	Purchased   bool    `db:"purchased" json:"purchased"`
	Aisle       string  `db:"aisle" json:"aisle"`
	Ingredient  string  `db:"ingredient" json:"ingredient"`
	Instruction string  `db:"instruction" json:"instruction"`
	Quantity    string  `db:"quantity" json:"quantity"`
	AisleUID    string  `db:"aisle_uid" json:"aisle_uid"`
	ListUID     string  `db:"list_uid" json:"list_uid"`
}

type GroceryListRecord struct {
	UID       string `db:"uid" json:"uid"`
	Name      string `db:"name" json:"name"`
	OrderFlag int32  `db:"order_flag" json:"order_flag"`
	IsDefault bool   `db:"is_default" json:"is_default"`
}

type AisleRecord struct {
	UID       string `db:"uid" json:"uid"`
	Name      string `db:"name" json:"name"`
	OrderFlag int32  `db:"order_flag" json:"order_flag"`
}

type PantryItemRecord struct {
	UID            string        `db:"uid" json:"uid"`
	Ingredient     string        `db:"ingredient" json:"ingredient"`
	Aisle          string        `db:"aisle" json:"aisle"`
	ExpirationDate *paprika.Time `db:"expiration_date" json:"expiration_date"`
	HasExpiration  bool          `db:"has_expiration" json:"has_expiration"`
	InStock        bool          `db:"in_stock" json:"in_stock"`
	PurchaseDate   paprika.Time  `db:"purchase_date" json:"purchase_date"`
	Quantity       string        `db:"quantity" json:"quantity"`
	AisleUID       string        `db:"aisle_uid" json:"aisle_uid"`
}

type BookmarkRecord struct {
	UID       string `db:"uid" json:"uid"`
	Title     string `db:"title" json:"title"`
	URL       string `db:"url" json:"url"`
	OrderFlag int32  `db:"order_flag" json:"order_flag"`
}

type ProgressRecord struct {
	EntityType string       `db:"entity_type" json:"entity_type"`
	Position   string       `db:"position" json:"position"`
	UpdatedAt  paprika.Time `db:"updated_at" json:"updated_at"`
}
