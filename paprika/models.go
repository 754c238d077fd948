package paprika

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Entity models for the Paprika v2 sync API. Field order is fixed because
// the canonical-JSON fingerprint depends on it.
//
// Every model carries the source-assigned UID, the only identity that is
// stable across the API and the local store. Cross-entity references are
// always by UID, never by local surrogate key.

// fingerprint hashes the canonical JSON encoding of an entity. Models whose
// feed does not include a content hash (everything except recipes) use this
// as their change-detection fingerprint.
func fingerprint(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Models contain only JSON-encodable fields; a failure here is a
		// programming error, not a data condition.
		panic(fmt.Sprintf("paprika: fingerprint marshal: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RecipeHash is the lightweight entry the /sync/recipes/ feed returns: the
// full recipe body is fetched separately only when the hash changed.
type RecipeHash struct {
	UID  string `json:"uid"`
	Hash string `json:"hash"`
}

func (r RecipeHash) EntityUID() string   { return r.UID }
func (r RecipeHash) Fingerprint() string { return r.Hash }

// Recipe is the full recipe body from /sync/recipe/{uid}/.
type Recipe struct {
	UID           string   `json:"uid"`
	Name          string   `json:"name"`
	Description   *string  `json:"description"`
	Ingredients   string   `json:"ingredients"`
	Directions    string   `json:"directions"`
	Notes         string   `json:"notes"`
	Hash          string   `json:"hash"`
	ImageURL      *string  `json:"image_url"`
	InTrash       bool     `json:"in_trash"`
	IsPinned      bool     `json:"is_pinned"`
	OnFavorites   bool     `json:"on_favorites"`
	OnGroceryList bool     `json:"on_grocery_list"`
	Photo         *string  `json:"photo"`
	PhotoHash     *string  `json:"photo_hash"`
	PhotoLarge    *string  `json:"photo_large"`
	PhotoURL      *string  `json:"photo_url"`
	PrepTime      *string  `json:"prep_time"`
	CookTime      *string  `json:"cook_time"`
	TotalTime     *string  `json:"total_time"`
	Difficulty    *string  `json:"difficulty"`
	Rating        int32    `json:"rating"`
	Scale         *string  `json:"scale"`
	Servings      *string  `json:"servings"`
	Source        *string  `json:"source"`
	SourceURL     *string  `json:"source_url"`
	Created       Time     `json:"created"`
	Categories    []string `json:"categories"`
}

func (r Recipe) EntityUID() string   { return r.UID }
func (r Recipe) Fingerprint() string { return r.Hash }

type Photo struct {
	UID       string `json:"uid"`
	Filename  string `json:"filename"`
	RecipeUID string `json:"recipe_uid"`
	OrderFlag int32  `json:"order_flag"`
	Name      string `json:"name"`
	Hash      string `json:"hash"`
}

func (p Photo) EntityUID() string    { return p.UID }
func (p Photo) Fingerprint() string  { return fingerprint(p) }
func (p Photo) OrderScope() string   { return p.RecipeUID }
func (p Photo) OrderPosition() int32 { return p.OrderFlag }

type Meal struct {
	UID       string  `json:"uid"`
	RecipeUID *string `json:"recipe_uid"`
	Date      Time    `json:"date"`
	MealType  int32   `json:"type"`
	Name      string  `json:"name"`
	OrderFlag int32   `json:"order_flag"`
	TypeUID   string  `json:"type_uid"`
}

func (m Meal) EntityUID() string   { return m.UID }
func (m Meal) Fingerprint() string { return fingerprint(m) }

type MealType struct {
	UID          string `json:"uid"`
	Name         string `json:"name"`
	OrderFlag    int32  `json:"order_flag"`
	Color        string `json:"color"`
	ExportAllDay bool   `json:"export_all_day"`
	ExportTime   int32  `json:"export_time"`
	OriginalType int32  `json:"original_type"`
}

func (m MealType) EntityUID() string    { return m.UID }
func (m MealType) Fingerprint() string  { return fingerprint(m) }
func (m MealType) OrderScope() string   { return "" }
func (m MealType) OrderPosition() int32 { return m.OrderFlag }

type Menu struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	Notes     string `json:"notes"`
	OrderFlag int32  `json:"order_flag"`
	Days      int32  `json:"days"`
}

func (m Menu) EntityUID() string    { return m.UID }
func (m Menu) Fingerprint() string  { return fingerprint(m) }
func (m Menu) OrderScope() string   { return "" }
func (m Menu) OrderPosition() int32 { return m.OrderFlag }

type MenuItem struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	OrderFlag int32  `json:"order_flag"`
	RecipeUID string `json:"recipe_uid"`
	MenuUID   string `json:"menu_uid"`
	TypeUID   string `json:"type_uid"`
	Day       int32  `json:"day"`
}

func (m MenuItem) EntityUID() string    { return m.UID }
func (m MenuItem) Fingerprint() string  { return fingerprint(m) }
func (m MenuItem) OrderScope() string   { return m.MenuUID }
func (m MenuItem) OrderPosition() int32 { return m.OrderFlag }

type GroceryItem struct {
	UID         string  `json:"uid"`
	RecipeUID   *string `json:"recipe_uid"`
	Name        string  `json:"name"`
	OrderFlag   int32   `json:"order_flag"`
	Purchased   bool    `json:"purchased"`
	Aisle       string  `json:"aisle"`
	Ingredient  string  `json:"ingredient"`
	Recipe      *string `json:"recipe"`
	Instruction string  `json:"instruction"`
	Quantity    string  `json:"quantity"`
	Separate    bool    `json:"separate"`
	AisleUID    string  `json:"aisle_uid"`
	ListUID     string  `json:"list_uid"`
}

func (g GroceryItem) EntityUID() string    { return g.UID }
func (g GroceryItem) Fingerprint() string  { return fingerprint(g) }
func (g GroceryItem) OrderScope() string   { return g.ListUID }
func (g GroceryItem) OrderPosition() int32 { return g.OrderFlag }

type Aisle struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	OrderFlag int32  `json:"order_flag"`
}

func (a Aisle) EntityUID() string    { return a.UID }
func (a Aisle) Fingerprint() string  { return fingerprint(a) }
func (a Aisle) OrderScope() string   { return "" }
func (a Aisle) OrderPosition() int32 { return a.OrderFlag }

type GroceryList struct {
	UID           string `json:"uid"`
	Name          string `json:"name"`
	OrderFlag     int32  `json:"order_flag"`
	IsDefault     bool   `json:"is_default"`
	RemindersList string `json:"reminders_list"`
}

func (g GroceryList) EntityUID() string    { return g.UID }
func (g GroceryList) Fingerprint() string  { return fingerprint(g) }
func (g GroceryList) OrderScope() string   { return "" }
func (g GroceryList) OrderPosition() int32 { return g.OrderFlag }

type GroceryIngredient struct {
	UID      string  `json:"uid"`
	Name     string  `json:"name"`
	AisleUID *string `json:"aisle_uid"`
}

func (g GroceryIngredient) EntityUID() string   { return g.UID }
func (g GroceryIngredient) Fingerprint() string { return fingerprint(g) }

type PantryItem struct {
	UID            string `json:"uid"`
	Ingredient     string `json:"ingredient"`
	Aisle          string `json:"aisle"`
	ExpirationDate *Time  `json:"expiration_date"`
	HasExpiration  bool   `json:"has_expiration"`
	InStock        bool   `json:"in_stock"`
	PurchaseDate   Time   `json:"purchase_date"`
	Quantity       string `json:"quantity"`
	AisleUID       string `json:"aisle_uid"`
}

func (p PantryItem) EntityUID() string   { return p.UID }
func (p PantryItem) Fingerprint() string { return fingerprint(p) }

type Bookmark struct {
	UID       string `json:"uid"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	OrderFlag int32  `json:"order_flag"`
}

func (b Bookmark) EntityUID() string    { return b.UID }
func (b Bookmark) Fingerprint() string  { return fingerprint(b) }
func (b Bookmark) OrderScope() string   { return "" }
func (b Bookmark) OrderPosition() int32 { return b.OrderFlag }

type Category struct {
	UID       string  `json:"uid"`
	OrderFlag int32   `json:"order_flag"`
	Name      string  `json:"name"`
	ParentUID *string `json:"parent_uid"`
}

func (c Category) EntityUID() string   { return c.UID }
func (c Category) Fingerprint() string { return fingerprint(c) }
func (c Category) OrderScope() string {
	if c.ParentUID == nil {
		return ""
	}
	return *c.ParentUID
}
func (c Category) OrderPosition() int32 { return c.OrderFlag }
