package types

// SchemaVersion is the only physical layout this module reads and writes.
const SchemaVersion = 1

// Collection names. One physical table per entity type, one for property
// triples, one per relation edge set and one for settings.
const (
	CollectionBinders            = "binders"
	CollectionCategories         = "categories"
	CollectionPictograms         = "pictograms"
	CollectionUsers              = "users"
	CollectionHistory            = "history"
	CollectionProperties         = "properties"
	CollectionCategoryPictograms = "category_pictograms"
	CollectionBinderUsers        = "binder_users"
	CollectionSettings           = "settings"
)

// Constraint names a column set for a unique constraint or an index.
type Constraint struct {
	Name    string
	Columns []string
}

// CollectionSchema declares the keys of one collection.
type CollectionSchema struct {
	Name       string
	PrimaryKey []string
	Unique     []Constraint
	Indexes    []Constraint
}

// Schema is a versioned declaration of collections and their constraints.
type Schema struct {
	Version     int
	Collections []CollectionSchema
}

// Collection returns the declaration for name.
func (s Schema) Collection(name string) (CollectionSchema, bool) {
	for _, c := range s.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return CollectionSchema{}, false
}

// Names returns the collection names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Collections))
	for i, c := range s.Collections {
		names[i] = c.Name
	}
	return names
}

// SchemaV1 is the layout for SchemaVersion 1. Declaration order is
// dependency order: referenced collections come first.
var SchemaV1 = Schema{
	Version: 1,
	Collections: []CollectionSchema{
		{
			Name:       CollectionUsers,
			PrimaryKey: []string{"user_id"},
			Unique:     []Constraint{{Name: "idx_users_email", Columns: []string{"email"}}},
		},
		{
			Name:       CollectionBinders,
			PrimaryKey: []string{"binder_id"},
			Indexes:    []Constraint{{Name: "idx_binders_author", Columns: []string{"author"}}},
		},
		{
			Name:       CollectionCategories,
			PrimaryKey: []string{"category_id"},
		},
		{
			Name:       CollectionPictograms,
			PrimaryKey: []string{"pictogram_id"},
			Indexes:    []Constraint{{Name: "idx_pictograms_binder", Columns: []string{"binder_id"}}},
		},
		{
			Name:       CollectionProperties,
			PrimaryKey: []string{"entity_id", "language", "key"},
			Indexes:    []Constraint{{Name: "idx_properties_language", Columns: []string{"language"}}},
		},
		{
			Name:       CollectionCategoryPictograms,
			PrimaryKey: []string{"category_id", "pictogram_id"},
			Indexes:    []Constraint{{Name: "idx_category_pictograms_pictogram", Columns: []string{"pictogram_id"}}},
		},
		{
			Name:       CollectionBinderUsers,
			PrimaryKey: []string{"binder_id", "user_id"},
			Indexes:    []Constraint{{Name: "idx_binder_users_user", Columns: []string{"user_id"}}},
		},
		{
			Name:       CollectionHistory,
			PrimaryKey: []string{"history_id"},
			Indexes: []Constraint{
				{Name: "idx_history_entity", Columns: []string{"entity_id"}},
				{Name: "idx_history_type", Columns: []string{"entity_type"}},
			},
		},
		{
			Name:       CollectionSettings,
			PrimaryKey: []string{"key"},
		},
	},
}
