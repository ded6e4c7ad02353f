package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// allScopes lets a test transaction write every collection.
var allScopes = types.SchemaV1.Names()

func write(t *testing.T, b *Backend, fn func(ctx context.Context, tx *Tx) error) error {
	t.Helper()
	ctx := context.Background()
	return b.Write(ctx, allScopes, func(tx *Tx) error { return fn(ctx, tx) })
}

func read(t *testing.T, b *Backend, fn func(ctx context.Context, tx *Tx)) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Read(ctx, func(tx *Tx) error {
		fn(ctx, tx)
		return nil
	}))
}

func TestBinders(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "insert assigns id and canonicalizes overlay",
			check: func(t *testing.T, b *Backend) {
				binder := &types.Binder{
					Author:     "ana",
					IsFavorite: true,
					Properties: types.Properties{"en-us": {"title": "Home"}},
				}
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.InsertBinder(ctx, binder)
				}))
				assert.NotEmpty(t, binder.ID)

				read(t, b, func(ctx context.Context, tx *Tx) {
					got, err := tx.GetBinder(ctx, binder.ID)
					require.NoError(t, err)
					require.NotNil(t, got)
					assert.True(t, got.IsFavorite)
					assert.Equal(t, types.Properties{"en-US": {"title": "Home"}}, got.Properties)
					assert.Empty(t, got.Pictograms)
					assert.Empty(t, got.Users)
				})
			},
		},
		{
			name: "get missing returns nil",
			check: func(t *testing.T, b *Backend) {
				read(t, b, func(ctx context.Context, tx *Tx) {
					got, err := tx.GetBinder(ctx, "nope")
					assert.NoError(t, err)
					assert.Nil(t, got)
					list, err := tx.ListBinders(ctx)
					assert.NoError(t, err)
					assert.NotNil(t, list)
					assert.Empty(t, list)
				})
			},
		},
		{
			name: "duplicate explicit id is a uniqueness violation",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.InsertBinder(ctx, &types.Binder{ID: "b1", Author: "ana"})
				}))
				err := write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.InsertBinder(ctx, &types.Binder{ID: "b1", Author: "bob"})
				})
				assert.ErrorIs(t, err, types.ErrUniquenessViolation)
			},
		},
		{
			name: "colliding language tags are a uniqueness violation",
			check: func(t *testing.T, b *Backend) {
				err := write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.InsertBinder(ctx, &types.Binder{
						Author: "ana",
						Properties: types.Properties{
							"en-US": {"title": "Home"},
							"en-us": {"title": "House"},
						},
					})
				})
				assert.ErrorIs(t, err, types.ErrUniquenessViolation)
			},
		},
		{
			name: "missing author is a validation error",
			check: func(t *testing.T, b *Backend) {
				err := write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.InsertBinder(ctx, &types.Binder{})
				})
				assert.ErrorIs(t, err, types.ErrValidation)
			},
		},
		{
			name: "update replaces scalars and overlay",
			check: func(t *testing.T, b *Backend) {
				binder := &types.Binder{Author: "ana", Properties: types.Properties{"en-US": {"title": "Home"}}}
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.InsertBinder(ctx, binder)
				}))
				binder.Image = "home.png"
				binder.Properties = types.Properties{"fr-FR": {"title": "Maison"}}
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.UpdateBinder(ctx, binder)
				}))
				read(t, b, func(ctx context.Context, tx *Tx) {
					got, err := tx.GetBinder(ctx, binder.ID)
					require.NoError(t, err)
					assert.Equal(t, "home.png", got.Image)
					assert.Equal(t, types.Properties{"fr-FR": {"title": "Maison"}}, got.Properties)
				})
			},
		},
		{
			name: "update missing is not found",
			check: func(t *testing.T, b *Backend) {
				err := write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.UpdateBinder(ctx, &types.Binder{ID: "nope", Author: "ana"})
				})
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "list by author",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					for _, author := range []string{"ana", "bob", "ana"} {
						if err := tx.InsertBinder(ctx, &types.Binder{Author: author}); err != nil {
							return err
						}
					}
					return nil
				}))
				read(t, b, func(ctx context.Context, tx *Tx) {
					list, err := tx.ListBindersByAuthor(ctx, "ana")
					require.NoError(t, err)
					assert.Len(t, list, 2)
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, newTestBackend(t))
		})
	}
}

func TestPictogramsAndEdges(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend, binderID string)
	}{
		{
			name: "insert requires an existing binder",
			check: func(t *testing.T, b *Backend, _ string) {
				err := write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.InsertPictogram(ctx, &types.Pictogram{Binder: "ghost"})
				})
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "insert requires existing categories",
			check: func(t *testing.T, b *Backend, binderID string) {
				err := write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.InsertPictogram(ctx, &types.Pictogram{Binder: binderID, Categories: []string{"ghost"}})
				})
				assert.ErrorIs(t, err, types.ErrNotFound)
				read(t, b, func(ctx context.Context, tx *Tx) {
					list, err := tx.ListPictograms(ctx)
					require.NoError(t, err)
					assert.Empty(t, list, "failed insert leaves no row")
				})
			},
		},
		{
			name: "categories on create become edges visible from both sides",
			check: func(t *testing.T, b *Backend, binderID string) {
				c := &types.Category{}
				p := &types.Pictogram{Binder: binderID, Properties: types.Properties{"en-US": {"text": "eat"}}}
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					if err := tx.InsertCategory(ctx, c); err != nil {
						return err
					}
					p.Categories = []string{c.ID, c.ID}
					return tx.InsertPictogram(ctx, p)
				}))
				read(t, b, func(ctx context.Context, tx *Tx) {
					gotP, err := tx.GetPictogram(ctx, p.ID)
					require.NoError(t, err)
					assert.Equal(t, []string{c.ID}, gotP.Categories)
					gotC, err := tx.GetCategory(ctx, c.ID)
					require.NoError(t, err)
					assert.Equal(t, []string{p.ID}, gotC.Pictograms)
					gotB, err := tx.GetBinder(ctx, binderID)
					require.NoError(t, err)
					assert.Equal(t, []string{p.ID}, gotB.Pictograms)
				})
			},
		},
		{
			name: "duplicate edge is a uniqueness violation",
			check: func(t *testing.T, b *Backend, binderID string) {
				c := &types.Category{}
				p := &types.Pictogram{Binder: binderID}
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					if err := tx.InsertCategory(ctx, c); err != nil {
						return err
					}
					if err := tx.InsertPictogram(ctx, p); err != nil {
						return err
					}
					return tx.InsertCategoryPictogram(ctx, c.ID, p.ID)
				}))
				err := write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.InsertCategoryPictogram(ctx, c.ID, p.ID)
				})
				assert.ErrorIs(t, err, types.ErrUniquenessViolation)
			},
		},
		{
			name: "binder pictograms follow display order",
			check: func(t *testing.T, b *Backend, binderID string) {
				var ids []string
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					for _, order := range []int{2, 0, 1} {
						p := &types.Pictogram{Binder: binderID, Order: order}
						if err := tx.InsertPictogram(ctx, p); err != nil {
							return err
						}
						ids = append(ids, p.ID)
					}
					return nil
				}))
				read(t, b, func(ctx context.Context, tx *Tx) {
					got, err := tx.PictogramIDsByBinder(ctx, binderID)
					require.NoError(t, err)
					assert.Equal(t, []string{ids[1], ids[2], ids[0]}, got)
				})
			},
		},
		{
			name: "update ignores binder and categories",
			check: func(t *testing.T, b *Backend, binderID string) {
				p := &types.Pictogram{Binder: binderID}
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.InsertPictogram(ctx, p)
				}))
				p.Binder = "elsewhere"
				p.Categories = []string{"ghost"}
				p.Sound = "yum.mp3"
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					return tx.UpdatePictogram(ctx, p)
				}))
				read(t, b, func(ctx context.Context, tx *Tx) {
					got, err := tx.GetPictogram(ctx, p.ID)
					require.NoError(t, err)
					assert.Equal(t, binderID, got.Binder)
					assert.Empty(t, got.Categories)
					assert.Equal(t, "yum.mp3", got.Sound)
				})
			},
		},
		{
			name: "set binder moves between binders",
			check: func(t *testing.T, b *Backend, binderID string) {
				other := &types.Binder{Author: "bob"}
				p := &types.Pictogram{Binder: binderID}
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					if err := tx.InsertBinder(ctx, other); err != nil {
						return err
					}
					return tx.InsertPictogram(ctx, p)
				}))
				var from string
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					var err error
					from, err = tx.SetPictogramBinder(ctx, p.ID, other.ID)
					return err
				}))
				assert.Equal(t, binderID, from)
				err := write(t, b, func(ctx context.Context, tx *Tx) error {
					_, err := tx.SetPictogramBinder(ctx, p.ID, "ghost")
					return err
				})
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "deleting a row with edges is refused by foreign keys",
			check: func(t *testing.T, b *Backend, binderID string) {
				c := &types.Category{}
				p := &types.Pictogram{Binder: binderID}
				require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
					if err := tx.InsertCategory(ctx, c); err != nil {
						return err
					}
					p.Categories = []string{c.ID}
					return tx.InsertPictogram(ctx, p)
				}))
				err := write(t, b, func(ctx context.Context, tx *Tx) error {
					_, err := tx.DeleteCategoryRow(ctx, c.ID)
					return err
				})
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBackend(t)
			binder := &types.Binder{Author: "ana"}
			require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
				return tx.InsertBinder(ctx, binder)
			}))
			tt.check(t, b, binder.ID)
		})
	}
}

func TestUsers(t *testing.T) {
	b := newTestBackend(t)
	u := &types.User{Name: "Ana", Email: "Ana@Example.com", Role: types.RoleAdmin,
		Settings: map[string]any{"voice": "f1"}}
	require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
		return tx.InsertUser(ctx, u)
	}))
	assert.Equal(t, "ana@example.com", u.Email)

	err := write(t, b, func(ctx context.Context, tx *Tx) error {
		return tx.InsertUser(ctx, &types.User{Email: "ANA@example.com", Role: types.RoleUser})
	})
	assert.ErrorIs(t, err, types.ErrUniquenessViolation)

	read(t, b, func(ctx context.Context, tx *Tx) {
		all, err := tx.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		got, err := tx.UserByEmail(ctx, "ana@EXAMPLE.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, map[string]any{"voice": "f1"}, got.Settings)
	})

	other := &types.User{Email: "bob@example.com", Role: types.RoleGuest}
	binder := &types.Binder{Author: u.ID}
	require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
		if err := tx.InsertUser(ctx, other); err != nil {
			return err
		}
		if err := tx.InsertBinder(ctx, binder); err != nil {
			return err
		}
		return tx.InsertBinderUser(ctx, binder.ID, other.ID)
	}))

	other.Email = "ana@example.com"
	err = write(t, b, func(ctx context.Context, tx *Tx) error { return tx.UpdateUser(ctx, other) })
	assert.ErrorIs(t, err, types.ErrUniquenessViolation)

	read(t, b, func(ctx context.Context, tx *Tx) {
		got, err := tx.GetUser(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{binder.ID}, got.Binders)
		gotB, err := tx.GetBinder(ctx, binder.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{other.ID}, gotB.Users)
	})

	err = write(t, b, func(ctx context.Context, tx *Tx) error {
		return tx.InsertUser(ctx, &types.User{Email: "not-an-email", Role: types.RoleUser})
	})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestProperties(t *testing.T) {
	b := newTestBackend(t)
	c := &types.Category{}
	require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
		return tx.InsertCategory(ctx, c)
	}))

	require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
		return tx.AddProperty(ctx, types.EntityCategory, c.ID, "fr-fr", "title", "Nourriture")
	}))
	err := write(t, b, func(ctx context.Context, tx *Tx) error {
		return tx.AddProperty(ctx, types.EntityCategory, c.ID, "fr-FR", "title", "Repas")
	})
	assert.ErrorIs(t, err, types.ErrUniquenessViolation)

	err = write(t, b, func(ctx context.Context, tx *Tx) error {
		return tx.AddProperty(ctx, types.EntityCategory, "ghost", "fr-FR", "title", "x")
	})
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = write(t, b, func(ctx context.Context, tx *Tx) error {
		return tx.AddProperty(ctx, types.EntityCategory, c.ID, "not a tag!", "title", "x")
	})
	assert.ErrorIs(t, err, types.ErrValidation)

	require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
		return tx.SetProperty(ctx, types.EntityCategory, c.ID, "fr-FR", "title", "Repas")
	}))
	read(t, b, func(ctx context.Context, tx *Tx) {
		props, err := tx.LoadProperties(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, types.Properties{"fr-FR": {"title": "Repas"}}, props)
	})

	var deleted bool
	require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
		var err error
		deleted, err = tx.DeleteProperty(ctx, c.ID, "fr-fr", "title")
		return err
	}))
	assert.True(t, deleted)
	read(t, b, func(ctx context.Context, tx *Tx) {
		props, err := tx.LoadProperties(ctx, c.ID)
		require.NoError(t, err)
		assert.Nil(t, props)
	})
}

func TestHistory(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, write(t, b, func(ctx context.Context, tx *Tx) error {
		for _, action := range []string{types.ActionCreate, types.ActionUpdate} {
			if err := tx.InsertHistory(ctx, &types.History{
				EntityType:  types.EntityBinder,
				EntityID:    "b1",
				Action:      action,
				PerformedBy: "ana",
				Changes:     map[string]types.FieldChange{"author": {To: "ana"}},
			}); err != nil {
				return err
			}
		}
		return tx.InsertHistory(ctx, &types.History{EntityType: types.EntityUser, EntityID: "u1", Action: types.ActionCreate})
	}))

	read(t, b, func(ctx context.Context, tx *Tx) {
		entries, err := tx.ListHistory(ctx, HistoryFilter{EntityID: "b1"})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, types.ActionUpdate, entries[0].Action, "newest first")
		assert.Equal(t, "ana", entries[0].Changes["author"].To)

		all, err := tx.ListHistory(ctx, HistoryFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, all, 1)

		got, err := tx.GetHistory(ctx, entries[1].ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, types.ActionCreate, got.Action)
	})

	err := write(t, b, func(ctx context.Context, tx *Tx) error {
		return tx.InsertHistory(ctx, &types.History{EntityType: types.EntityBinder})
	})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestSettingsKV(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	kv := b.SettingsKV()

	_, found, err := kv.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Put(ctx, "theme", []byte(`{"mode":"light"}`)))
	require.NoError(t, kv.Put(ctx, "theme", []byte(`{"mode":"dark"}`)))
	value, found, err := kv.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"mode":"dark"}`, string(value))

	keys, err := kv.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"theme"}, keys)

	deleted, err := kv.Delete(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = kv.Delete(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, deleted)
}
