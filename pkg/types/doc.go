// Package types defines the entity shapes, schema declaration, commit events
// and standard errors for the pictoboard entity store.
//
// Relational fields (Pictogram.Binder, Pictogram.Categories,
// Category.Pictograms, Binder.Pictograms, Binder.Users, User.Binders) are
// populated by the store on read. Writes to them go through the
// referential-integrity engine; plain updates ignore them.
package types
