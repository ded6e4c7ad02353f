package types

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// Entity type names used by History.EntityType and Delete routing.
const (
	EntityBinder    = "binder"
	EntityCategory  = "category"
	EntityPictogram = "pictogram"
	EntityUser      = "user"
	EntityHistory   = "history"
	EntitySetting   = "setting"
)

// Binder is a communication board: a named collection of pictograms.
type Binder struct {
	ID         string     `json:"id"`
	Author     string     `json:"author"`
	Image      string     `json:"image,omitempty"`
	IsFavorite bool       `json:"isFavorite"`
	Properties Properties `json:"properties,omitempty"`

	// Derived on read.
	Pictograms []string `json:"pictograms,omitempty"`
	Users      []string `json:"users,omitempty"`
}

// Validate checks the fields a caller may set.
func (b *Binder) Validate() error {
	if strings.TrimSpace(b.Author) == "" {
		return fmt.Errorf("%w: binder author must not be empty", ErrValidation)
	}
	return nil
}

// WithoutProperties returns a deep copy with the property bag removed.
func (b *Binder) WithoutProperties() Binder {
	out := *b
	out.Properties = nil
	out.Pictograms = cloneIDs(b.Pictograms)
	out.Users = cloneIDs(b.Users)
	return out
}

// Translations returns the property bag.
func (b *Binder) Translations() Properties { return b.Properties }

// AuditFields flattens the writable fields for history diffs.
func (b *Binder) AuditFields() map[string]string {
	m := map[string]string{
		"author":     b.Author,
		"image":      b.Image,
		"isFavorite": strconv.FormatBool(b.IsFavorite),
	}
	b.Properties.flatten(m)
	return m
}

// Category is a grouping label applied to pictograms.
type Category struct {
	ID         string     `json:"id"`
	Image      string     `json:"image,omitempty"`
	Properties Properties `json:"properties,omitempty"`

	// Derived on read.
	Pictograms []string `json:"pictograms,omitempty"`
}

// Validate checks the fields a caller may set.
func (c *Category) Validate() error { return nil }

// WithoutProperties returns a deep copy with the property bag removed.
func (c *Category) WithoutProperties() Category {
	out := *c
	out.Properties = nil
	out.Pictograms = cloneIDs(c.Pictograms)
	return out
}

// Translations returns the property bag.
func (c *Category) Translations() Properties { return c.Properties }

// AuditFields flattens the writable fields for history diffs.
func (c *Category) AuditFields() map[string]string {
	m := map[string]string{"image": c.Image}
	c.Properties.flatten(m)
	return m
}

// Pictogram is a single communicable concept belonging to one binder.
type Pictogram struct {
	ID         string     `json:"id"`
	Image      string     `json:"image,omitempty"`
	Sound      string     `json:"sound,omitempty"`
	IsFavorite bool       `json:"isFavorite"`
	Order      int        `json:"order"`
	Properties Properties `json:"properties,omitempty"`

	// Binder is required on create; later changes go through MovePictogram.
	Binder string `json:"binder"`
	// Categories is honored on create; later changes go through the engine.
	Categories []string `json:"categories,omitempty"`
}

// Validate checks the fields a caller may set.
func (p *Pictogram) Validate() error {
	if p.Binder == "" {
		return fmt.Errorf("%w: pictogram binder must not be empty", ErrValidation)
	}
	if p.Order < 0 {
		return fmt.Errorf("%w: pictogram order must not be negative", ErrValidation)
	}
	return nil
}

// WithoutProperties returns a deep copy with the property bag removed.
func (p *Pictogram) WithoutProperties() Pictogram {
	out := *p
	out.Properties = nil
	out.Categories = cloneIDs(p.Categories)
	return out
}

// Translations returns the property bag.
func (p *Pictogram) Translations() Properties { return p.Properties }

// AuditFields flattens the writable fields for history diffs.
func (p *Pictogram) AuditFields() map[string]string {
	m := map[string]string{
		"image":      p.Image,
		"sound":      p.Sound,
		"isFavorite": strconv.FormatBool(p.IsFavorite),
		"order":      strconv.Itoa(p.Order),
		"binder":     p.Binder,
	}
	p.Properties.flatten(m)
	return m
}

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuest = "guest"
)

var validRoles = map[string]bool{
	RoleAdmin: true,
	RoleUser:  true,
	RoleGuest: true,
}

// User owns binders. Hash is produced by an external credential collaborator.
type User struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Email    string         `json:"email"`
	Hash     string         `json:"hash,omitempty"`
	Role     string         `json:"role"`
	Settings map[string]any `json:"settings"`

	// Derived on read.
	Binders []string `json:"binders,omitempty"`
}

// Validate checks email syntax and role.
func (u *User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("%w: user email must not be empty", ErrValidation)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: user email %q: %v", ErrValidation, u.Email, err)
	}
	if !validRoles[u.Role] {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, u.Role)
	}
	return nil
}

// NormalizedEmail is the form stored and compared for uniqueness.
func (u *User) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(u.Email))
}

// AuditFields flattens the writable fields for history diffs. The hash is
// recorded only as present or absent.
func (u *User) AuditFields() map[string]string {
	hash := ""
	if u.Hash != "" {
		hash = "set"
	}
	return map[string]string{
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
		"hash":  hash,
	}
}

// History actions.
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionAssign   = "assign"
	ActionUnassign = "unassign"
	ActionMove     = "move"
)

// FieldChange records the before and after value of one field.
type FieldChange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// History is an append-only audit record.
type History struct {
	ID          string                 `json:"id"`
	EntityType  string                 `json:"entityType"`
	EntityID    string                 `json:"entityId"`
	Action      string                 `json:"action"`
	PerformedBy string                 `json:"performedBy"`
	Timestamp   time.Time              `json:"timestamp"`
	Changes     map[string]FieldChange `json:"changes"`
}

// Setting is a validated key/value preference.
type Setting struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
