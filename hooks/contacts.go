package hooks

import (
	"context"
	"sync"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// ContactStore is the persistence surface the contacts hook needs.
type ContactStore interface {
	ListContacts(ctx context.Context, userID string) ([]domain.Contact, error)
	InsertContact(ctx context.Context, userID string, c domain.Contact) (domain.Contact, error)
	UpdateContact(ctx context.Context, userID, id string, upd domain.ContactUpdate) (domain.Contact, error)
	DeleteContact(ctx context.Context, userID, id string) error
}

// Contacts fetches and mutates the user's contacts, maintaining an in-memory
// mirror for rendering.
type Contacts struct {
	store   ContactStore
	session Session
	notify  Notifier

	mu     sync.Mutex
	mirror []domain.Contact
}

func NewContacts(store ContactStore, session Session, notify Notifier) *Contacts {
	if notify == nil {
		notify = LogNotifier{}
	}
	return &Contacts{store: store, session: session, notify: notify}
}

// Contacts returns a copy of the current mirror.
func (c *Contacts) Contacts() []domain.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Contact, len(c.mirror))
	copy(out, c.mirror)
	return out
}

// Refresh re-fetches the user's contacts, newest first.
func (c *Contacts) Refresh(ctx context.Context) error {
	if c.session.Anonymous() {
		return nil
	}
	contacts, err := c.store.ListContacts(ctx, c.session.UserID)
	if err != nil {
		c.notify.Error("Error", "Failed to fetch contacts")
		return err
	}
	c.mu.Lock()
	c.mirror = contacts
	c.mu.Unlock()
	return nil
}

// Create inserts a contact and prepends it to the mirror.
func (c *Contacts) Create(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	if c.session.Anonymous() {
		return domain.Contact{}, nil
	}
	created, err := c.store.InsertContact(ctx, c.session.UserID, contact)
	if err != nil {
		c.notify.Error("Error", "Failed to create contact")
		return domain.Contact{}, err
	}
	c.mu.Lock()
	c.mirror = append([]domain.Contact{created}, c.mirror...)
	c.mu.Unlock()
	c.notify.Success("Success", "Contact created successfully")
	return created, nil
}

// Update patches the named fields only and replaces the mirror entry. An
// empty patch returns the current mirror entry without a store call.
func (c *Contacts) Update(ctx context.Context, id string, upd domain.ContactUpdate) (domain.Contact, error) {
	if c.session.Anonymous() {
		return domain.Contact{}, nil
	}
	if upd.Empty() {
		return c.mirrorEntry(id), nil
	}
	updated, err := c.store.UpdateContact(ctx, c.session.UserID, id, upd)
	if err != nil {
		c.notify.Error("Error", "Failed to update contact")
		return domain.Contact{}, err
	}
	c.mu.Lock()
	for i := range c.mirror {
		if c.mirror[i].ID == id {
			c.mirror[i] = updated
			break
		}
	}
	c.mu.Unlock()
	return updated, nil
}

func (c *Contacts) mirrorEntry(id string) domain.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, contact := range c.mirror {
		if contact.ID == id {
			return contact
		}
	}
	return domain.Contact{}
}

// Delete removes a contact remotely and from the mirror.
func (c *Contacts) Delete(ctx context.Context, id string) error {
	if c.session.Anonymous() {
		return nil
	}
	if err := c.store.DeleteContact(ctx, c.session.UserID, id); err != nil {
		c.notify.Error("Error", "Failed to delete contact")
		return err
	}
	c.mu.Lock()
	for i := range c.mirror {
		if c.mirror[i].ID == id {
			c.mirror = append(c.mirror[:i], c.mirror[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.notify.Success("Success", "Contact deleted successfully")
	return nil
}
