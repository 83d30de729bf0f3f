package method

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// Store is the persistence surface the syncer writes through.
type Store interface {
	UpsertContacts(ctx context.Context, userID string, contacts []domain.Contact) error
	InsertSyncRecord(ctx context.Context, userID string, rec domain.SyncRecord) (domain.SyncRecord, error)
	ListSyncRecords(ctx context.Context, userID string) ([]domain.SyncRecord, error)
}

// CRM is the Method CRM surface the syncer calls.
type CRM interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	CreateActivity(ctx context.Context, a Activity) (string, error)
}

// Syncer bridges local Contact/Task records and the Method CRM. It is
// stateless; one instance serves any number of independent invocations.
type Syncer struct {
	crm    CRM
	store  Store
	logger *log.Logger
}

func NewSyncer(crm CRM, store Store, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Syncer{crm: crm, store: store, logger: logger}
}

// SyncContacts pulls every CRM customer and bulk-upserts them as contacts
// keyed on (MethodCRMID, user). It returns the processed count; an empty
// listing is a success with count zero and writes nothing.
func (s *Syncer) SyncContacts(ctx context.Context, userID string) (int, error) {
	s.logger.WithField("user", userID).Info("syncing contacts from method crm")
	customers, err := s.crm.ListCustomers(ctx)
	if err != nil {
		s.logger.WithError(err).Error("sync contacts failed")
		return 0, err
	}
	contacts := make([]domain.Contact, 0, len(customers))
	for _, customer := range customers {
		contact, err := contactFromCustomer(customer)
		if err != nil {
			s.logger.WithError(err).Error("sync contacts failed")
			return 0, err
		}
		contacts = append(contacts, contact)
	}
	if len(contacts) == 0 {
		return 0, nil
	}
	if err := s.store.UpsertContacts(ctx, userID, contacts); err != nil {
		s.logger.WithError(err).Error("storing synced contacts failed")
		return 0, err
	}
	s.logger.WithField("count", len(contacts)).Info("synced contacts from method crm")
	return len(contacts), nil
}

// CreateActivity mirrors a task into the CRM as an Activity and appends one
// audit row for the attempt: "synced" with the external identifier on
// success, "error" with the captured message on any failure. The caller's
// local task creation is never failed by a CRM error.
func (s *Syncer) CreateActivity(ctx context.Context, task domain.Task, userID string) (string, error) {
	s.logger.WithFields(log.Fields{"task": task.ID, "user": userID}).Info("creating activity in method crm")
	recordID, err := s.crm.CreateActivity(ctx, activityFromTask(task))
	if err != nil {
		s.logger.WithError(err).Error("creating method activity failed")
		record := domain.SyncRecord{
			EntityType:   "task",
			EntityID:     task.ID,
			SyncStatus:   domain.SyncError,
			ErrorMessage: err.Error(),
		}
		if _, logErr := s.store.InsertSyncRecord(ctx, userID, record); logErr != nil {
			s.logger.WithError(logErr).Error("recording sync failure failed")
		}
		return "", err
	}
	record := domain.SyncRecord{
		EntityType:  "task",
		EntityID:    task.ID,
		MethodCRMID: recordID,
		SyncStatus:  domain.SyncSynced,
	}
	if _, err := s.store.InsertSyncRecord(ctx, userID, record); err != nil {
		s.logger.WithError(err).Error("recording sync success failed")
	}
	s.logger.WithField("method_id", recordID).Info("activity created in method crm")
	return recordID, nil
}

// SyncStatus returns the user's sync audit rows, newest first.
func (s *Syncer) SyncStatus(ctx context.Context, userID string) ([]domain.SyncRecord, error) {
	return s.store.ListSyncRecords(ctx, userID)
}
