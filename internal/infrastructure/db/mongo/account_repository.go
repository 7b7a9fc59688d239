package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mindmate/companion-api/internal/core/domain"
)

// AccountRepository implements ports.AccountRepository. The tokens field is
// written only on insert; afterwards LedgerRepository owns it.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(collectionAccounts)}
}

type accountDoc struct {
	ID              primitive.ObjectID      `bson:"_id,omitempty"`
	DisplayName     string                  `bson:"display_name"`
	Email           string                  `bson:"email"`
	PasswordHash    string                  `bson:"password_hash"`
	Role            string                  `bson:"role"`
	Tokens          int64                   `bson:"tokens"`
	VoiceID         string                  `bson:"voice_id,omitempty"`
	EmergencyName   string                  `bson:"emergency_contact_name,omitempty"`
	EmergencyPhone  string                  `bson:"emergency_contact_phone,omitempty"`
	TrustedContacts []domain.TrustedContact `bson:"trusted_contacts"`
	AlertConsent    bool                    `bson:"alert_consent"`
	CreatedAt       time.Time               `bson:"created_at"`
	UpdatedAt       time.Time               `bson:"updated_at"`
}

func (d *accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:              d.ID.Hex(),
		DisplayName:     d.DisplayName,
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		Role:            d.Role,
		Tokens:          d.Tokens,
		VoiceID:         d.VoiceID,
		EmergencyName:   d.EmergencyName,
		EmergencyPhone:  d.EmergencyPhone,
		TrustedContacts: d.TrustedContacts,
		AlertConsent:    d.AlertConsent,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	contacts := a.TrustedContacts
	if contacts == nil {
		contacts = []domain.TrustedContact{}
	}
	doc := accountDoc{
		DisplayName:     a.DisplayName,
		Email:           a.Email,
		PasswordHash:    a.PasswordHash,
		Role:            a.Role,
		Tokens:          a.Tokens,
		TrustedContacts: contacts,
		CreatedAt:       a.CreatedAt.UTC(),
		UpdatedAt:       a.UpdatedAt.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := accountID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) UpdateSafety(ctx context.Context, id string, s domain.SafetySettings) error {
	contacts := s.TrustedContacts
	if contacts == nil {
		contacts = []domain.TrustedContact{}
	}
	return r.update(ctx, id, bson.M{
		"alert_consent":           s.AlertConsent,
		"trusted_contacts":        contacts,
		"emergency_contact_name":  s.EmergencyName,
		"emergency_contact_phone": s.EmergencyPhone,
	})
}

func (r *AccountRepository) UpdateVoice(ctx context.Context, id, voiceID string) error {
	return r.update(ctx, id, bson.M{"voice_id": voiceID})
}

func (r *AccountRepository) UpdateRole(ctx context.Context, id, role string) error {
	return r.update(ctx, id, bson.M{"role": role})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) update(ctx context.Context, id string, set bson.M) error {
	oid, err := accountID(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set["updated_at"] = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
