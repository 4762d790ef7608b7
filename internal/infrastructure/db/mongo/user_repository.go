package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/storefront-api/internal/core/domain"
)

const usersCollection = "users"

// UserRepository implements ports.UserRepository on MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

// userDocument is the persisted shape of a user. It never leaves this
// package: toDomain is the only way out.
type userDocument struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty"`
	Name                    string             `bson:"name"`
	Email                   string             `bson:"email"`
	PhoneNumber             string             `bson:"phoneNumber"`
	Password                string             `bson:"password"`
	IsVerified              bool               `bson:"isVerified"`
	RefreshToken            *string            `bson:"refreshToken"`
	Role                    string             `bson:"role"`
	LoginCode               string             `bson:"loginCode,omitempty"`
	LoginCodeExpires        *time.Time         `bson:"loginCodeExpires,omitempty"`
	VerificationCode        string             `bson:"verificationCode,omitempty"`
	VerificationCodeExpires *time.Time         `bson:"verificationCodeExpires,omitempty"`
	CreatedAt               time.Time          `bson:"createdAt"`
	UpdatedAt               time.Time          `bson:"updatedAt"`
}

func newUserDocument(u *domain.User) userDocument {
	doc := userDocument{
		Name:                    u.Name,
		Email:                   u.Email,
		PhoneNumber:             u.PhoneNumber,
		Password:                u.PasswordHash,
		IsVerified:              u.IsVerified,
		Role:                    u.Role,
		LoginCode:               u.LoginCode,
		LoginCodeExpires:        optionalTime(u.LoginCodeExpires),
		VerificationCode:        u.VerificationCode,
		VerificationCodeExpires: optionalTime(u.VerificationCodeExpires),
		CreatedAt:               u.CreatedAt.UTC(),
		UpdatedAt:               u.UpdatedAt.UTC(),
	}
	if doc.Role == "" {
		doc.Role = domain.RoleUser
	}
	if u.RefreshToken != "" {
		doc.RefreshToken = &u.RefreshToken
	}
	return doc
}

func (d userDocument) toDomain() *domain.User {
	u := &domain.User{
		ID:                      d.ID.Hex(),
		Name:                    d.Name,
		Email:                   d.Email,
		PhoneNumber:             d.PhoneNumber,
		Role:                    d.Role,
		IsVerified:              d.IsVerified,
		PasswordHash:            d.Password,
		LoginCode:               d.LoginCode,
		LoginCodeExpires:        derefTime(d.LoginCodeExpires),
		VerificationCode:        d.VerificationCode,
		VerificationCodeExpires: derefTime(d.VerificationCodeExpires),
		CreatedAt:               d.CreatedAt.UTC(),
		UpdatedAt:               d.UpdatedAt.UTC(),
	}
	if d.RefreshToken != nil {
		u.RefreshToken = *d.RefreshToken
	}
	return u
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := newUserDocument(user)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	var doc userDocument
	if err := findOne(ctx, r.coll, bson.M{"_id": oid}, &doc, domain.ErrUserNotFound); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDocument
	if err := findOne(ctx, r.coll, bson.M{"email": email}, &doc, domain.ErrUserNotFound); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set":   bson.M{"isVerified": true, "updatedAt": at.UTC()},
		"$unset": bson.M{"verificationCode": "", "verificationCodeExpires": ""},
	}, domain.ErrUserNotFound)
}

func (r *UserRepository) SetLoginCode(ctx context.Context, id, passwordHash, code string, expires, at time.Time) error {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, bson.M{"_id": oid, "password": passwordHash}, bson.M{
		"$set": bson.M{"loginCode": code, "loginCodeExpires": expires.UTC(), "updatedAt": at.UTC()},
	}, domain.ErrInvalidCredentials)
}

func (r *UserRepository) ConsumeLoginCode(ctx context.Context, id, code, refreshToken string, at time.Time) error {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, bson.M{"_id": oid, "loginCode": code}, bson.M{
		"$set":   bson.M{"refreshToken": refreshToken, "updatedAt": at.UTC()},
		"$unset": bson.M{"loginCode": "", "loginCodeExpires": ""},
	}, domain.ErrInvalidCode)
}

func (r *UserRepository) RotateRefreshToken(ctx context.Context, id, current, next string, at time.Time) error {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, bson.M{"_id": oid, "refreshToken": current}, bson.M{
		"$set": bson.M{"refreshToken": next, "updatedAt": at.UTC()},
	}, domain.ErrInvalidToken)
}

func (r *UserRepository) SetPassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"password": passwordHash, "refreshToken": nil, "updatedAt": at.UTC()},
	}, domain.ErrUserNotFound)
}

// updateOne applies update to the document matching filter and returns
// notMatched when no document matched.
func (r *UserRepository) updateOne(ctx context.Context, filter, update bson.M, notMatched error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return notMatched
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id, domain.ErrUserNotFound)
}

func (r *UserRepository) ClearExpiredLoginCodes(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"loginCodeExpires": bson.M{"$lt": now.UTC()}},
		bson.M{"$unset": bson.M{"loginCode": "", "loginCodeExpires": ""}},
	)
	if err != nil {
		return 0, fmt.Errorf("clear expired login codes: %w", err)
	}
	return res.ModifiedCount, nil
}
