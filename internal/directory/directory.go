package directory

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"clinic-service/internal/models"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
)

const (
	doctorsCollection = "doctors"
	usersCollection   = "users"
)

// SingleResult decodes one document.
type SingleResult interface {
	Decode(v interface{}) error
}

// Collection is the subset of *mongo.Collection the directory reads through.
type Collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) SingleResult
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c mongoCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) SingleResult {
	return c.coll.FindOne(ctx, filter, opts...)
}

type doctorDocument struct {
	ID              primitive.ObjectID `bson:"_id"`
	Name            string             `bson:"name"`
	LicenseNumber   string             `bson:"licenseNumber"`
	Specialization  string             `bson:"specialization"`
	Experience      int                `bson:"experience"`
	Rating          float64            `bson:"rating"`
	Contact         string             `bson:"contact"`
	Email           string             `bson:"email"`
	Location        string             `bson:"location"`
	ConsultationFee string             `bson:"consultationFee"`
	Availability    string             `bson:"availability"`
}

func (d doctorDocument) profile() models.DoctorProfile {
	return models.DoctorProfile{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Specialization:  d.Specialization,
		Experience:      d.Experience,
		Rating:          d.Rating,
		Contact:         d.Contact,
		Email:           d.Email,
		Location:        d.Location,
		ConsultationFee: d.ConsultationFee,
		Availability:    d.Availability,
	}
}

type userDocument struct {
	ID      primitive.ObjectID `bson:"_id"`
	Name    string             `bson:"name"`
	Contact string             `bson:"contact"`
}

// Directory resolves doctors and patients held in MongoDB.
type Directory struct {
	doctors Collection
	users   Collection
}

// New builds a Directory over explicit collections.
func New(doctors, users Collection) *Directory {
	return &Directory{doctors: doctors, users: users}
}

// NewFromDatabase builds a Directory over the doctors and users collections of db.
func NewFromDatabase(db *mongo.Database) *Directory {
	return New(
		mongoCollection{coll: db.Collection(doctorsCollection)},
		mongoCollection{coll: db.Collection(usersCollection)},
	)
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	zap.S().Infow("connected to mongo")
	return client, nil
}

// ResolveDoctorByLicense returns the id of the doctor holding licenseNumber.
func (d *Directory) ResolveDoctorByLicense(ctx context.Context, licenseNumber string) (string, error) {
	var doc doctorDocument
	err := d.doctors.FindOne(ctx, bson.M{"licenseNumber": licenseNumber},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", fmt.Errorf("%w: license number %s", ErrDoctorNotFound, licenseNumber)
	}
	if err != nil {
		return "", fmt.Errorf("find doctor by license: %w", err)
	}
	return doc.ID.Hex(), nil
}

// ResolvePatientByContact returns the patient registered with contact.
func (d *Directory) ResolvePatientByContact(ctx context.Context, contact string) (models.Patient, error) {
	var doc userDocument
	err := d.users.FindOne(ctx, bson.M{"contact": contact}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Patient{}, fmt.Errorf("%w: contact %s", ErrPatientNotFound, contact)
	}
	if err != nil {
		return models.Patient{}, fmt.Errorf("find patient by contact: %w", err)
	}
	return models.Patient{ID: doc.ID.Hex(), Name: doc.Name, Contact: doc.Contact}, nil
}

// GetDoctorProfile loads the public profile of doctorID.
func (d *Directory) GetDoctorProfile(ctx context.Context, doctorID string) (models.DoctorProfile, error) {
	oid, err := primitive.ObjectIDFromHex(doctorID)
	if err != nil {
		return models.DoctorProfile{}, fmt.Errorf("%w: id %s", ErrDoctorNotFound, doctorID)
	}
	var doc doctorDocument
	err = d.doctors.FindOne(ctx, bson.M{"_id": oid},
		options.FindOne().SetProjection(bson.M{"password": 0, "licenseNumber": 0})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DoctorProfile{}, fmt.Errorf("%w: id %s", ErrDoctorNotFound, doctorID)
	}
	if err != nil {
		return models.DoctorProfile{}, fmt.Errorf("find doctor: %w", err)
	}
	return doc.profile(), nil
}
