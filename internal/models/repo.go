package models

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the struct tags on s and folds failures into ErrValidation.
func ValidateStruct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid url", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	}
	return ValidationError("%s", strings.Join(msgs, "; "))
}

// EventsRepo persists events. Writes that must not race with other writers
// go through ReplaceEvent, which only succeeds when the stored version still
// equals expectedVersion.
type EventsRepo interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	GetEventByID(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error)
	ReplaceEvent(ctx context.Context, event *Event, expectedVersion int64) (*Event, error)
	RemoveAttendee(ctx context.Context, id, userID string) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// UserDirectory resolves user ids to their display form.
type UserDirectory interface {
	LookupUsers(ctx context.Context, ids []string) (map[string]UserSummary, error)
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*types.SignupResponse, error)
	AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
	GetUser(ctx context.Context, id string, accessToken string) (*User, error)
}

type SupabaseRepo struct {
	supabaseClient *supabase.Client
	url            string
	key            string
}

func SupabaseNewRepo(supabaseClient *supabase.Client, url, key string) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		url:            url,
		key:            key,
	}
}

// GetAuthenticatedClient returns a Supabase client with the given access token
func (su *SupabaseRepo) GetAuthenticatedClient(accessToken string) (*supabase.Client, error) {
	if su.url == "" || su.key == "" {
		return su.supabaseClient, nil
	}

	options := &supabase.ClientOptions{
		Headers: map[string]string{
			"Authorization": "Bearer " + accessToken,
		},
	}

	return supabase.NewClient(su.url, su.key, options)
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}
