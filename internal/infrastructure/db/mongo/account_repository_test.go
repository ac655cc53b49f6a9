package mongo

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sellerpanel/account-service/internal/core/domain"
)

func TestSearchFilter_EscapesAndIgnoresCase(t *testing.T) {
	f := searchFilter(" a.b* ")

	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 3 {
		t.Fatalf("expected $or over three fields, got %#v", f)
	}
	for i, field := range []string{"first_name", "last_name", "username"} {
		cond, ok := or[i].(bson.M)
		if !ok {
			t.Fatalf("unexpected condition %#v", or[i])
		}
		re, ok := cond[field].(primitive.Regex)
		if !ok {
			t.Fatalf("expected regex on %s, got %#v", field, cond)
		}
		if re.Pattern != `a\.b\*` || re.Options != "i" {
			t.Fatalf("unexpected regex %+v", re)
		}
	}
}

func TestSearchFilter_EmptyQueryMatchesAll(t *testing.T) {
	if f := searchFilter("   "); len(f) != 0 {
		t.Fatalf("expected empty filter, got %#v", f)
	}
}

func duplicateKey(index string) error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: sellerpanel.accounts index: " + index + " dup key",
	}}}
}

func TestDuplicateOr(t *testing.T) {
	if err := duplicateOr(duplicateKey(indexEmailUnique), "insert"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if err := duplicateOr(duplicateKey(indexUsernameUnique), "insert"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if err := duplicateOr(duplicateKey("_id_"), "insert"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	plain := errors.New("socket closed")
	err := duplicateOr(plain, "insert")
	if errors.Is(err, domain.ErrConflict) || !errors.Is(err, plain) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}
