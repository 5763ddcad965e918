package record_test

import (
	"errors"
	"testing"

	"github.com/ekaya-inc/ekaya-record/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-record/pkg/record"
)

func TestTableNameFor(t *testing.T) {
	tests := []struct {
		typeName string
		expected string
	}{
		{"User", "users"},
		{"Post", "posts"},
		{"Category", "categories"},
		{"Person", "people"},
		{"*entities.User", "users"},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			if got := record.TableNameFor(tt.typeName); got != tt.expected {
				t.Errorf("TableNameFor(%q) = %q, want %q", tt.typeName, got, tt.expected)
			}
		})
	}
}

func TestDefinition_Validate(t *testing.T) {
	if err := (record.Definition{Table: "users"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := (record.Definition{Table: "users--"}).Validate()
	if !errors.Is(err, apperrors.ErrInvalidIdentifier) {
		t.Errorf("expected ErrInvalidIdentifier, got %v", err)
	}

	if err := (record.Definition{}).Validate(); err == nil {
		t.Error("expected error for missing table")
	}
}
