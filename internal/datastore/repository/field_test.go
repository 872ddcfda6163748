package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/fieldtype"
)

func fieldByName(t *testing.T, fields []*entities.CustomField, name string) *entities.CustomField {
	t.Helper()
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	require.Failf(t, "field not found", "no field %q", name)
	return nil
}

func TestCreateFieldAppendsInDisplayOrder(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	coll := env.createCollection(t, "Birds", "Wildlife")

	field, err := env.repos.Fields.CreateField(ctx, coll.ID, FieldSpec{Name: "Count", Type: fieldtype.Number{}})
	require.NoError(t, err)
	assert.Equal(t, 3, field.DisplayOrder)

	_, err = env.repos.Fields.CreateField(ctx, coll.ID, FieldSpec{Name: "Count", Type: fieldtype.Text{}})
	require.ErrorIs(t, err, ErrFieldExists)

	first, err := env.repos.Fields.CreateField(ctx, coll.ID, FieldSpec{Name: "Ring", Type: fieldtype.Text{}, DisplayOrder: ptr(-1)})
	require.NoError(t, err)

	fields, err := env.repos.Fields.FieldsFor(ctx, coll.ID)
	require.NoError(t, err)
	require.Len(t, fields, 5)
	assert.Equal(t, first.ID, fields[0].ID)
	assert.Equal(t, "Count", fields[4].Name)

	_, err = env.repos.Fields.CreateField(ctx, 999, FieldSpec{Name: "X", Type: fieldtype.Text{}})
	require.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestUpdateAndDeleteField(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	r := env.repos
	coll := env.createCollection(t, "Shelf", "Books")

	fields, err := r.Fields.FieldsFor(ctx, coll.ID)
	require.NoError(t, err)
	rating := fieldByName(t, fields, "Rating")
	author := fieldByName(t, fields, "Author")

	require.NoError(t, r.Fields.UpdateField(ctx, rating.ID, FieldUpdate{RatingMax: ptr(10)}))
	require.ErrorIs(t, r.Fields.UpdateField(ctx, author.ID, FieldUpdate{RatingMax: ptr(3)}), ErrInvalidInput)
	require.ErrorIs(t, r.Fields.UpdateField(ctx, author.ID, FieldUpdate{Name: ptr("Rating")}), ErrFieldExists)
	require.NoError(t, r.Fields.UpdateField(ctx, author.ID, FieldUpdate{Name: ptr("Writer"), Required: ptr(false)}))

	got, err := r.Fields.GetField(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Writer", got.Name)
	assert.False(t, got.Required)

	entry := env.createEntry(t, coll.ID, "Dune")
	require.NoError(t, r.Fields.SetAttributes(ctx, entry.ID, map[uint]string{rating.ID: "9", author.ID: "Herbert"}))

	require.NoError(t, r.Fields.DeleteField(ctx, rating.ID))
	attrs, err := r.Fields.AttributesFor(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Writer": "Herbert"}, attrs)

	_, err = r.Fields.GetField(ctx, rating.ID)
	require.ErrorIs(t, err, ErrFieldNotFound)
	require.ErrorIs(t, r.Fields.DeleteField(ctx, rating.ID), ErrFieldNotFound)
}

func TestSetAttributesReplacesValues(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	r := env.repos
	coll := env.createCollection(t, "Shelf", "Books")
	entry := env.createEntry(t, coll.ID, "Dune")

	require.NoError(t, r.Fields.SetAttributesByName(ctx, entry.ID, map[string]string{
		"Author": "Frank Herbert",
		"Year":   "1965",
		"Genre":  "",
	}))
	require.NoError(t, r.Fields.SetAttributesByName(ctx, entry.ID, map[string]string{
		"Author": "F. Herbert",
		"Rating": "5",
	}))

	attrs, err := r.Fields.AttributesFor(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Author": "F. Herbert", "Rating": "5"}, attrs)
	assert.Equal(t, int64(2), env.count(t, &entities.EntryAttributeValue{}, "entry_id = ?", entry.ID))
}

func TestSetAttributesValidatesValues(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	r := env.repos
	coll := env.createCollection(t, "Shelf", "Books")
	entry := env.createEntry(t, coll.ID, "Dune")
	require.NoError(t, r.Fields.SetAttributesByName(ctx, entry.ID, map[string]string{"Author": "Herbert"}))

	tests := []struct {
		name   string
		values map[string]string
	}{
		{"rating above max", map[string]string{"Rating": "6"}},
		{"rating not a number", map[string]string{"Rating": "good"}},
		{"number not a number", map[string]string{"Year": "nineteen"}},
		{"unknown field", map[string]string{"Pages": "412"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Fields.SetAttributesByName(ctx, entry.ID, tt.values)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}

	attrs, err := r.Fields.AttributesFor(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Author": "Herbert"}, attrs, "failed writes leave values intact")
}

func TestSetAttributesRejectsForeignField(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	books := env.createCollection(t, "Shelf", "Books")
	birds := env.createCollection(t, "Birds", "Wildlife")
	entry := env.createEntry(t, books.ID, "Dune")

	birdFields, err := env.repos.Fields.FieldsFor(ctx, birds.ID)
	require.NoError(t, err)

	err = env.repos.Fields.SetAttributes(ctx, entry.ID, map[uint]string{birdFields[0].ID: "Aves"})
	require.ErrorIs(t, err, ErrInvalidInput)

	err = env.repos.Fields.SetAttributes(ctx, 999, map[uint]string{birdFields[0].ID: "Aves"})
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestChoiceOptions(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	r := env.repos
	coll := env.createCollection(t, "Birds", "Wildlife")

	choice, err := fieldtype.New(fieldtype.KindChoice, []fieldtype.Option{{Value: "male"}, {Value: "female"}}, 0)
	require.NoError(t, err)
	sex, err := r.Fields.CreateField(ctx, coll.ID, FieldSpec{Name: "Sex", Type: choice})
	require.NoError(t, err)
	require.Len(t, sex.Options, 2)

	require.NoError(t, r.Fields.SetOptions(ctx, sex.ID, []fieldtype.Option{
		{Value: "juvenile"}, {Value: " male ", Label: "Male"}, {Value: "juvenile"}, {Value: ""},
	}))
	got, err := r.Fields.GetField(ctx, sex.ID)
	require.NoError(t, err)
	require.Len(t, got.Options, 2)
	assert.Equal(t, "juvenile", got.Options[0].Value)
	assert.Equal(t, "male", got.Options[1].Value)
	assert.Equal(t, "Male", got.Options[1].Label)

	entry := env.createEntry(t, coll.ID, "Robin")
	require.NoError(t, r.Fields.SetAttributes(ctx, entry.ID, map[uint]string{sex.ID: "male"}))
	require.ErrorIs(t, r.Fields.SetAttributes(ctx, entry.ID, map[uint]string{sex.ID: "female"}), ErrInvalidInput)

	fields, err := r.Fields.FieldsFor(ctx, coll.ID)
	require.NoError(t, err)
	family := fieldByName(t, fields, "Family")
	require.ErrorIs(t, r.Fields.SetOptions(ctx, family.ID, []fieldtype.Option{{Value: "a"}}), ErrInvalidInput)
}

func TestFieldDependencies(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	r := env.repos
	coll := env.createCollection(t, "Birds", "Wildlife")
	other := env.createCollection(t, "Shelf", "Books")

	fields, err := r.Fields.FieldsFor(ctx, coll.ID)
	require.NoError(t, err)
	sci := fieldByName(t, fields, "Scientific Name")
	family := fieldByName(t, fields, "Family")
	weather := fieldByName(t, fields, "Weather")

	require.NoError(t, r.Fields.SetDependency(ctx, family.ID, sci.ID, entities.ConditionNotEmpty, ""))
	require.NoError(t, r.Fields.SetDependency(ctx, weather.ID, family.ID, entities.ConditionEquals, "Turdidae"))

	// replacing keeps one row per field
	require.NoError(t, r.Fields.SetDependency(ctx, weather.ID, family.ID, entities.ConditionNotEquals, "Corvidae"))
	got, err := r.Fields.GetField(ctx, weather.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Dependency)
	assert.Equal(t, entities.ConditionNotEquals, got.Dependency.Condition)
	assert.Equal(t, "Corvidae", got.Dependency.Value)
	assert.Equal(t, int64(2), env.count(t, &entities.FieldDependency{}, ""))

	t.Run("circular", func(t *testing.T) {
		err := r.Fields.SetDependency(ctx, sci.ID, weather.ID, entities.ConditionNotEmpty, "")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
	t.Run("self", func(t *testing.T) {
		require.ErrorIs(t, r.Fields.SetDependency(ctx, sci.ID, sci.ID, entities.ConditionNotEmpty, ""), ErrInvalidInput)
	})
	t.Run("unknown condition", func(t *testing.T) {
		require.ErrorIs(t, r.Fields.SetDependency(ctx, sci.ID, family.ID, "contains", "x"), ErrInvalidInput)
	})
	t.Run("other collection", func(t *testing.T) {
		otherFields, err := r.Fields.FieldsFor(ctx, other.ID)
		require.NoError(t, err)
		err = r.Fields.SetDependency(ctx, sci.ID, otherFields[0].ID, entities.ConditionNotEmpty, "")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	// dependencies are never enforced on writes
	entry := env.createEntry(t, coll.ID, "Robin")
	require.NoError(t, r.Fields.SetAttributes(ctx, entry.ID, map[uint]string{weather.ID: "sunny"}))

	require.NoError(t, r.Fields.ClearDependency(ctx, weather.ID))
	got, err = r.Fields.GetField(ctx, weather.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Dependency)
}
