package transfer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/datastore"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/errors"
)

const thrushCSV = "\ufeffScientific,Common,Family,Code,Parent,Notes,Blank\n" +
	"Turdidae,Thrushes,,TUR,,family row,\n" +
	"Turdus merula,Blackbird,Turdidae,TURMER,TUR,common,\n" +
	"Turdus philomelos,Song Thrush,Turdidae,TURPHI,Turdidae,,\n" +
	",Nameless,,X,,,\n" +
	"Orphanus,,,,NOPE,,\n"

func thrushMapping() Mapping {
	return Mapping{
		FieldName:          "Scientific",
		FieldAlternateName: "Common",
		FieldCategory:      "Family",
		FieldCode:          "Code",
		FieldParent:        "Parent",
	}
}

func TestImportClassification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := setupTestEnv(t)
	coll := env.createCollection(t, "Birds", "Wildlife")

	var progress []int
	res, err := env.svc.ImportClassification(ctx, coll.ID,
		ClassificationSpec{Name: "IOC", Version: "14.1", Source: "worldbirdnames.org"},
		strings.NewReader(thrushCSV), thrushMapping(),
		datastore.ChunkSize(2),
		datastore.OnProgress(func(n int) { progress = append(progress, n) }),
	)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Linked)
	assert.Equal(t, 1, res.Unresolved)
	assert.Equal(t, []int{2, 4}, progress)

	active, err := env.repos.Classifications.ActiveClassification(ctx, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Classification.ID, active.ID, "first classification is activated")
	assert.Equal(t, "14.1", active.Version)

	tree, err := env.repos.Classifications.Tree(ctx, res.Classification.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, tree.Len())

	byName := make(map[string]*entities.ClassificationEntry)
	tree.Walk(func(_ uint, e *entities.ClassificationEntry, _ int) bool {
		byName[e.Name] = e
		return true
	})
	family := byName["Turdidae"]
	require.NotNil(t, family)
	assert.Nil(t, family.ParentID)
	assert.Equal(t, map[string]string{"Notes": "family row"}, family.ExtraData)

	children, err := env.repos.Classifications.Children(ctx, family.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Turdus merula", children[0].Name)
	assert.Equal(t, "Turdus philomelos", children[1].Name)

	blackbird := byName["Turdus merula"]
	assert.Equal(t, "Blackbird", blackbird.AlternateName)
	assert.Equal(t, "Turdidae", blackbird.Category)
	assert.Equal(t, "TURMER", blackbird.Code)
	assert.Equal(t, map[string]string{"Notes": "common"}, blackbird.ExtraData)

	orphan := byName["Orphanus"]
	require.NotNil(t, orphan)
	assert.Nil(t, orphan.ParentID)
	assert.Empty(t, orphan.ExtraData, "blank unmapped values are not kept")
}

func TestImportClassificationKeepsActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := setupTestEnv(t)
	coll := env.createCollection(t, "Birds", "Wildlife")

	first, err := env.svc.ImportClassification(ctx, coll.ID, ClassificationSpec{Name: "IOC"},
		strings.NewReader("name\nA\n"), Mapping{FieldName: "name"})
	require.NoError(t, err)
	second, err := env.svc.ImportClassification(ctx, coll.ID, ClassificationSpec{Name: "Clements"},
		strings.NewReader("name\nB\n"), Mapping{FieldName: "name"})
	require.NoError(t, err)

	active, err := env.repos.Classifications.ActiveClassification(ctx, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Classification.ID, active.ID)
	assert.False(t, second.Classification.IsActive)
}

func TestImportClassificationMappingErrors(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	coll := env.createCollection(t, "Birds", "Wildlife")

	tests := []struct {
		name    string
		mapping Mapping
	}{
		{"no name mapping", Mapping{FieldCode: "Code"}},
		{"unknown field", Mapping{FieldName: "Scientific", "colour": "Notes"}},
		{"name column missing", Mapping{FieldName: "Latin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.ImportClassification(context.Background(), coll.ID, ClassificationSpec{Name: "IOC"},
				strings.NewReader(thrushCSV), tt.mapping)
			require.ErrorIs(t, err, ErrInvalidMapping)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}

	assert.Zero(t, env.count(t, &entities.Classification{}, ""), "nothing is created for a bad mapping")
}

func TestImportClassificationCancelledLeavesNothing(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	coll := env.createCollection(t, "Birds", "Wildlife")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	csvData := "name\nA\nB\nC\nD\nE\n"
	res, err := env.svc.ImportClassification(ctx, coll.ID, ClassificationSpec{Name: "IOC"},
		strings.NewReader(csvData), Mapping{FieldName: "name"},
		datastore.ChunkSize(2),
		datastore.OnProgress(func(int) { cancel() }),
	)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
	assert.Nil(t, res)

	assert.Zero(t, env.count(t, &entities.Classification{}, ""))
	assert.Zero(t, env.count(t, &entities.ClassificationEntry{}, ""))
}

func TestImportClassificationMalformedCSV(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	coll := env.createCollection(t, "Birds", "Wildlife")

	csvData := "name,code\nGood,G\nBad \"quote,B\n"
	res, err := env.svc.ImportClassification(context.Background(), coll.ID, ClassificationSpec{Name: "IOC"},
		strings.NewReader(csvData), Mapping{FieldName: "name", FieldCode: "code"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
	assert.Nil(t, res)

	assert.Zero(t, env.count(t, &entities.Classification{}, ""), "no half-imported classification is left active")
	assert.Zero(t, env.count(t, &entities.ClassificationEntry{}, ""))

	// A later import of the same collection is still the first one.
	res, err = env.svc.ImportClassification(context.Background(), coll.ID, ClassificationSpec{Name: "IOC"},
		strings.NewReader("name\nGood\n"), Mapping{FieldName: "name"})
	require.NoError(t, err)
	assert.True(t, res.Classification.IsActive)
}

func TestImportClassificationFailureInLaterChunkLeavesNothing(t *testing.T) {
	t.Parallel()
	env := setupTestEnv(t)
	coll := env.createCollection(t, "Birds", "Wildlife")

	csvData := "name,parent\nA,\nB,A\nC,A\nD \"broken,A\n"
	var progress []int
	res, err := env.svc.ImportClassification(context.Background(), coll.ID, ClassificationSpec{Name: "IOC"},
		strings.NewReader(csvData), Mapping{FieldName: "name", FieldParent: "parent"},
		datastore.ChunkSize(2),
		datastore.OnProgress(func(n int) { progress = append(progress, n) }),
	)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
	assert.Nil(t, res)
	assert.Equal(t, []int{2, 3}, progress, "the first chunk was flushed before the bad line")

	assert.Zero(t, env.count(t, &entities.Classification{}, ""))
	assert.Zero(t, env.count(t, &entities.ClassificationEntry{}, ""))

	_, err = env.repos.Classifications.ActiveClassification(context.Background(), coll.ID)
	assert.True(t, errors.IsNotFound(err))
}
