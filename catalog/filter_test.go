package catalog_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/booklending/catalog"
)

func Test_FilterSet_EmptyMeansShowAll(t *testing.T) {
	allFalse := catalog.FilterSet{catalog.StatusAvailable: false, catalog.StatusReserved: false}

	assert.True(t, allFalse.IsEmpty(), "an all-false set counts as empty")
	assert.True(t, allFalse.Allows(catalog.StatusBorrowed), "an empty set shows every status")
	assert.Equal(t, "", allFalse.String(), "an empty set renders no statuses")
}

func Test_FilterSet_Included_UsesDisplayOrder(t *testing.T) {
	fs := catalog.NewFilterSet(catalog.StatusReturned, catalog.StatusAvailable)

	assert.Equal(t, []catalog.Status{catalog.StatusAvailable, catalog.StatusReturned}, fs.Included())
	assert.Equal(t, "AVAILABLE,RETURNED", fs.String())
	assert.False(t, fs.Allows(catalog.StatusReserved))
}

func Test_FilterSet_Toggle_ReturnsCopy(t *testing.T) {
	original := catalog.NewFilterSet(catalog.StatusAvailable)

	toggled := original.Toggle(catalog.StatusReserved).Toggle(catalog.StatusAvailable)

	assert.Equal(t, []catalog.Status{catalog.StatusAvailable}, original.Included(), "the original should not change")
	assert.Equal(t, []catalog.Status{catalog.StatusReserved}, toggled.Included())
	assert.False(t, original.Equal(toggled))
}

func Test_ParseFilterSet(t *testing.T) {
	fs, err := catalog.ParseFilterSet("reserved, AVAILABLE,,")
	require.NoError(t, err)
	assert.True(t, fs.Equal(catalog.NewFilterSet(catalog.StatusAvailable, catalog.StatusReserved)))

	_, err = catalog.ParseFilterSet("AVAILABLE,GONE")
	assert.ErrorIs(t, err, catalog.ErrUnknownStatus)
}

func Test_ListQuery_Validate(t *testing.T) {
	valid := catalog.BuildListQuery("", nil)
	assert.NoError(t, valid.Validate())

	negative := valid.WithPage(-1)
	assert.ErrorIs(t, negative.Validate(), catalog.ErrValidation)

	badOrder := valid
	badOrder.Order = "sideways"
	assert.ErrorIs(t, badOrder.Validate(), catalog.ErrValidation)

	badField := valid
	badField.SortBy = "cover_url"
	assert.ErrorIs(t, badField.Validate(), catalog.ErrValidation)
}

func Test_Classify(t *testing.T) {
	assert.Equal(t, catalog.KindNone, catalog.Classify(nil))
	assert.Equal(t, catalog.KindNotFound, catalog.Classify(errors.Join(catalog.ErrNotFound)))
	assert.Equal(t, catalog.KindConflict, catalog.Classify(errors.Join(catalog.ErrConflict)))
	assert.Equal(t, catalog.KindUnauthorized, catalog.Classify(errors.Join(catalog.ErrUnauthorized)))
	assert.Equal(t, catalog.KindForbidden, catalog.Classify(errors.Join(catalog.ErrForbidden)))
	assert.Equal(t, catalog.KindTransport, catalog.Classify(assert.AnError), "foreign errors count as transport errors")
}

func Test_StatusCodeOf(t *testing.T) {
	err := errors.Join(catalog.ErrNotFound, &catalog.RemoteError{StatusCode: 404, Message: "Book not found"})

	assert.Equal(t, 404, catalog.StatusCodeOf(err))
	assert.Equal(t, 0, catalog.StatusCodeOf(assert.AnError))
	assert.Contains(t, err.Error(), "Book not found")
}
