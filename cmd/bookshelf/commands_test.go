package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/booklending/catalog"
)

func Test_MergeDraft_OverwritesOnlyGivenFields(t *testing.T) {
	// arrange
	current := catalog.Record{
		ID:       7,
		Title:    "Dune",
		Author:   "Frank Herbert",
		ISBN:     "9780441013593",
		CoverURL: "https://covers.example.com/dune.jpg",
		Status:   catalog.StatusReserved,
	}

	// act
	merged := mergeDraft(current, catalog.Draft{Title: "Dune (Deluxe Edition)"})

	// assert
	assert.Equal(t, "Dune (Deluxe Edition)", merged.Title)
	assert.Equal(t, current.Author, merged.Author)
	assert.Equal(t, current.ISBN, merged.ISBN)
	assert.Equal(t, current.CoverURL, merged.CoverURL)
	assert.Equal(t, catalog.StatusReserved, merged.Status, "status changes go through actions only")
}

func Test_ParseID(t *testing.T) {
	id, err := parseID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "0", "-3"} {
		_, err = parseID(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func Test_PrintRecords_ShowsOfferedActions(t *testing.T) {
	// arrange
	var out bytes.Buffer
	records := catalog.Records{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Status: catalog.StatusAvailable},
		{ID: 2, Title: "Emma", Author: "Jane Austen", ISBN: "9780141439587", Status: catalog.StatusBorrowed},
	}

	// act
	err := printRecords(&out, records, catalog.RoleBorrower)

	// assert
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ACTIONS")
	assert.Contains(t, lines[1], "Dune")
	assert.True(t, strings.HasSuffix(lines[1], "reserve"), "borrower may reserve an available book")
	assert.True(t, strings.HasSuffix(lines[2], "return"), "borrower may return a borrowed book")
}

func Test_Prompter_ReadsSuccessiveLines(t *testing.T) {
	// arrange
	var out bytes.Buffer
	prompt := newPrompter(strings.NewReader("alice\n  alice-secret  \n\n"), &out)

	// act
	username, userErr := prompt.line("Username: ")
	password, passwordErr := prompt.password("Password: ")
	_, emptyErr := prompt.line("Again: ")

	// assert
	require.NoError(t, userErr)
	require.NoError(t, passwordErr)
	assert.Equal(t, "alice", username)
	assert.Equal(t, "alice-secret", password, "non-terminal input is read as a plain line")
	assert.ErrorIs(t, emptyErr, errEmptyInput)
	assert.Equal(t, "Username: Password: Again: ", out.String())
}
