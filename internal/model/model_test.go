package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	u := User{ID: 1, Email: "a@b.c", PasswordHash: "$2a$10$secret"}
	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.False(t, u.Deleted())

	now := time.Now()
	u.DeletedAt = &now
	assert.True(t, u.Deleted())
}

func TestDate_JSON(t *testing.T) {
	d, err := ParseDate("2024-05-01")
	require.NoError(t, err)

	b, err := json.Marshal(Project{Date: &d})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"date":"2024-05-01"`)

	var back Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-01"`), &back))
	assert.Equal(t, 2024, back.Year())
	assert.Error(t, json.Unmarshal([]byte(`"01/05/2024"`), &back))

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}
