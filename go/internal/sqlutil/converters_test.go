package sqlutil

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/sqlc-dev/pqtype"
)

func TestNullableConverters(t *testing.T) {
	check.Nil(t, FromSqlInt32(sql.NullInt32{}))
	check.Equal(t, 7, *FromSqlInt32(sql.NullInt32{Int32: 7, Valid: true}))

	check.Nil(t, FromSqlStringPtr(sql.NullString{}))
	check.Equal(t, "x", *FromSqlStringPtr(sql.NullString{String: "x", Valid: true}))

	id := uuid.New()
	check.Nil(t, FromNullUUID(ToNullUUID(nil)))
	check.Equal(t, id, *FromNullUUID(ToNullUUID(&id)))
}

func TestJSONColumn(t *testing.T) {
	type summary struct {
		Rounds int `json:"rounds"`
	}

	col, err := ToNullJSON(summary{Rounds: 3})
	assert.NoError(t, err)
	check.True(t, col.Valid)

	got, err := FromNullJSON[summary](col)
	assert.NoError(t, err)
	check.Equal(t, 3, got.Rounds)

	none, err := FromNullJSON[summary](pqtype.NullRawMessage{})
	assert.NoError(t, err)
	check.Nil(t, none)

	_, err = FromNullJSON[summary](pqtype.NullRawMessage{RawMessage: []byte("{"), Valid: true})
	check.Error(t, err)
}
