package services

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"courtside/courtside/testutils"
)

func TestGetUserById_NotFound(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WithArgs("missing-id", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := UserServiceInstance.GetUserById(db, "missing-id")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func userRow(id uuid.UUID, favorites string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "favorite_teams"}).
		AddRow(id.String(), "fan@example.com", favorites)
}

func TestAddFavorite_DuplicateIsNoOp(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	userID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRow(userID, `["Lakers"]`))

	// No UPDATE is expected: the value is already present.
	user, err := UserServiceInstance.AddFavorite(db, userID.String(), FavoriteTeam, "Lakers")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Lakers"}, user.FavoriteTeams)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFavorite_AppendsValue(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	userID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRow(userID, `["Lakers"]`))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET (.+)"favorite_teams"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := UserServiceInstance.AddFavorite(db, userID.String(), FavoriteTeam, "Celtics")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Lakers", "Celtics"}, user.FavoriteTeams)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveFavorite_AbsentValueIsNoOp(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	userID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRow(userID, `["Lakers"]`))

	user, err := UserServiceInstance.RemoveFavorite(db, userID.String(), FavoriteTeam, "Celtics")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Lakers"}, user.FavoriteTeams)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFavorite_UnknownKind(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	userID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRow(userID, `[]`))

	_, err := UserServiceInstance.AddFavorite(db, userID.String(), FavoriteKind("mascot"), "Benny")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
