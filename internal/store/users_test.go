package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/Cardassist-core-poc/server/internal/core/error"
)

func newUserRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func TestUserGetByID(t *testing.T) {
	repo, mock := newUserRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM users").
		WithArgs("USER001").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(
			int64(1), "USER001", "Jordan Smith", "jordan@example.com", "+911234567890",
			"4532-XXXX-XXXX-1234", "active", 100000.0, 75000.0, true, now, (*time.Time)(nil),
		))

	u, err := repo.GetByID(context.Background(), "USER001")
	require.NoError(t, err)
	assert.Equal(t, "USER001", u.UserID)
	assert.Equal(t, "active", u.CardStatus)
	assert.Equal(t, 75000.0, u.AvailableCredit)
	assert.Nil(t, u.LastLogin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDNotFound(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT .+ FROM users").
		WithArgs("USER999").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "USER999")
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestUserGetByIDRequiresID(t *testing.T) {
	repo, _ := newUserRepo(t)

	_, err := repo.GetByID(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidInput))
}

func TestUserUpdateCardStatus(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users").
		WithArgs("blocked", "USER001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateCardStatus(context.Background(), "USER001", "blocked"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateCardStatusUnknownUser(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users").
		WithArgs("blocked", "USER999").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateCardStatus(context.Background(), "USER999", "blocked")
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestUserUpdateContact(t *testing.T) {
	repo, mock := newUserRepo(t)
	email := "new@example.com"

	mock.ExpectExec("UPDATE users").
		WithArgs(email, "USER001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateContact(context.Background(), "USER001", &email, nil))

	err := repo.UpdateContact(context.Background(), "USER001", nil, nil)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInvalidInput))
}

func TestUserCreditAvailableCredit(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users").
		WithArgs(5000.0, "USER001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.CreditAvailableCredit(context.Background(), "USER001", 5000))
}

func TestUserDataAccessErrorWrapped(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users").
		WithArgs(100.0, "USER001").
		WillReturnError(errors.New("connection refused"))

	err := repo.DebitAvailableCredit(context.Background(), "USER001", 100)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindDataAccess))
}
