package service

import (
	"testing"

	"go-shop-pos/internal/repository"

	"github.com/stretchr/testify/assert"
)

func TestUserServiceGuards(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewUserService(repository.NewUserRepo(db))

	_, err := svc.Create("", "whatever", false)
	assert.Error(t, err, "username is required")

	_, err = svc.Create("kid", "abc", false)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	err = svc.ChangePassword(1, "abc")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	err = svc.Delete(3, 3)
	assert.ErrorIs(t, err, ErrSelfDelete)

	assert.NoError(t, mock.ExpectationsWereMet(), "guards fire before any DB access")
}

func TestRestockRejectsNonPositiveQty(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewProductService(repository.NewProductRepo(db), nil)

	_, err := svc.Restock(1, 0)
	assert.Error(t, err)

	_, err = svc.Restock(1, -4)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
