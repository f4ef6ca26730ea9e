package service

import (
	"errors"
	"strings"

	"go-shop-pos/internal/model"
	"go-shop-pos/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrUsernameTaken    = errors.New("username already exists")
	ErrPasswordTooShort = errors.New("password must be at least 4 characters")
	ErrSelfDelete       = errors.New("you cannot delete your own account")
)

type UserService interface {
	Create(username, password string, isAdmin bool) (*model.User, error)
	Delete(id, requesterID uint) error
	ChangePassword(id uint, password string) error
	GetAll() ([]model.User, error)
	GetByID(id uint) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Create(username, password string, isAdmin bool) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}
	if len(password) < 4 {
		return nil, ErrPasswordTooShort
	}

	if existing, _ := s.userRepo.FindByUsername(username); existing != nil {
		return nil, ErrUsernameTaken
	}

	user := &model.User{Username: username, IsAdmin: isAdmin}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(id, requesterID uint) error {
	if id == requesterID {
		return ErrSelfDelete
	}
	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "user", ID: id}
		}
		return err
	}
	return nil
}

func (s *userService) ChangePassword(id uint, password string) error {
	if len(password) < 4 {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "user", ID: id}
		}
		return err
	}

	if err := user.SetPassword(password); err != nil {
		return err
	}
	return s.userRepo.Update(user)
}

func (s *userService) GetAll() ([]model.User, error) {
	return s.userRepo.FindAll()
}

func (s *userService) GetByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: id}
		}
		return nil, err
	}
	return user, nil
}
