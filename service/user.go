package service

import (
	"context"
	"errors"

	"chatrelay/model"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	store  UserStore
	tokens *TokenService
}

func NewUserService(store UserStore, tokens *TokenService) *UserService {
	return &UserService{store: store, tokens: tokens}
}

type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *UserService) Register(ctx context.Context, user *User) error {
	exists, err := s.store.Exists(ctx, user.Username, user.Email)
	if err != nil {
		return errors.New("internal server error")
	}
	if exists {
		return errors.New("user already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("internal server error")
	}

	newUser := &model.User{
		Username: user.Username,
		Email:    user.Email,
		Password: string(hashedPassword),
	}
	if err := s.store.Create(ctx, newUser); err != nil {
		return errors.New("internal server error")
	}
	return nil
}

func (s *UserService) Login(ctx context.Context, user *User) (string, error) {
	registeredUser, err := s.store.FindByUsername(ctx, user.Username)
	if err != nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(registeredUser.Password), []byte(user.Password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	token, err := s.tokens.CreateToken(registeredUser.ID)
	if err != nil {
		return "", errors.New("failed to generate token")
	}
	return token.AccessToken, nil
}
