package dummydb

import (
	"context"
	"time"

	"github.com/trezcool/schoolcal/core/user"
)

type userRepository struct {
	s *Stores
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	var err error
	repo.s.do(func(t *tables) {
		for _, u := range t.users {
			if u.Email == usr.Email {
				err = user.ErrEmailExists
				return
			}
		}
		t.users[usr.ID] = usr
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (usr user.User, err error) {
	repo.s.do(func(t *tables) {
		var ok bool
		if usr, ok = t.users[id]; !ok {
			err = user.ErrNotFound
		}
	})
	return usr, err
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (usr user.User, err error) {
	err = user.ErrNotFound
	repo.s.do(func(t *tables) {
		for _, u := range t.users {
			if u.Email == email {
				usr, err = u, nil
				return
			}
		}
	})
	return usr, err
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	var err error
	repo.s.do(func(t *tables) {
		orig, ok := t.users[usr.ID]
		if !ok {
			err = user.ErrNotFound
			return
		}
		orig.Name = usr.Name
		orig.Email = usr.Email
		orig.PasswordHash = usr.PasswordHash
		orig.UpdatedAt = usr.UpdatedAt
		t.users[usr.ID] = orig
		usr = orig
	})
	return usr, err
}

func (repo *userRepository) SetLastLogin(_ context.Context, id string, at time.Time) error {
	var err error
	repo.s.do(func(t *tables) {
		usr, ok := t.users[id]
		if !ok {
			err = user.ErrNotFound
			return
		}
		usr.LastLogin = at
		t.users[id] = usr
	})
	return err
}
