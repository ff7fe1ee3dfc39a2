// User là tài khoản GitHub đã ủy quyền cho hệ thống.
// PulledAt là checkpoint của lần đồng bộ thành công gần nhất,
// NULL nghĩa là chưa đồng bộ lần nào.

package model

import (
	"context"
	"errors"
	"time"

	"github.com/thep200/star-syncer/cfg"
	"github.com/thep200/star-syncer/pkg/db"
	"github.com/thep200/star-syncer/pkg/log"
	"gorm.io/gorm"
)

type User struct {
	Model
	Login       string     `json:"login" gorm:"column:login;type:varchar(255);uniqueIndex;not null"`
	AccessToken string     `json:"-" gorm:"column:access_token;type:varchar(255);not null"`
	PulledAt    *time.Time `json:"pulled_at" gorm:"column:pulled_at"`
}

func NewUser(config *cfg.Config, logger log.Logger, db *db.Mysql) (*User, error) {
	user := &User{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return user, nil
}

func (u *User) TableName() string {
	return "users"
}

// FindStale trả về các user chưa có checkpoint hoặc checkpoint cũ hơn staleAfter
func (u *User) FindStale(staleAfter time.Duration) ([]User, error) {
	db, err := u.Mysql.Db()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-staleAfter)
	var users []User
	if err := db.Where("pulled_at IS NULL OR pulled_at < ?", cutoff).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindByLogin trả về user theo login, nil nếu không tồn tại
func (u *User) FindByLogin(login string) (*User, error) {
	db, err := u.Mysql.Db()
	if err != nil {
		return nil, err
	}

	var user User
	result := db.Where("login = ?", login).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &user, nil
}

// AdvanceCheckpoint cập nhật pulled_at sau khi đồng bộ thành công
func (u *User) AdvanceCheckpoint(login string, pulledAt time.Time) error {
	db, err := u.Mysql.Db()
	if err != nil {
		return err
	}
	return db.Model(&User{}).Where("login = ?", login).Update("pulled_at", pulledAt).Error
}

// Deactivate xóa user khi token không còn hợp lệ,
// user sẽ không được lập lịch đồng bộ cho tới khi đăng nhập lại
func (u *User) Deactivate(login string) error {
	ctx := context.Background()
	db, err := u.Mysql.Db()
	if err != nil {
		return err
	}
	if err := db.Where("login = ?", login).Delete(&User{}).Error; err != nil {
		u.Logger.Error(ctx, "Failed to deactivate user %s: %v", login, err)
		return err
	}
	u.Logger.Warn(ctx, "Deactivated user %s (invalid credential)", login)
	return nil
}
