package persistence

import (
	"errors"

	"gorm.io/gorm"

	"encoding-service/ddd/domain/repo"
)

// translate 将 gorm 的未找到错误映射为仓储层错误
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	return err
}
