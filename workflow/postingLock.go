package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireOrderPostingLock serializes posting per order reference across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same *gorm.DB that will do the posting transaction.
func AcquireOrderPostingLock(tx *gorm.DB, orderRef string) error {
	lockName := fmt.Sprintf("relatic:order:%s", orderRef)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return NewRetryableError(ErrCodeLockTimeout, fmt.Sprintf("could not acquire posting lock for order_ref=%s", orderRef))
	}
	return nil
}

func ReleaseOrderPostingLock(tx *gorm.DB, orderRef string) {
	lockName := fmt.Sprintf("relatic:order:%s", orderRef)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
