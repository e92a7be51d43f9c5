package repository

import "github.com/cwrk-planet/kcd-platform/internal/errs"

// Сервисы проверяют errors.Is против errs, репозитории отдают те же значения
var (
	ErrNotFound         = errs.ErrNotFound
	ErrAlreadyExists    = errs.ErrAlreadyExists
	ErrStoreUnavailable = errs.ErrStoreUnavailable
)
