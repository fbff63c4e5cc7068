package model

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrInsufficientFunds = errors.New("insufficient fund balance")
	ErrInvalidStatus     = errors.New("requisition status does not allow this action")
	ErrLastAdmin         = errors.New("cannot remove the last admin of a company")
	ErrFundInUse         = errors.New("fund has requisitions and cannot be deleted")
)
