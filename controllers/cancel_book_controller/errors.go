package cancel_book_controller

import "errors"

var (
	ErrInvalidDisposition = errors.New("disposition must be retain, refund_now or refund_pending")
	ErrInvalidRefund      = errors.New("refund amount exceeds the deposit paid")
)
