package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrShowIDRequired  = errors.New("上映IDは必須です")
	ErrLabelRequired   = errors.New("座席ラベルは必須です")
	ErrLabelTooLong    = errors.New("座席ラベルが長すぎます")
	ErrDuplicateLabel  = errors.New("座席ラベルが重複しています")
	ErrInvalidPrice    = errors.New("価格は0以上である必要があります")
	ErrInvalidLayout   = errors.New("座席配置が不正です")
	ErrNoSeats         = errors.New("座席が1つ以上必要です")
	ErrHoldTTLRequired = errors.New("仮押さえの有効期間は正の値である必要があります")
)
