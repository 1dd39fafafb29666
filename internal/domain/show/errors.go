package show

import "errors"

// Show ドメインのエラー定義
var (
	ErrShowNotFound     = errors.New("上映が見つかりません")
	ErrMovieIDRequired  = errors.New("映画IDは必須です")
	ErrShowDateRequired = errors.New("上映日は必須です")
	ErrInvalidShowTime  = errors.New("上映開始時刻はHH:MM形式である必要があります")
	ErrInvalidPrice     = errors.New("価格は0以上である必要があります")
)
