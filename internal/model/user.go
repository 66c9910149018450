// Package model はドメインモデルを定義する。
package model

import "time"

// 配信フラグのカラム名。usersテーブルのBOOLカラムと1:1で対応する。
// 歴代のDynamoDBスキーマをそのまま引き継いでいるため、uxmilkのみ接尾辞がない。
const (
	FlagEnabled     = "enabled"
	FlagAitRanking  = "ait_enabled"
	FlagAitNewAll   = "ait_new_all_enabled"
	FlagSmartJp     = "smart_jp_enabled"
	FlagItmediaNews = "itmedia_news_enabled"
	FlagZdjapan     = "zdjapan_enabled"
	FlagUxmilk      = "uxmilk"
	FlagTechTarget  = "tech_target_enabled"
)

// User はLINEの友だちユーザーと配信設定を表す。
// IDはプラットフォームが割り当てる不透明なユーザーIDで、followイベント時に
// 全フラグfalseで作成され、unfollowイベント時に削除される。
type User struct {
	ID          string
	Enabled     bool // 定期配信のマスタースイッチ
	AitRanking  bool
	AitNewAll   bool
	SmartJp     bool
	ItmediaNews bool
	Zdjapan     bool
	Uxmilk      bool
	TechTarget  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Flag は配信フラグをカラム名で参照する。未知のカラム名はfalseを返す。
func (u *User) Flag(column string) bool {
	switch column {
	case FlagEnabled:
		return u.Enabled
	case FlagAitRanking:
		return u.AitRanking
	case FlagAitNewAll:
		return u.AitNewAll
	case FlagSmartJp:
		return u.SmartJp
	case FlagItmediaNews:
		return u.ItmediaNews
	case FlagZdjapan:
		return u.Zdjapan
	case FlagUxmilk:
		return u.Uxmilk
	case FlagTechTarget:
		return u.TechTarget
	}
	return false
}
