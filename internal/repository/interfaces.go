// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/newsline/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// 排他制御は提供しない。トグル操作同士の競合はlast-write-winsで許容する。
type UserRepository interface {
	// ScanAll は全ユーザーを取得する。定期配信サイクルのスナップショットに使用する。
	ScanAll(ctx context.Context) ([]*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Insert はユーザーを全フラグfalseで作成する。既に存在する場合は何もしない。
	// followイベントで呼ばれる。再followも同じ経路を通るため冪等にしている。
	Insert(ctx context.Context, id string) error

	// Upsert は指定フラグのみを更新する。fieldsに含まれないカラムは保持される
	// （マージセマンティクス）。ユーザー行が存在しない場合は作成する。
	Upsert(ctx context.Context, id string, fields map[string]bool) error

	// Delete は指定IDのユーザーを削除する。unfollowイベントで呼ばれる。
	Delete(ctx context.Context, id string) error
}
