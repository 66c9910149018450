package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/hitoshi/newsline/internal/model"
)

// flagColumns はUpsertで更新を許可するカラムの一覧。
// SQLへ連結するカラム名はこの集合に含まれるものに限定する。
var flagColumns = map[string]struct{}{
	model.FlagEnabled:     {},
	model.FlagAitRanking:  {},
	model.FlagAitNewAll:   {},
	model.FlagSmartJp:     {},
	model.FlagItmediaNews: {},
	model.FlagZdjapan:     {},
	model.FlagUxmilk:      {},
	model.FlagTechTarget:  {},
}

const userSelectColumns = `user_id, enabled, ait_enabled, ait_new_all_enabled,
	smart_jp_enabled, itmedia_news_enabled, zdjapan_enabled, uxmilk,
	tech_target_enabled, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// ScanAll は全ユーザーを取得する。
func (r *PostgresUserRepo) ScanAll(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userSelectColumns+` FROM users ORDER BY user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userSelectColumns+` FROM users WHERE user_id = $1`,
		id,
	)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Insert はユーザーを全フラグfalseで作成する。既に存在する場合は何もしない。
func (r *PostgresUserRepo) Insert(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Upsert は指定フラグのみを更新する。fieldsに含まれないカラムは保持される。
// ユーザー行が存在しない場合は、指定フラグ以外をすべてfalseとして作成する。
func (r *PostgresUserRepo) Upsert(ctx context.Context, id string, fields map[string]bool) error {
	if len(fields) == 0 {
		return nil
	}

	// カラム名はSQL文字列に連結するため、許可リストで検証する。
	// イテレーション順は決定的にするためソートする。
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if _, ok := flagColumns[col]; !ok {
			return fmt.Errorf("unknown flag column: %s", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	insertCols := []string{"user_id"}
	placeholders := []string{"$1"}
	updates := []string{}
	args := []any{id}
	for i, col := range cols {
		insertCols = append(insertCols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		args = append(args, fields[col])
	}

	query := fmt.Sprintf(
		`INSERT INTO users (%s) VALUES (%s)
		 ON CONFLICT (user_id) DO UPDATE SET %s, updated_at = now()`,
		strings.Join(insertCols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert user flags: %w", err)
	}
	return nil
}

// Delete は指定IDのユーザーを削除する。存在しない場合もエラーにしない。
// unfollowイベントは重複配送されることがある。
func (r *PostgresUserRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE user_id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// rowScanner はsql.Rowとsql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Enabled, &user.AitRanking, &user.AitNewAll,
		&user.SmartJp, &user.ItmediaNews, &user.Zdjapan, &user.Uxmilk,
		&user.TechTarget, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
