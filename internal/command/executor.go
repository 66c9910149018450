package command

import (
	"context"
	"log/slog"

	"github.com/hitoshi/newsline/internal/message"
	"github.com/hitoshi/newsline/internal/model"
	"github.com/hitoshi/newsline/internal/repository"
)

// 取得失敗・結果なしをユーザーに伝える行。リンクは持たない。
const (
	errorRowText = "エラーが発生したため取得できませんでした"
	emptyRowText = "取得できるものがありませんでした"
)

// hotpepperCredit はホットペッパーAPI利用規約上必須のクレジット表記。
const hotpepperCredit = "Powered by ホットペッパー Webサービス"

// teikiFooter は定期実行確認メッセージの固定フッター。
const teikiFooter = "定期実行が無効の場合、有効なものがあってもプッシュ通知されません。\n" +
	"定期実行が有効の場合、JPCERTの最新情報はオフにできません。\n" +
	"タップすると有効・無効を切り替えます。"

// Executor は解決済みアクションを実行して応答メッセージを組み立てる。
type Executor struct {
	registry *Registry
	users    repository.UserRepository
	logger   *slog.Logger
	pageSize int
}

// NewExecutor はExecutorを生成する。
func NewExecutor(registry *Registry, users repository.UserRepository, logger *slog.Logger, pageSize int) *Executor {
	if pageSize <= 0 {
		pageSize = message.DefaultPageSize
	}
	return &Executor{registry: registry, users: users, logger: logger, pageSize: pageSize}
}

// Execute はアクションを実行し、送信可能なメッセージのページ列を返す。
// ソースの取得失敗はエラー行のメッセージに変換し、エラーとしては返さない。
func (e *Executor) Execute(ctx context.Context, cmd *Command, args []string, userID string) ([]message.Message, error) {
	switch cmd.Name {
	case NameTeiki:
		return e.executeTeiki(ctx, userID)
	case NameHelp:
		return e.executeHelp(), nil
	}

	rows, footer := e.fetchRows(ctx, cmd, args)
	payload := model.MessagePayload{
		Header: model.Header{Title: cmd.DisplayName},
		Rows:   rows,
		Footer: footer,
	}
	return message.BuildPages(payload, e.pageSize), nil
}

// fetchRows はソースから記事一覧を取得し、エラー・空結果を番兵行に正規化する。
func (e *Executor) fetchRows(ctx context.Context, cmd *Command, args []string) ([]model.ContentItem, string) {
	var footer string
	if cmd.Name == "lunch" || cmd.Name == "nomitai" {
		footer = hotpepperCredit
	}

	items, err := cmd.Source.Fetch(ctx, args)
	if err != nil {
		e.logger.Error("コンテンツ取得に失敗",
			slog.String("action", cmd.Name),
			slog.String("error", err.Error()))
		return []model.ContentItem{{Title: errorRowText}}, footer
	}
	if len(items) == 0 {
		return []model.ContentItem{{Title: emptyRowText}}, footer
	}
	return items, footer
}

// executeTeiki は定期実行の設定状態を表示するメッセージを組み立てる。
// 各行は現在値と反転用のポストバックトークンを持つ。
func (e *Executor) executeTeiki(ctx context.Context, userID string) ([]message.Message, error) {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// フォロー前のユーザーはすべて無効として表示する
		user = &model.User{ID: userID}
	}

	var rows []message.Component
	for _, row := range toggleRows {
		enabled := user.Flag(row.Column)
		postback := row.Token + "有効"
		if enabled {
			postback = row.Token + "無効"
		}
		rows = append(rows, message.NewToggleRow(row.Label, enabled, postback))
	}

	msg := message.Assemble(
		message.NewHeader("定期実行の確認", ""),
		rows,
		message.NewFooter(teikiFooter),
	)
	return []message.Message{msg}, nil
}

// executeHelp はアクション一覧のメッセージを組み立てる。
// 各行のポストバックには表示名を入れる。表示名はそのまま解決可能なテキストになっている。
func (e *Executor) executeHelp() []message.Message {
	var rows []message.Component
	for _, cmd := range e.registry.Commands() {
		if cmd.Name == NameHelp {
			continue
		}
		rows = append(rows, message.NewMenuRow(cmd.DisplayName, cmd.Description, cmd.DisplayName))
	}

	msg := message.Assemble(message.NewHeader("メソッド一覧", ""), rows, nil)
	return []message.Message{msg}
}

// ApplyToggle はトグルトークンを購読フラグの更新に変換して適用する。
// トークンでなければ何もせずfalseを返す。
func (e *Executor) ApplyToggle(ctx context.Context, userID, text string) (bool, error) {
	column, value, ok := ParseToggle(text)
	if !ok {
		return false, nil
	}
	if err := e.users.Upsert(ctx, userID, map[string]bool{column: value}); err != nil {
		return false, err
	}
	return true, nil
}
