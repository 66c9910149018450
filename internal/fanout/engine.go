// Package fanout は定期配信サイクルを提供する。
// ユーザーの購読設定に基づいて各ソースの新着を配信する。
package fanout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/newsline/internal/message"
	"github.com/hitoshi/newsline/internal/metrics"
	"github.com/hitoshi/newsline/internal/model"
	"github.com/hitoshi/newsline/internal/repository"
	"github.com/hitoshi/newsline/internal/source"
)

// Pusher は複数ユーザーへのメッセージ配信インターフェース。
// line.Clientが実装する。
type Pusher interface {
	Multicast(ctx context.Context, userIDs []string, messages []message.Message) error
}

// Engine は定期配信サイクルを実行する。
// semaphoreパターンで最大並列数を制御しながら全ソースをフェッチし、
// ソースごとの宛先リストへページ単位でプッシュする。
type Engine struct {
	users          repository.UserRepository
	sources        []source.Source
	pusher         Pusher
	logger         *slog.Logger
	collector      metrics.MetricsCollector
	pageSize       int
	maxConcurrency int
}

// NewEngine はEngineの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値4を使用する。
func NewEngine(
	users repository.UserRepository,
	sources []source.Source,
	pusher Pusher,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	pageSize int,
	maxConcurrency int,
) *Engine {
	if pageSize <= 0 {
		pageSize = message.DefaultPageSize
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Engine{
		users:          users,
		sources:        sources,
		pusher:         pusher,
		logger:         logger,
		collector:      collector,
		pageSize:       pageSize,
		maxConcurrency: maxConcurrency,
	}
}

// RunCycle は定期配信サイクルを1回実行する。
// ユーザースナップショットの取得に失敗した場合のみエラーを返す。
// ソース単位のフェッチ失敗・配信失敗はログに記録して他ソースへ波及させない。
func (e *Engine) RunCycle(ctx context.Context) error {
	start := time.Now()

	// サイクル開始時点のスナップショットを使う。実行中のトグル操作との
	// 競合は許容し、次サイクルで反映される。
	users, err := e.users.ScanAll(ctx)
	if err != nil {
		return model.NewStoreError("全件取得", err)
	}

	recipients := e.buildRecipients(users)

	e.logger.Info("定期配信サイクルを開始します",
		slog.Int("user_count", len(users)),
		slog.Int("source_count", len(e.sources)),
	)

	// 宛先の計算は保存済みフラグだけに依存するため先に行うが、
	// フェッチは宛先の有無に関わらず全ソースで実行する（fetch-all-then-filter）。
	results := e.fetchAll(ctx)

	delivered := 0
	for _, result := range results {
		if e.deliver(ctx, result, recipients[result.Key]) {
			delivered++
		}
	}

	e.logger.Info("定期配信サイクルが完了しました",
		slog.Int("delivered_sources", delivered),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// buildRecipients はソースごとの宛先リストを構築する。
// 必須ソースは有効な全ユーザーが宛先になり、個別フラグでのオプトアウトはできない。
func (e *Engine) buildRecipients(users []*model.User) map[string][]string {
	recipients := make(map[string][]string, len(e.sources))
	for _, s := range e.sources {
		var ids []string
		for _, u := range users {
			if !u.Enabled {
				continue
			}
			if s.Mandatory() || u.Flag(s.FlagColumn()) {
				ids = append(ids, u.ID)
			}
		}
		recipients[s.Key()] = ids
	}
	return recipients
}

// fetchAll は全ソースを並列にフェッチする。
// 1ソースの失敗は該当ソースの結果をエラーとして記録するだけで、他には影響しない。
func (e *Engine) fetchAll(ctx context.Context) []*model.SourceResult {
	sem := make(chan struct{}, e.maxConcurrency)
	var wg sync.WaitGroup

	results := make([]*model.SourceResult, len(e.sources))
	for i, s := range e.sources {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(i int, s source.Source) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			start := time.Now()
			items, err := s.Fetch(ctx, nil)
			e.collector.RecordFetchLatency(s.Key(), time.Since(start))

			if err != nil {
				e.collector.RecordFetchFailure(s.Key())
				e.logger.Error("ソースのフェッチに失敗しました",
					slog.String("source", s.Key()),
					slog.String("error", err.Error()),
				)
				results[i] = &model.SourceResult{Key: s.Key(), Label: s.Label(), Err: err}
				return
			}

			e.collector.RecordFetchSuccess(s.Key())
			results[i] = &model.SourceResult{Key: s.Key(), Label: s.Label(), Items: items}
		}(i, s)
	}

	wg.Wait()
	return results
}

// deliver は1ソースの結果を宛先リストへ配信する。配信した場合にtrueを返す。
// フェッチ失敗・結果なし・宛先なしのソースは配信しない。
func (e *Engine) deliver(ctx context.Context, result *model.SourceResult, userIDs []string) bool {
	if result.Err != nil || len(result.Items) == 0 || len(userIDs) == 0 {
		return false
	}

	payload := model.MessagePayload{
		Header: model.Header{Title: result.Label},
		Rows:   result.Items,
	}
	pages := message.BuildPages(payload, e.pageSize)

	for _, page := range pages {
		if err := e.pusher.Multicast(ctx, userIDs, []message.Message{page}); err != nil {
			e.collector.RecordPushFailure(result.Key)
			e.logger.Error("プッシュ配信に失敗しました",
				slog.String("source", result.Key),
				slog.Int("recipient_count", len(userIDs)),
				slog.String("error", err.Error()),
			)
			return false
		}
	}

	e.collector.RecordPush(result.Key, len(userIDs))
	e.logger.Info("プッシュ配信が完了しました",
		slog.String("source", result.Key),
		slog.Int("recipient_count", len(userIDs)),
		slog.Int("item_count", len(result.Items)),
		slog.Int("page_count", len(pages)),
	)
	return true
}
