package command

import "strings"

// Resolver は自由入力テキストをアクションに解決する。
type Resolver struct {
	registry *Registry
}

// NewResolver はResolverを生成する。
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve は必要キーワードがすべて含まれる最初のアクションを返す。
// キーワードの出現位置や順序は問わない。一致がなければnil。
func (r *Resolver) Resolve(text string) *Command {
	for _, cmd := range r.registry.Commands() {
		if matchesAll(text, cmd.Keywords) {
			return cmd
		}
	}
	return nil
}

func matchesAll(text string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}
