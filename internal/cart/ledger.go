package cart

import (
	"fmt"
	"slices"

	"github.com/asquebay/shop-gateway/internal/model"
)

// ArticleSource: то, что корзине нужно от каталога
type ArticleSource interface {
	Get(id int) (model.Article, error)
}

// Ledger: мультимножество id статей одной сессии
// повтор id означает количество; сам срез принадлежит сессии
type Ledger struct {
	articles ArticleSource
	ids      *[]int
}

// NewLedger оборачивает срез корзины сессии
func NewLedger(articles ArticleSource, ids *[]int) *Ledger {
	return &Ledger{articles: articles, ids: ids}
}

// Add добавляет одну единицу статьи
// неизвестный id возвращает catalog.ErrArticleNotFound
func (l *Ledger) Add(id int) error {
	const op = "cart.Ledger.Add"

	if _, err := l.articles.Get(id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	*l.ids = append(*l.ids, id)
	return nil
}

// Remove убирает одно вхождение id; отсутствие id не ошибка
func (l *Ledger) Remove(id int) {
	i := slices.Index(*l.ids, id)
	if i < 0 {
		return
	}
	*l.ids = slices.Delete(*l.ids, i, i+1)
}

// Clear очищает корзину
func (l *Ledger) Clear() {
	*l.ids = nil
}

// IsEmpty: true, если в корзине нет ни одного id
func (l *Ledger) IsEmpty() bool {
	return len(*l.ids) == 0
}

// Count возвращает общее число единиц в корзине
func (l *Ledger) Count() int {
	return len(*l.ids)
}

// Snapshot возвращает строки корзины в порядке первого появления и итог
// id, пропавшие из каталога, пропускаются
// итог равен сумме округлённых подытогов, тоже округлённой до двух знаков
func (l *Ledger) Snapshot() ([]model.CartItem, model.Money) {
	order := make([]int, 0)
	qty := make(map[int]int)
	for _, id := range *l.ids {
		if _, seen := qty[id]; !seen {
			order = append(order, id)
		}
		qty[id]++
	}

	items := make([]model.CartItem, 0, len(order))
	var total model.Money
	for _, id := range order {
		a, err := l.articles.Get(id)
		if err != nil {
			continue
		}
		subtotal := a.Price.Mul(qty[id]).Round2()
		total = total.Add(subtotal)
		items = append(items, model.CartItem{
			ID:       a.ID,
			Title:    a.Title,
			Price:    a.Price,
			Qty:      qty[id],
			Subtotal: subtotal,
		})
	}

	return items, total.Round2()
}
