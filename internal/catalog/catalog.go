package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/asquebay/shop-gateway/internal/model"
)

// ErrArticleNotFound возвращается для id, которого нет в каталоге
var ErrArticleNotFound = errors.New("article not found")

// Catalog: неизменяемый каталог товаров, общий для всего процесса
type Catalog struct {
	articles []model.Article
	byID     map[int]model.Article
}

// New строит каталог из списка статей; порядок сохраняется для выдачи
func New(articles []model.Article) *Catalog {
	c := &Catalog{
		articles: slices.Clone(articles),
		byID:     make(map[int]model.Article, len(articles)),
	}
	for _, a := range articles {
		c.byID[a.ID] = a
	}
	return c
}

// Get возвращает статью по id
func (c *Catalog) Get(id int) (model.Article, error) {
	const op = "catalog.Catalog.Get"

	a, ok := c.byID[id]
	if !ok {
		return model.Article{}, fmt.Errorf("%s: id %d: %w", op, id, ErrArticleNotFound)
	}
	return a, nil
}

// Has сообщает, есть ли статья в каталоге
func (c *Catalog) Has(id int) bool {
	_, ok := c.byID[id]
	return ok
}

// All возвращает копию списка статей
func (c *Catalog) All() []model.Article {
	return slices.Clone(c.articles)
}

// Default: каталог магазина
func Default() *Catalog {
	return New([]model.Article{
		{ID: 1, Title: "Clavier mécanique", Price: model.NewMoney("79.90")},
		{ID: 2, Title: "Souris sans fil", Price: model.NewMoney("39.90")},
		{ID: 3, Title: "Écran 27\"", Price: model.NewMoney("229.00")},
		{ID: 4, Title: "Casque audio fermé", Price: model.NewMoney("99.00")},
		{ID: 5, Title: "Casque audio ouvert", Price: model.NewMoney("129.00")},
		{ID: 6, Title: "Micro USB cardioïde", Price: model.NewMoney("59.90")},
		{ID: 7, Title: "Webcam 1080p 60fps", Price: model.NewMoney("89.90")},
		{ID: 8, Title: "Hub USB-C 8-en-1", Price: model.NewMoney("49.90")},
		{ID: 9, Title: "SSD NVMe 1To", Price: model.NewMoney("99.90")},
		{ID: 10, Title: "Clé USB 128Go", Price: model.NewMoney("19.90")},
		{ID: 11, Title: "Tapis de souris XL", Price: model.NewMoney("24.90")},
		{ID: 12, Title: "Support écran aluminium", Price: model.NewMoney("34.90")},
		{ID: 13, Title: "Station d’accueil USB-C", Price: model.NewMoney("149.00")},
		{ID: 14, Title: "Chargeur GaN 65W", Price: model.NewMoney("39.90")},
		{ID: 15, Title: "Câble USB-C 2m 100W", Price: model.NewMoney("12.90")},
	})
}
