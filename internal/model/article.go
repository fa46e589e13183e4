package model

// Article: позиция статического каталога
type Article struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Price Money  `json:"price"`
}

// CartItem: строка корзины, вычисляется из каталога и никогда не хранится сама по себе
// тот же снимок уходит в заказ
type CartItem struct {
	ID       int    `json:"id" validate:"required"`
	Title    string `json:"title"`
	Price    Money  `json:"price"`
	Qty      int    `json:"qty" validate:"gt=0"`
	Subtotal Money  `json:"subtotal"`
}
