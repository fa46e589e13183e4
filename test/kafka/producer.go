// этот код не зависит от приложения,
// и нужен только для проверки приёма заказов сервисом заказов через кафку
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/asquebay/shop-gateway/internal/model"
)

func main() {
	brokerAddress := flag.String("broker", "localhost:9092", "kafka broker address")
	topic := flag.String("topic", "orders", "orders topic")
	userID := flag.Int64("user", 1, "user id of the order")
	flag.Parse()

	uid := model.UserID(*userID)
	price := model.NewMoney("79.90")
	total := price.Mul(2).Round2()
	txID := fmt.Sprintf("tx-%d", time.Now().Unix())

	// то же тело, что шлюз отправляет в POST /orders
	order := model.OrderRequest{
		UserID: &uid,
		Items: []model.CartItem{
			{ID: 1, Title: "Clavier mécanique", Price: price, Qty: 2, Subtotal: total},
		},
		Total:         &total,
		TransactionID: txID,
		DateTime:      time.Now().UTC(),
	}

	message, err := json.Marshal(order)
	if err != nil {
		log.Fatalf("Failed to marshal order: %v", err)
	}

	// настройки писателя (producer-а)
	writer := &kafka.Writer{
		Addr:     kafka.TCP(*brokerAddress),
		Topic:    *topic,
		Balancer: &kafka.Hash{},
	}
	defer writer.Close()

	log.Println("Sending order to Kafka...")
	err = writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(txID),
			Value: message,
		},
	)
	if err != nil {
		log.Fatalf("Failed to write message: %v", err)
	}
	fmt.Printf("Order %s sent successfully!\n", txID)
}
