package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"github.com/streadway/amqp"
)

const (
	notificationExchange  = "auto_apply_events"
	eventApplicationAdded = "application.submitted"
)

// Notifier tells the job seeker about an application made on their behalf.
// Delivery is best effort: callers log the error and move on.
type Notifier interface {
	ApplicationSubmitted(ctx context.Context, user *models.User, job *models.Job, app *models.Application) error
}

type ApplicationEvent struct {
	Event         string    `json:"event"`
	UserID        uint      `json:"user_id"`
	JobID         uint      `json:"job_id"`
	ApplicationID uint      `json:"application_id"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewApplicationEvent(user *models.User, job *models.Job, app *models.Application) ApplicationEvent {
	return ApplicationEvent{
		Event:         eventApplicationAdded,
		UserID:        user.ID,
		JobID:         job.ID,
		ApplicationID: app.ID,
		Status:        app.Status,
		Message:       fmt.Sprintf("Your application for %s has been %s", job.Title, app.Status),
		Timestamp:     time.Now().UTC(),
	}
}

// AMQPNotifier publishes application events to a topic exchange, routed per user.
type AMQPNotifier struct {
	Conn *amqp.Connection
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		notificationExchange, // name
		"topic",              // kind
		true,                 // durable
		false,                // auto-delete
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", notificationExchange, err)
	}

	return &AMQPNotifier{Conn: conn}, nil
}

func (n *AMQPNotifier) ApplicationSubmitted(ctx context.Context, user *models.User, job *models.Job, app *models.Application) error {
	ch, err := n.Conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(NewApplicationEvent(user, job, app))
	if err != nil {
		return err
	}

	return ch.Publish(
		notificationExchange,
		fmt.Sprintf("user.%d", user.ID),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (n *AMQPNotifier) Close() error {
	return n.Conn.Close()
}

// LogNotifier only writes the event to the process log. Used when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) ApplicationSubmitted(_ context.Context, user *models.User, job *models.Job, app *models.Application) error {
	ev := NewApplicationEvent(user, job, app)
	log.Printf("[Notify user=%d] %s", ev.UserID, ev.Message)
	return nil
}
