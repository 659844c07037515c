package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/cloudemu/zero/internal/api"
	apperrors "github.com/cloudemu/zero/internal/errors"

	"github.com/google/uuid"
)

var queueNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,80}$`)

// QueueService implements message queues with a visibility timeout. A
// received message stays in the queue, hidden, until it is deleted with
// its receipt handle or the timeout expires.
type QueueService struct {
	db         *sql.DB
	baseURL    string
	visibility time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func (s *QueueService) migrate(ctx context.Context) error {
	return execAll(ctx, s.db,
		`CREATE TABLE IF NOT EXISTS queues (
			name TEXT PRIMARY KEY,
			url TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			queue_name TEXT NOT NULL,
			body TEXT NOT NULL,
			receipt_handle TEXT,
			visible_after INTEGER NOT NULL DEFAULT 0,
			sent_at INTEGER NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS messages_queue_visible ON messages (queue_name, visible_after)",
	)
}

func (s *QueueService) queueURL(name string) string {
	return fmt.Sprintf("%s/v1/queue/queues/%s", s.baseURL, name)
}

// CreateQueue creates a queue and returns its URL. Creating an existing
// queue returns the same URL.
func (s *QueueService) CreateQueue(ctx context.Context, name string) (string, error) {
	if !queueNamePattern.MatchString(name) {
		return "", apperrors.ErrValidation(fmt.Sprintf("invalid queue name %q", name),
			errors.New("queue names are 1-80 letters, digits, hyphens or underscores"))
	}

	url := s.queueURL(name)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO queues (name, url) VALUES (?, ?) ON CONFLICT(name) DO NOTHING", name, url)
	if err != nil {
		return "", internalError("create queue "+name, err)
	}
	return url, nil
}

// ListQueues returns the URLs of all queues.
func (s *QueueService) ListQueues(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT url FROM queues ORDER BY name")
	if err != nil {
		return nil, internalError("list queues", err)
	}
	defer func() { _ = rows.Close() }()

	urls := []string{}
	for rows.Next() {
		var url string
		if err = rows.Scan(&url); err != nil {
			return nil, internalError("scan queue", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

func (s *QueueService) requireQueue(ctx context.Context, name string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM queues WHERE name = ?", name).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound(fmt.Sprintf("queue %s not found", name), nil)
	}
	if err != nil {
		return internalError("look up queue "+name, err)
	}
	return nil
}

// SendMessage enqueues body and returns the message ID.
func (s *QueueService) SendMessage(ctx context.Context, queue, body string) (string, error) {
	if err := s.requireQueue(ctx, queue); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, queue_name, body, visible_after, sent_at) VALUES (?, ?, ?, 0, ?)",
		id, queue, body, s.now().UnixNano())
	if err != nil {
		return "", internalError("send message", err)
	}
	return id, nil
}

// ReceiveMessage returns the oldest visible message, or nil when none is
// visible. The message is hidden for the visibility timeout and given a
// fresh receipt handle.
func (s *QueueService) ReceiveMessage(ctx context.Context, queue string) (*api.Message, error) {
	if err := s.requireQueue(ctx, queue); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, internalError("begin receive", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now()
	msg := &api.Message{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, body FROM messages
		 WHERE queue_name = ? AND visible_after <= ?
		 ORDER BY sent_at, rowid LIMIT 1`,
		queue, now.UnixNano()).Scan(&msg.MessageID, &msg.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, internalError("receive message", err)
	}

	msg.ReceiptHandle = uuid.NewString()
	_, err = tx.ExecContext(ctx,
		"UPDATE messages SET receipt_handle = ?, visible_after = ? WHERE id = ?",
		msg.ReceiptHandle, now.Add(s.visibility).UnixNano(), msg.MessageID)
	if err != nil {
		return nil, internalError("hide message", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, internalError("commit receive", err)
	}
	return msg, nil
}

// DeleteMessage removes the message holding receiptHandle. Only the
// handle from the most recent receive is accepted.
func (s *QueueService) DeleteMessage(ctx context.Context, queue, receiptHandle string) error {
	if err := s.requireQueue(ctx, queue); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM messages WHERE queue_name = ? AND receipt_handle = ?", queue, receiptHandle)
	if err != nil {
		return internalError("delete message", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return internalError("delete message", err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound("receipt handle not found", nil)
	}
	return nil
}
